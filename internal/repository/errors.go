package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate は一意制約違反で作成できなかったことを表す。
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound は更新・削除対象の行が存在しなかったことを表す。
	ErrNotFound = errors.New("record not found")
)

// uniqueViolation はPostgreSQLの一意制約違反のSQLSTATE。
const uniqueViolation = "23505"

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// wrapInsertError はINSERT失敗を一意制約違反とそれ以外に振り分ける。
func wrapInsertError(what string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to insert %s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

// requireAffected は削除・更新で1行以上が対象になったことを確認する。
func requireAffected(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// nullStringValue はsql.NullStringの値を返す。NULLの場合は空文字列。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// toNullString は空文字列をNULLとして扱うsql.NullStringに変換する。
func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
