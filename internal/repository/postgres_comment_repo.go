package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

const commentColumns = `id, text, author_name, author_id, created_at`

func scanComment(row rowScanner) (*model.Comment, error) {
	c := &model.Comment{}
	err := row.Scan(&c.ID, &c.Text, &c.AuthorName, &c.AuthorID, &c.CreatedAt)
	return c, err
}

// Create はコメントを作成する。
func (r *PostgresCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.Text, comment.AuthorName, comment.AuthorID, comment.CreatedAt,
	)
	if err != nil {
		return wrapInsertError("comment", err)
	}
	return nil
}

// FindByID は指定IDのコメントを取得する。見つからない場合はnilを返す。
func (r *PostgresCommentRepo) FindByID(ctx context.Context, id string) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	return c, nil
}

// ListRecent は全コメントをcreated_at降順で返す。
func (r *PostgresCommentRepo) ListRecent(ctx context.Context) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

// DeleteByID は指定IDのコメントを削除する。
func (r *PostgresCommentRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireAffected(result, "comment", id)
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
