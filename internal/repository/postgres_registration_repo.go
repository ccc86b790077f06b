package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresRegistrationRepo はPostgreSQLを使用したイベント参加登録リポジトリ。
type PostgresRegistrationRepo struct {
	db *sql.DB
}

// NewPostgresRegistrationRepo はPostgresRegistrationRepoを生成する。
func NewPostgresRegistrationRepo(db *sql.DB) *PostgresRegistrationRepo {
	return &PostgresRegistrationRepo{db: db}
}

const registrationColumns = `id, event_id, event_title, event_date, event_location, participants,
	user_id, user_name, user_email, registered_at`

func scanRegistration(row rowScanner) (*model.EventRegistration, error) {
	reg := &model.EventRegistration{}
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.EventTitle, &reg.EventDate, &reg.EventLocation, &reg.Participants,
		&reg.UserID, &reg.UserName, &reg.UserEmail, &reg.RegisteredAt,
	)
	return reg, err
}

// Create は登録を作成する。
// idx_event_registrations_event_user の一意制約に違反した場合はErrDuplicateを返す。
func (r *PostgresRegistrationRepo) Create(ctx context.Context, reg *model.EventRegistration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		reg.ID, reg.EventID, reg.EventTitle, reg.EventDate, reg.EventLocation, reg.Participants,
		reg.UserID, reg.UserName, reg.UserEmail, reg.RegisteredAt,
	)
	if err != nil {
		return wrapInsertError("event registration", err)
	}
	return nil
}

// FindByID は指定IDの登録を取得する。見つからない場合はnilを返す。
func (r *PostgresRegistrationRepo) FindByID(ctx context.Context, id string) (*model.EventRegistration, error) {
	reg, err := scanRegistration(r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM event_registrations WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event registration: %w", err)
	}
	return reg, nil
}

// ExistsByEventAndUser は指定ユーザーが指定イベントに登録済みかを返す。
func (r *PostgresRegistrationRepo) ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event registration: %w", err)
	}
	return exists, nil
}

// ListByUser はユーザーの登録をregistered_at降順で返す。
func (r *PostgresRegistrationRepo) ListByUser(ctx context.Context, userID string) ([]*model.EventRegistration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM event_registrations
		 WHERE user_id = $1 ORDER BY registered_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list event registrations: %w", err)
	}
	defer rows.Close()

	regs := []*model.EventRegistration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event registrations: %w", err)
	}
	return regs, nil
}

// DeleteByID は指定IDの登録を削除する。
func (r *PostgresRegistrationRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM event_registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event registration: %w", err)
	}
	return requireAffected(result, "event registration", id)
}

// compile-time interface check
var _ RegistrationRepository = (*PostgresRegistrationRepo)(nil)
