package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresMemberEventRepo はPostgreSQLを使用した会員イベントリポジトリ。
type PostgresMemberEventRepo struct {
	db *sql.DB
}

// NewPostgresMemberEventRepo はPostgresMemberEventRepoを生成する。
func NewPostgresMemberEventRepo(db *sql.DB) *PostgresMemberEventRepo {
	return &PostgresMemberEventRepo{db: db}
}

const memberEventColumns = `id, title, date, time, location, description, organizer, organizer_id, created_at`

func scanMemberEvent(row rowScanner) (*model.MemberEvent, error) {
	e := &model.MemberEvent{}
	err := row.Scan(
		&e.ID, &e.Title, &e.Date, &e.Time, &e.Location,
		&e.Description, &e.Organizer, &e.OrganizerID, &e.CreatedAt,
	)
	return e, err
}

// Create は会員イベントを作成する。
func (r *PostgresMemberEventRepo) Create(ctx context.Context, event *model.MemberEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO member_events (`+memberEventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Title, event.Date, event.Time, event.Location,
		event.Description, event.Organizer, event.OrganizerID, event.CreatedAt,
	)
	if err != nil {
		return wrapInsertError("member event", err)
	}
	return nil
}

// FindByID は指定IDの会員イベントを取得する。見つからない場合はnilを返す。
func (r *PostgresMemberEventRepo) FindByID(ctx context.Context, id string) (*model.MemberEvent, error) {
	e, err := scanMemberEvent(r.db.QueryRowContext(ctx,
		`SELECT `+memberEventColumns+` FROM member_events WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member event: %w", err)
	}
	return e, nil
}

// ListRecent は全会員イベントをcreated_at降順で返す。
func (r *PostgresMemberEventRepo) ListRecent(ctx context.Context) ([]*model.MemberEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberEventColumns+` FROM member_events ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list member events: %w", err)
	}
	defer rows.Close()

	events := []*model.MemberEvent{}
	for rows.Next() {
		e, err := scanMemberEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate member events: %w", err)
	}
	return events, nil
}

// DeleteByID は指定IDの会員イベントを削除する。
func (r *PostgresMemberEventRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM member_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member event: %w", err)
	}
	return requireAffected(result, "member event", id)
}

// compile-time interface check
var _ MemberEventRepository = (*PostgresMemberEventRepo)(nil)
