package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresTrainingRepo はPostgreSQLを使用した講習申し込みリポジトリ。
type PostgresTrainingRepo struct {
	db *sql.DB
}

// NewPostgresTrainingRepo はPostgresTrainingRepoを生成する。
func NewPostgresTrainingRepo(db *sql.DB) *PostgresTrainingRepo {
	return &PostgresTrainingRepo{db: db}
}

const trainingColumns = `id, course_id, course_name, course_price, course_duration, preferred_date,
	participants, experience, goals, notes, status, client_id, client_name, client_email, applied_at`

func scanTrainingApplication(row rowScanner) (*model.TrainingApplication, error) {
	app := &model.TrainingApplication{}
	err := row.Scan(
		&app.ID, &app.CourseID, &app.CourseName, &app.CoursePrice, &app.CourseDuration, &app.PreferredDate,
		&app.Participants, &app.Experience, &app.Goals, &app.Notes, &app.Status,
		&app.ClientID, &app.ClientName, &app.ClientEmail, &app.AppliedAt,
	)
	return app, err
}

// Create は講習申し込みを作成する。
func (r *PostgresTrainingRepo) Create(ctx context.Context, app *model.TrainingApplication) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO training_applications (`+trainingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		app.ID, app.CourseID, app.CourseName, app.CoursePrice, app.CourseDuration, app.PreferredDate,
		app.Participants, app.Experience, app.Goals, app.Notes, app.Status,
		app.ClientID, app.ClientName, app.ClientEmail, app.AppliedAt,
	)
	if err != nil {
		return wrapInsertError("training application", err)
	}
	return nil
}

// FindByID は指定IDの講習申し込みを取得する。見つからない場合はnilを返す。
func (r *PostgresTrainingRepo) FindByID(ctx context.Context, id string) (*model.TrainingApplication, error) {
	app, err := scanTrainingApplication(r.db.QueryRowContext(ctx,
		`SELECT `+trainingColumns+` FROM training_applications WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find training application: %w", err)
	}
	return app, nil
}

// ListByClient はクライアントの申し込みをapplied_at降順で返す。
func (r *PostgresTrainingRepo) ListByClient(ctx context.Context, clientID string) ([]*model.TrainingApplication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trainingColumns+` FROM training_applications
		 WHERE client_id = $1 ORDER BY applied_at DESC, id`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list training applications: %w", err)
	}
	defer rows.Close()

	apps := []*model.TrainingApplication{}
	for rows.Next() {
		app, err := scanTrainingApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate training applications: %w", err)
	}
	return apps, nil
}

// DeleteByID は指定IDの講習申し込みを削除する。
func (r *PostgresTrainingRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM training_applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete training application: %w", err)
	}
	return requireAffected(result, "training application", id)
}

// compile-time interface check
var _ TrainingApplicationRepository = (*PostgresTrainingRepo)(nil)
