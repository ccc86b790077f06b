package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresRentalRepo はPostgreSQLを使用した機材レンタルリポジトリ。
type PostgresRentalRepo struct {
	db *sql.DB
}

// NewPostgresRentalRepo はPostgresRentalRepoを生成する。
func NewPostgresRentalRepo(db *sql.DB) *PostgresRentalRepo {
	return &PostgresRentalRepo{db: db}
}

const rentalColumns = `id, equipment_id, equipment_name, rental_type, start_date, end_date, quantity,
	notes, total_price, status, client_id, client_name, client_email, requested_at`

func scanRental(row rowScanner) (*model.EquipmentRental, error) {
	rental := &model.EquipmentRental{}
	err := row.Scan(
		&rental.ID, &rental.EquipmentID, &rental.EquipmentName, &rental.RentalType,
		&rental.StartDate, &rental.EndDate, &rental.Quantity,
		&rental.Notes, &rental.TotalPrice, &rental.Status,
		&rental.ClientID, &rental.ClientName, &rental.ClientEmail, &rental.RequestedAt,
	)
	return rental, err
}

// Create はレンタルリクエストを作成する。
func (r *PostgresRentalRepo) Create(ctx context.Context, rental *model.EquipmentRental) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO equipment_rentals (`+rentalColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rental.ID, rental.EquipmentID, rental.EquipmentName, rental.RentalType,
		rental.StartDate, rental.EndDate, rental.Quantity,
		rental.Notes, rental.TotalPrice, rental.Status,
		rental.ClientID, rental.ClientName, rental.ClientEmail, rental.RequestedAt,
	)
	if err != nil {
		return wrapInsertError("equipment rental", err)
	}
	return nil
}

// FindByID は指定IDのレンタルリクエストを取得する。見つからない場合はnilを返す。
func (r *PostgresRentalRepo) FindByID(ctx context.Context, id string) (*model.EquipmentRental, error) {
	rental, err := scanRental(r.db.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM equipment_rentals WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find equipment rental: %w", err)
	}
	return rental, nil
}

// ListByClient はクライアントのリクエストをrequested_at降順で返す。
func (r *PostgresRentalRepo) ListByClient(ctx context.Context, clientID string) ([]*model.EquipmentRental, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rentalColumns+` FROM equipment_rentals
		 WHERE client_id = $1 ORDER BY requested_at DESC, id`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment rentals: %w", err)
	}
	defer rows.Close()

	rentals := []*model.EquipmentRental{}
	for rows.Next() {
		rental, err := scanRental(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment rental: %w", err)
		}
		rentals = append(rentals, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate equipment rentals: %w", err)
	}
	return rentals, nil
}

// DeleteByID は指定IDのレンタルリクエストを削除する。
func (r *PostgresRentalRepo) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM equipment_rentals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete equipment rental: %w", err)
	}
	return requireAffected(result, "equipment rental", id)
}

// compile-time interface check
var _ RentalRepository = (*PostgresRentalRepo)(nil)
