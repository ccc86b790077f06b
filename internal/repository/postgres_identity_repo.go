package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresIdentityRepo はPostgreSQLを使用した資格情報リポジトリ。
type PostgresIdentityRepo struct {
	db *sql.DB
}

// NewPostgresIdentityRepo はPostgresIdentityRepoを生成する。
func NewPostgresIdentityRepo(db *sql.DB) *PostgresIdentityRepo {
	return &PostgresIdentityRepo{db: db}
}

const identityColumns = `id, user_id, provider, email, password_hash, display_name, created_at`

func scanIdentity(row rowScanner) (*model.Identity, error) {
	identity := &model.Identity{}
	err := row.Scan(
		&identity.ID, &identity.UserID, &identity.Provider, &identity.Email,
		&identity.PasswordHash, &identity.DisplayName, &identity.CreatedAt,
	)
	return identity, err
}

// Create は資格情報を作成する。emailが重複する場合はErrDuplicateを返す。
func (r *PostgresIdentityRepo) Create(ctx context.Context, identity *model.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		identity.ID, identity.UserID, identity.Provider, identity.Email,
		identity.PasswordHash, identity.DisplayName, identity.CreatedAt,
	)
	if err != nil {
		return wrapInsertError("identity", err)
	}
	return nil
}

// FindByEmail はproviderとemailで資格情報を検索する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByEmail(ctx context.Context, provider, email string) (*model.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE provider = $1 AND email = $2`,
		provider, email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by email: %w", err)
	}
	return identity, nil
}

// FindByUserID はユーザーIDで資格情報を検索する。見つからない場合はnilを返す。
func (r *PostgresIdentityRepo) FindByUserID(ctx context.Context, userID string) (*model.Identity, error) {
	identity, err := scanIdentity(r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE user_id = $1 ORDER BY created_at LIMIT 1`,
		userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find identity by user ID: %w", err)
	}
	return identity, nil
}

// UpdateDisplayName は表示名を更新する。
func (r *PostgresIdentityRepo) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE identities SET display_name = $2 WHERE user_id = $1`,
		userID, displayName,
	)
	if err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return requireAffected(result, "identity", userID)
}

// compile-time interface check
var _ IdentityRepository = (*PostgresIdentityRepo)(nil)
