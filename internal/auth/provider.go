package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
)

// プロバイダーが返すエラーコード。
const (
	CodeEmailAlreadyInUse = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
)

// ProviderPassword はパスワード認証プロバイダーの識別子。
const ProviderPassword = "password"

// ProviderError は認証プロバイダーが拒否した理由をコードで表す。
type ProviderError struct {
	Code string
}

func (e *ProviderError) Error() string {
	return "identity provider: " + e.Code
}

// IdentityProvider はアカウントと資格情報を管理する認証プロバイダーの境界。
// 拒否は*ProviderErrorで返し、それ以外のエラーは基盤の障害を表す。
type IdentityProvider interface {
	// CreateAccount はemailとパスワードでアカウントを作成する。
	CreateAccount(ctx context.Context, email, password string) (*model.Identity, error)
	// SignIn はemailとパスワードを検証し、一致したアカウントを返す。
	SignIn(ctx context.Context, email, password string) (*model.Identity, error)
	// UpdateDisplayName はアカウントの表示名を設定する。
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
	// Lookup はユーザーIDでアカウントを取得する。存在しない場合はnilを返す。
	Lookup(ctx context.Context, userID string) (*model.Identity, error)
}

// PasswordProvider はbcryptハッシュでパスワードを検証するIdentityProvider。
type PasswordProvider struct {
	identities repository.IdentityRepository
	cost       int
}

// NewPasswordProvider はPasswordProviderを生成する。
// costが0以下の場合はbcrypt.DefaultCostを使う。
func NewPasswordProvider(identities repository.IdentityRepository, cost int) *PasswordProvider {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &PasswordProvider{identities: identities, cost: cost}
}

// minPasswordLength はプロバイダーが受け付けるパスワードの最小文字数。
const minPasswordLength = 6

// CreateAccount はアカウントを作成する。
func (p *PasswordProvider) CreateAccount(ctx context.Context, email, password string) (*model.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len([]rune(password)) < minPasswordLength {
		return nil, &ProviderError{Code: CodeWeakPassword}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, &ProviderError{Code: CodeWeakPassword}
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.New().String()
	identity := &model.Identity{
		ID:           id,
		UserID:       id,
		Provider:     ProviderPassword,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := p.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ProviderError{Code: CodeEmailAlreadyInUse}
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	return identity, nil
}

// SignIn はemailとパスワードを検証する。
func (p *PasswordProvider) SignIn(ctx context.Context, email, password string) (*model.Identity, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	identity, err := p.identities.FindByEmail(ctx, ProviderPassword, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	if identity == nil {
		return nil, &ProviderError{Code: CodeUserNotFound}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, &ProviderError{Code: CodeWrongPassword}
	}
	return identity, nil
}

// UpdateDisplayName は表示名を更新する。
func (p *PasswordProvider) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	if err := p.identities.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return nil
}

// Lookup はユーザーIDでアカウントを取得する。
func (p *PasswordProvider) Lookup(ctx context.Context, userID string) (*model.Identity, error) {
	identity, err := p.identities.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}
	return identity, nil
}

// normalizeEmail は前後の空白を除去して小文字化する。@を含まない場合はinvalid-email。
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", &ProviderError{Code: CodeInvalidEmail}
	}
	return email, nil
}

// compile-time interface check
var _ IdentityProvider = (*PasswordProvider)(nil)
