// Package auth はパスワード認証プロバイダーとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
)

// サインアップ時の入力検証メッセージ。
const (
	MsgPasswordMismatch = "Пароли не совпадают"
	MsgPasswordTooShort = "Пароль должен содержать минимум 6 символов"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// SignUpInput はサインアップフォームの入力値。
type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	provider    IdentityProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	recorder    metrics.AuthRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(
	provider IdentityProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	recorder metrics.AuthRecorder,
	config ServiceConfig,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		provider:    provider,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		recorder:    recorder,
		config:      config,
	}
}

// SignUp はアカウントを作成し、プロフィールを書き込んでセッションを発行する。
// パスワードの一致と長さはプロバイダーを呼ぶ前に検証する。
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*model.Session, *model.AuthUser, error) {
	if in.Password != in.ConfirmPassword {
		s.recorder.RecordAuthAttempt("signup", metrics.OutcomeRejected)
		return nil, nil, model.NewValidationError(MsgPasswordMismatch)
	}
	if len([]rune(in.Password)) < minPasswordLength {
		s.recorder.RecordAuthAttempt("signup", metrics.OutcomeRejected)
		return nil, nil, model.NewValidationError(MsgPasswordTooShort)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		s.recorder.RecordAuthAttempt("signup", metrics.OutcomeRejected)
		return nil, nil, model.NewRequiredFieldError("Имя")
	}

	identity, err := s.provider.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return nil, nil, s.providerFailure("signup", err)
	}

	if err := s.provider.UpdateDisplayName(ctx, identity.UserID, name); err != nil {
		s.recorder.RecordAuthAttempt("signup", metrics.OutcomeError)
		return nil, nil, fmt.Errorf("failed to set display name: %w", err)
	}
	identity.DisplayName = name

	profile := &model.User{
		ID:        identity.UserID,
		Name:      name,
		Email:     identity.Email,
		Role:      model.RoleMember,
		CreatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, profile); err != nil {
		s.recorder.RecordAuthAttempt("signup", metrics.OutcomeError)
		return nil, nil, fmt.Errorf("failed to create profile: %w", err)
	}

	session, err := s.createSession(ctx, identity.UserID)
	if err != nil {
		s.recorder.RecordAuthAttempt("signup", metrics.OutcomeError)
		return nil, nil, err
	}

	s.recorder.RecordAuthAttempt("signup", metrics.OutcomeSuccess)
	slog.Info("new member signed up", slog.String("user_id", identity.UserID))
	return session, toAuthUser(identity), nil
}

// SignIn は資格情報を検証してセッションを発行する。
func (s *Service) SignIn(ctx context.Context, email, password string) (*model.Session, *model.AuthUser, error) {
	identity, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, s.providerFailure("signin", err)
	}

	session, err := s.createSession(ctx, identity.UserID)
	if err != nil {
		s.recorder.RecordAuthAttempt("signin", metrics.OutcomeError)
		return nil, nil, err
	}

	s.recorder.RecordAuthAttempt("signin", metrics.OutcomeSuccess)
	slog.Info("member signed in", slog.String("user_id", identity.UserID))
	return session, toAuthUser(identity), nil
}

// SignOut はセッションを破棄する。
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CurrentUser はセッションIDから現在のユーザーを返す。
// セッションが無い・期限切れ・アカウントが存在しない場合はnil, nilを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.AuthUser, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	identity, err := s.provider.Lookup(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}
	return toAuthUser(identity), nil
}

// providerFailure はプロバイダーのエラーを利用者向けのAPIErrorに変換する。
func (s *Service) providerFailure(operation string, err error) error {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		s.recorder.RecordAuthAttempt(operation, metrics.OutcomeError)
		return fmt.Errorf("identity provider %s failed: %w", operation, err)
	}

	s.recorder.RecordAuthAttempt(operation, metrics.OutcomeRejected)
	msg := MessageForCode(perr.Code)
	switch perr.Code {
	case CodeEmailAlreadyInUse:
		return model.NewAuthError(model.ErrCodeEmailInUse, msg)
	case CodeWeakPassword, CodeInvalidEmail:
		return model.NewAuthError(model.ErrCodeValidation, msg)
	default:
		return model.NewAuthError(model.ErrCodeAuthFailed, msg)
	}
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

func toAuthUser(identity *model.Identity) *model.AuthUser {
	return &model.AuthUser{
		ID:          identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
