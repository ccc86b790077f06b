// Package comment はトップページのコメント投稿・一覧・削除を提供する。
package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

// Collection はコメントのコレクション名。変更通知のチャネルペイロードと一致する。
const Collection = "comments"

// EmptyMessage はコメントが1件も無い場合の表示文言。
const EmptyMessage = "Пока нет комментариев. Будьте первым!"

// Service はコメントのビジネスロジックを提供する。
type Service struct {
	repo      repository.CommentRepository
	authors   *AuthorResolver
	sanitizer security.TextSanitizer
	notifier  live.Notifier
	recorder  metrics.SubmissionRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	repo repository.CommentRepository,
	authors *AuthorResolver,
	sanitizer security.TextSanitizer,
	notifier live.Notifier,
	recorder metrics.SubmissionRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		authors:   authors,
		sanitizer: sanitizer,
		notifier:  notifier,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Create はコメントを投稿する。
func (s *Service) Create(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	text = s.sanitizer.PlainText(text)
	if text == "" {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, model.NewRequiredFieldError("Комментарий")
	}

	c := &model.Comment{
		ID:         uuid.New().String(),
		Text:       text,
		AuthorName: s.authors.NameForNewComment(ctx, user),
		AuthorID:   user.ID,
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.recorder.RecordSubmission(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return c, nil
}

// List は全コメントを新しい順に返す。投稿者名は補完済み。
func (s *Service) List(ctx context.Context) ([]*model.Comment, error) {
	comments, err := s.repo.ListRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	s.authors.Enrich(ctx, comments)
	return comments, nil
}

// Delete は投稿者本人のコメントを削除する。
func (s *Service) Delete(ctx context.Context, user *model.AuthUser, id string) error {
	if user == nil {
		return model.NewUnauthorizedError()
	}

	// ストアのid列はUUID型。形式外のidは存在しない記録として扱う。
	if _, err := uuid.Parse(id); err != nil {
		return model.NewRecordNotFoundError(id)
	}

	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find comment: %w", err)
	}
	if c == nil {
		return model.NewRecordNotFoundError(id)
	}
	if c.AuthorID != user.ID {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewForbiddenError()
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		s.recorder.RecordDeletion(Collection, metrics.OutcomeError)
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	s.recorder.RecordDeletion(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return nil
}

// CanDelete はviewerがコメントを削除できるかを返す。
func CanDelete(viewer *model.AuthUser, c *model.Comment) bool {
	return viewer != nil && viewer.ID == c.AuthorID
}
