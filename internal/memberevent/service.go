// Package memberevent は会員が作成するイベントの投稿・一覧・削除を提供する。
package memberevent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

// Collection は会員イベントのコレクション名。
const Collection = "member_events"

// EmptyMessage は会員イベントが1件も無い場合の表示文言。
const EmptyMessage = "Пока нет мероприятий от участников"

// SuccessMessage は作成成功時に返す文言。
const SuccessMessage = "Мероприятие успешно создано!"

// Input はイベント作成フォームの入力値。
type Input struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Service は会員イベントのビジネスロジックを提供する。
type Service struct {
	repo      repository.MemberEventRepository
	sanitizer security.TextSanitizer
	notifier  live.Notifier
	recorder  metrics.SubmissionRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	repo repository.MemberEventRepository,
	sanitizer security.TextSanitizer,
	notifier live.Notifier,
	recorder metrics.SubmissionRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{repo: repo, sanitizer: sanitizer, notifier: notifier, recorder: recorder, now: time.Now}
}

// Create はイベントを作成する。全項目が必須。
func (s *Service) Create(ctx context.Context, user *model.AuthUser, in Input) (*model.MemberEvent, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	ev, err := s.build(user, in)
	if err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, err
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create member event: %w", err)
	}

	s.recorder.RecordSubmission(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return ev, nil
}

func (s *Service) build(user *model.AuthUser, in Input) (*model.MemberEvent, error) {
	fields := []struct {
		label string
		value *string
	}{
		{"Название", &in.Title},
		{"Дата", &in.Date},
		{"Время", &in.Time},
		{"Место", &in.Location},
		{"Описание", &in.Description},
	}
	for _, f := range fields {
		*f.value = s.sanitizer.PlainText(*f.value)
		if *f.value == "" {
			return nil, model.NewRequiredFieldError(f.label)
		}
	}

	date, err := time.Parse(model.DateLayout, in.Date)
	if err != nil {
		return nil, model.NewValidationError("Укажите дату в формате ГГГГ-ММ-ДД")
	}

	return &model.MemberEvent{
		ID:          uuid.New().String(),
		Title:       in.Title,
		Date:        date,
		Time:        strings.TrimSpace(in.Time),
		Location:    in.Location,
		Description: in.Description,
		Organizer:   user.SubmitterName(),
		OrganizerID: user.ID,
		CreatedAt:   s.now(),
	}, nil
}

// List は全会員イベントを新しい順に返す。
func (s *Service) List(ctx context.Context) ([]*model.MemberEvent, error) {
	events, err := s.repo.ListRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list member events: %w", err)
	}
	return events, nil
}

// Delete は主催者本人のイベントを削除する。
func (s *Service) Delete(ctx context.Context, user *model.AuthUser, id string) error {
	if user == nil {
		return model.NewUnauthorizedError()
	}

	if _, err := uuid.Parse(id); err != nil {
		return model.NewRecordNotFoundError(id)
	}

	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find member event: %w", err)
	}
	if ev == nil {
		return model.NewRecordNotFoundError(id)
	}
	if ev.OrganizerID != user.ID {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewForbiddenError()
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		s.recorder.RecordDeletion(Collection, metrics.OutcomeError)
		return fmt.Errorf("failed to delete member event: %w", err)
	}

	s.recorder.RecordDeletion(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return nil
}

// CanDelete はviewerがイベントを削除できるかを返す。
func CanDelete(viewer *model.AuthUser, ev *model.MemberEvent) bool {
	return viewer != nil && viewer.ID == ev.OrganizerID
}
