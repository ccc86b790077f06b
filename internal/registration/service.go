// Package registration は公式イベントへの参加登録を提供する。
// 同一ユーザーは同一イベントに1度だけ登録できる。
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/anglerclub/internal/catalog"
	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
)

// Collection は参加登録のコレクション名。
const Collection = "event_registrations"

// 表示文言。
const (
	EmptyMessage   = "Вы пока не записаны ни на одно мероприятие"
	SuccessMessage = "Вы успешно записались на мероприятие. Мы свяжемся с вами для уточнения деталей."
)

// 参加人数の範囲。
const (
	MinParticipants = 1
	MaxParticipants = 10
)

// Service は参加登録のビジネスロジックを提供する。
type Service struct {
	repo     repository.RegistrationRepository
	notifier live.Notifier
	recorder metrics.SubmissionRecorder
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.RegistrationRepository, notifier live.Notifier, recorder metrics.SubmissionRecorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{repo: repo, notifier: notifier, recorder: recorder, now: time.Now}
}

// IsRegistered はuserがeventIDに登録済みかを返す。未ログインの場合はfalse。
func (s *Service) IsRegistered(ctx context.Context, user *model.AuthUser, eventID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	exists, err := s.repo.ExistsByEventAndUser(ctx, eventID, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return exists, nil
}

// Register はuserをeventIDに登録する。
// 書き込み前に登録済みかを再確認し、同時実行の競合は一意制約で検出する。
func (s *Service) Register(ctx context.Context, user *model.AuthUser, eventID string, participants int) (*model.EventRegistration, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	event, ok := catalog.EventByID(eventID)
	if !ok {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, model.NewEventNotFoundError(eventID)
	}
	if participants < MinParticipants || participants > MaxParticipants {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, model.NewValidationError(fmt.Sprintf("Количество участников должно быть от %d до %d", MinParticipants, MaxParticipants))
	}

	registered, err := s.IsRegistered(ctx, user, eventID)
	if err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeError)
		return nil, err
	}
	if registered {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, model.NewAlreadyRegisteredError()
	}

	reg := &model.EventRegistration{
		ID:            uuid.New().String(),
		EventID:       event.ID,
		EventTitle:    event.Title,
		EventDate:     event.Date,
		EventLocation: event.Location,
		Participants:  participants,
		UserID:        user.ID,
		UserName:      user.SubmitterName(),
		UserEmail:     user.Email,
		RegisteredAt:  s.now(),
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
			return nil, model.NewAlreadyRegisteredError()
		}
		s.recorder.RecordSubmission(Collection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	s.recorder.RecordSubmission(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return reg, nil
}

// ListByUser はuserの登録を新しい順に返す。
func (s *Service) ListByUser(ctx context.Context, user *model.AuthUser) ([]*model.EventRegistration, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	regs, err := s.repo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return regs, nil
}

// Delete は本人の登録を取り消す。
func (s *Service) Delete(ctx context.Context, user *model.AuthUser, id string) error {
	if user == nil {
		return model.NewUnauthorizedError()
	}

	if _, err := uuid.Parse(id); err != nil {
		return model.NewRecordNotFoundError(id)
	}

	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find registration: %w", err)
	}
	if reg == nil {
		return model.NewRecordNotFoundError(id)
	}
	if reg.UserID != user.ID {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewForbiddenError()
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		s.recorder.RecordDeletion(Collection, metrics.OutcomeError)
		return fmt.Errorf("failed to delete registration: %w", err)
	}

	s.recorder.RecordDeletion(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return nil
}
