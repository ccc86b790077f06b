// Package rental は機材レンタルのリクエスト送信・一覧・取り消しを提供する。
package rental

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
	"github.com/hitoshi/anglerclub/internal/security"
)

// Collection はレンタルリクエストのコレクション名。
const Collection = "equipment_rentals"

// 表示文言。
const (
	EmptyMessage   = "У вас нет активных заявок на аренду"
	SuccessMessage = "Ваша заявка на аренду снаряжения успешно отправлена. Мы свяжемся с вами в течение 24 часов для подтверждения и уточнения деталей."
)

// 1リクエストあたりの数量の範囲。
const (
	MinQuantity = 1
	MaxQuantity = 5
)

// Input はレンタルフォームの入力値。日付はYYYY-MM-DD形式。
type Input struct {
	EquipmentID string           `json:"equipment_id"`
	RentalType  model.RentalType `json:"rental_type"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Quantity    int              `json:"quantity"`
	Notes       string           `json:"notes"`
}

// Service はレンタルリクエストのビジネスロジックを提供する。
type Service struct {
	repo      repository.RentalRepository
	sanitizer security.TextSanitizer
	notifier  live.Notifier
	recorder  metrics.SubmissionRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	repo repository.RentalRepository,
	sanitizer security.TextSanitizer,
	notifier live.Notifier,
	recorder metrics.SubmissionRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{repo: repo, sanitizer: sanitizer, notifier: notifier, recorder: recorder, now: time.Now}
}

// Submit はレンタルリクエストを送信する。初期状態はpending。
func (s *Service) Submit(ctx context.Context, user *model.AuthUser, in Input) (*model.EquipmentRental, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	rental, err := s.build(user, in)
	if err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, err
	}

	if err := s.repo.Create(ctx, rental); err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create rental: %w", err)
	}

	s.recorder.RecordSubmission(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return rental, nil
}

func (s *Service) build(user *model.AuthUser, in Input) (*model.EquipmentRental, error) {
	item, ok := catalog.EquipmentByID(in.EquipmentID)
	if !ok {
		return nil, model.NewEquipmentNotFoundError(in.EquipmentID)
	}
	if !in.RentalType.Valid() {
		return nil, model.NewValidationError("Выберите тип аренды: посуточно или понедельно")
	}
	if in.StartDate == "" {
		return nil, model.NewRequiredFieldError("Дата начала")
	}
	if in.EndDate == "" {
		return nil, model.NewRequiredFieldError("Дата окончания")
	}
	start, err := time.Parse(model.DateLayout, in.StartDate)
	if err != nil {
		return nil, model.NewValidationError("Укажите дату начала в формате ГГГГ-ММ-ДД")
	}
	end, err := time.Parse(model.DateLayout, in.EndDate)
	if err != nil {
		return nil, model.NewValidationError("Укажите дату окончания в формате ГГГГ-ММ-ДД")
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if start.Before(today) {
		return nil, model.NewValidationError("Дата начала не может быть в прошлом")
	}
	if end.Before(start) {
		return nil, model.NewValidationError("Дата окончания не может быть раньше даты начала")
	}
	if in.Quantity < MinQuantity || in.Quantity > MaxQuantity {
		return nil, model.NewValidationError(fmt.Sprintf("Количество должно быть от %d до %d", MinQuantity, MaxQuantity))
	}

	return &model.EquipmentRental{
		ID:            uuid.New().String(),
		EquipmentID:   item.ID,
		EquipmentName: item.Name,
		RentalType:    in.RentalType,
		StartDate:     start,
		EndDate:       end,
		Quantity:      in.Quantity,
		Notes:         s.sanitizer.PlainText(in.Notes),
		TotalPrice:    catalog.QuoteRental(item.ID, in.RentalType, in.Quantity),
		Status:        model.StatusPending,
		ClientID:      user.ID,
		ClientName:    user.SubmitterName(),
		ClientEmail:   user.Email,
		RequestedAt:   now,
	}, nil
}

// ListByClient はuserのリクエストを新しい順に返す。
func (s *Service) ListByClient(ctx context.Context, user *model.AuthUser) ([]*model.EquipmentRental, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	rentals, err := s.repo.ListByClient(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rentals: %w", err)
	}
	return rentals, nil
}

// Cancel は本人の確認待ちリクエストを取り消す。
func (s *Service) Cancel(ctx context.Context, user *model.AuthUser, id string) error {
	if user == nil {
		return model.NewUnauthorizedError()
	}

	// ストアのid列はUUID型。形式外のidは存在しない記録として扱う。
	if _, err := uuid.Parse(id); err != nil {
		return model.NewRecordNotFoundError(id)
	}

	rental, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find rental: %w", err)
	}
	if rental == nil {
		return model.NewRecordNotFoundError(id)
	}
	if rental.ClientID != user.ID {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewForbiddenError()
	}
	if rental.Status != model.StatusPending {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewNotCancellableError(rental.Status)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		s.recorder.RecordDeletion(Collection, metrics.OutcomeError)
		return fmt.Errorf("failed to delete rental: %w", err)
	}

	s.recorder.RecordDeletion(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return nil
}

// CanCancel はviewerがリクエストを取り消せるかを返す。
func CanCancel(viewer *model.AuthUser, r *model.EquipmentRental) bool {
	return viewer != nil && viewer.ID == r.ClientID && r.Status == model.StatusPending
}
