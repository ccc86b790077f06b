// Package training は講習への申し込みを扱う。
package training

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/anglerclub/internal/catalog"
	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

// Collection は講習申し込みのコレクション名。
const Collection = "training_applications"

// EmptyMessage は申し込みが無い場合の表示文言。
const EmptyMessage = "У вас нет заявок на курсы обучения"

const (
	MinParticipants = 1
	MaxParticipants = 10
)

// SuccessMessage は送信完了時の表示文言を返す。
func SuccessMessage(courseTitle string) string {
	return fmt.Sprintf("Ваша заявка на курс \"%s\" успешно отправлена. Наш менеджер свяжется с вами в течение 24 часов для подтверждения записи и уточнения деталей.", courseTitle)
}

// Input は申し込みフォームの入力値。
type Input struct {
	CourseID      string `json:"course_id"`
	PreferredDate string `json:"preferred_date"`
	Participants  int    `json:"participants"`
	Experience    string `json:"experience"`
	Goals         string `json:"goals"`
	Notes         string `json:"notes"`
}

// Service は講習申し込みのビジネスロジックを提供する。
type Service struct {
	repo      repository.TrainingApplicationRepository
	sanitizer security.TextSanitizer
	notifier  live.Notifier
	recorder  metrics.SubmissionRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	repo repository.TrainingApplicationRepository,
	sanitizer security.TextSanitizer,
	notifier live.Notifier,
	recorder metrics.SubmissionRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{repo: repo, sanitizer: sanitizer, notifier: notifier, recorder: recorder, now: time.Now}
}

// Apply は講習に申し込む。講習名・料金・期間は申し込み時点のカタログから複製する。
func (s *Service) Apply(ctx context.Context, user *model.AuthUser, in Input) (*model.TrainingApplication, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	app, err := s.build(user, in)
	if err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeRejected)
		return nil, err
	}

	if err := s.repo.Create(ctx, app); err != nil {
		s.recorder.RecordSubmission(Collection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create training application: %w", err)
	}

	s.recorder.RecordSubmission(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return app, nil
}

func (s *Service) build(user *model.AuthUser, in Input) (*model.TrainingApplication, error) {
	course, ok := catalog.CourseByID(in.CourseID)
	if !ok {
		return nil, model.NewCourseNotFoundError(in.CourseID)
	}
	if in.PreferredDate == "" {
		return nil, model.NewRequiredFieldError("Желаемая дата")
	}
	date, err := time.Parse(model.DateLayout, in.PreferredDate)
	if err != nil {
		return nil, model.NewValidationError("Укажите дату в формате ГГГГ-ММ-ДД")
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return nil, model.NewValidationError("Дата не может быть в прошлом")
	}
	if in.Participants < MinParticipants || in.Participants > MaxParticipants {
		return nil, model.NewValidationError(fmt.Sprintf("Количество участников должно быть от %d до %d", MinParticipants, MaxParticipants))
	}
	if !catalog.IsExperienceLevel(in.Experience) {
		return nil, model.NewValidationError("Выберите уровень опыта из списка")
	}
	goals := s.sanitizer.PlainText(in.Goals)
	if strings.TrimSpace(goals) == "" {
		return nil, model.NewRequiredFieldError("Цели обучения")
	}

	return &model.TrainingApplication{
		ID:             uuid.New().String(),
		CourseID:       course.ID,
		CourseName:     course.Title,
		CoursePrice:    course.Price,
		CourseDuration: course.Duration,
		PreferredDate:  date,
		Participants:   in.Participants,
		Experience:     in.Experience,
		Goals:          goals,
		Notes:          s.sanitizer.PlainText(in.Notes),
		Status:         model.StatusPending,
		ClientID:       user.ID,
		ClientName:     user.SubmitterName(),
		ClientEmail:    user.Email,
		AppliedAt:      now,
	}, nil
}

// ListByClient はuserの申し込みを新しい順に返す。
func (s *Service) ListByClient(ctx context.Context, user *model.AuthUser) ([]*model.TrainingApplication, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}
	apps, err := s.repo.ListByClient(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list training applications: %w", err)
	}
	return apps, nil
}

// Cancel は本人の確認待ち申し込みを取り消す。
func (s *Service) Cancel(ctx context.Context, user *model.AuthUser, id string) error {
	if user == nil {
		return model.NewUnauthorizedError()
	}

	if _, err := uuid.Parse(id); err != nil {
		return model.NewRecordNotFoundError(id)
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find training application: %w", err)
	}
	if app == nil {
		return model.NewRecordNotFoundError(id)
	}
	if app.ClientID != user.ID {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewForbiddenError()
	}
	if app.Status != model.StatusPending {
		s.recorder.RecordDeletion(Collection, metrics.OutcomeRejected)
		return model.NewNotCancellableError(app.Status)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewRecordNotFoundError(id)
		}
		s.recorder.RecordDeletion(Collection, metrics.OutcomeError)
		return fmt.Errorf("failed to delete training application: %w", err)
	}

	s.recorder.RecordDeletion(Collection, metrics.OutcomeSuccess)
	s.notifier.Publish(Collection)
	return nil
}

// CanCancel はviewerが申し込みを取り消せるかを返す。
func CanCancel(viewer *model.AuthUser, a *model.TrainingApplication) bool {
	return viewer != nil && viewer.ID == a.ClientID && a.Status == model.StatusPending
}
