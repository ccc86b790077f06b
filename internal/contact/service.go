// Package contact は問い合わせメッセージと個別相談リクエストの受付を扱う。
// どちらも送信専用で、会員向けの一覧は持たない。
package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/anglerclub/internal/catalog"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

// コレクション名。
const (
	MessageCollection      = "contact_messages"
	ConsultationCollection = "consultation_requests"
)

// MessageSuccessMessage は問い合わせ送信完了時の表示文言。
const MessageSuccessMessage = "Ваше сообщение успешно отправлено. Мы свяжемся с вами в ближайшее время."

// ConsultationSuccessMessage は相談リクエスト送信完了時の表示文言を返す。
func ConsultationSuccessMessage(date, slot string) string {
	return "Ваша заявка на консультацию успешно отправлена. Наш эксперт свяжется с вами в течение 24 часов для подтверждения времени встречи. " +
		fmt.Sprintf("Консультация будет проведена %s в %s", date, slot)
}

// MessageInput は問い合わせフォームの入力値。
type MessageInput struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ConsultationInput は個別相談フォームの入力値。
type ConsultationInput struct {
	ConsultationType string `json:"consultation_type"`
	PreferredDate    string `json:"preferred_date"`
	PreferredTime    string `json:"preferred_time"`
	Topic            string `json:"topic"`
	Description      string `json:"description"`
}

// Service は問い合わせ受付のビジネスロジックを提供する。
type Service struct {
	messages      repository.ContactMessageRepository
	consultations repository.ConsultationRequestRepository
	sanitizer     security.TextSanitizer
	recorder      metrics.SubmissionRecorder
	now           func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	messages repository.ContactMessageRepository,
	consultations repository.ConsultationRequestRepository,
	sanitizer security.TextSanitizer,
	recorder metrics.SubmissionRecorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		messages:      messages,
		consultations: consultations,
		sanitizer:     sanitizer,
		recorder:      recorder,
		now:           time.Now,
	}
}

// SendMessage は問い合わせメッセージを保存する。初期状態はnew。
func (s *Service) SendMessage(ctx context.Context, user *model.AuthUser, in MessageInput) (*model.ContactMessage, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	subject := s.sanitizer.PlainText(in.Subject)
	body := s.sanitizer.PlainText(in.Message)
	if subject == "" {
		s.recorder.RecordSubmission(MessageCollection, metrics.OutcomeRejected)
		return nil, model.NewRequiredFieldError("Тема сообщения")
	}
	if body == "" {
		s.recorder.RecordSubmission(MessageCollection, metrics.OutcomeRejected)
		return nil, model.NewRequiredFieldError("Сообщение")
	}

	msg := &model.ContactMessage{
		ID:          uuid.New().String(),
		Subject:     subject,
		Message:     body,
		SenderID:    user.ID,
		SenderName:  user.SubmitterName(),
		SenderEmail: user.Email,
		Status:      model.StatusNew,
		SentAt:      s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.recorder.RecordSubmission(MessageCollection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create contact message: %w", err)
	}

	s.recorder.RecordSubmission(MessageCollection, metrics.OutcomeSuccess)
	return msg, nil
}

// RequestConsultation は個別相談リクエストを保存する。初期状態はpending。
func (s *Service) RequestConsultation(ctx context.Context, user *model.AuthUser, in ConsultationInput) (*model.ConsultationRequest, error) {
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	req, err := s.buildConsultation(user, in)
	if err != nil {
		s.recorder.RecordSubmission(ConsultationCollection, metrics.OutcomeRejected)
		return nil, err
	}

	if err := s.consultations.Create(ctx, req); err != nil {
		s.recorder.RecordSubmission(ConsultationCollection, metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create consultation request: %w", err)
	}

	s.recorder.RecordSubmission(ConsultationCollection, metrics.OutcomeSuccess)
	return req, nil
}

func (s *Service) buildConsultation(user *model.AuthUser, in ConsultationInput) (*model.ConsultationRequest, error) {
	if !catalog.IsConsultationType(in.ConsultationType) {
		return nil, model.NewValidationError("Выберите тип консультации из списка")
	}
	if in.PreferredDate == "" {
		return nil, model.NewRequiredFieldError("Предпочтительная дата")
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
	if !catalog.IsTimeSlot(in.PreferredTime) {
		return nil, model.NewValidationError("Выберите время из списка")
	}
	topic := s.sanitizer.PlainText(in.Topic)
	if topic == "" {
		return nil, model.NewRequiredFieldError("Тема консультации")
	}
	description := s.sanitizer.PlainText(in.Description)
	if description == "" {
		return nil, model.NewRequiredFieldError("Описание")
	}

	return &model.ConsultationRequest{
		ID:               uuid.New().String(),
		ConsultationType: in.ConsultationType,
		PreferredDate:    date,
		PreferredTime:    in.PreferredTime,
		Topic:            topic,
		Description:      description,
		Status:           model.StatusPending,
		ClientID:         user.ID,
		ClientName:       user.SubmitterName(),
		ClientEmail:      user.Email,
		RequestedAt:      now,
	}, nil
}
