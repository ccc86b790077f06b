package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/anglerclub/internal/contact"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
)

// ContactServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	SendMessage(ctx context.Context, user *model.AuthUser, in contact.MessageInput) (*model.ContactMessage, error)
	RequestConsultation(ctx context.Context, user *model.AuthUser, in contact.ConsultationInput) (*model.ConsultationRequest, error)
}

// ContactHandler は問い合わせと個別相談のHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface) *ContactHandler {
	return &ContactHandler{service: service}
}

type contactMessageResponse struct {
	ID       string    `json:"id"`
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	SenderID string    `json:"sender_id"`
	Status   string    `json:"status"`
	SentAt   time.Time `json:"sent_at"`
}

type consultationResponse struct {
	ID               string    `json:"id"`
	ConsultationType string    `json:"consultation_type"`
	PreferredDate    string    `json:"preferred_date"`
	PreferredTime    string    `json:"preferred_time"`
	Topic            string    `json:"topic"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	RequestedAt      time.Time `json:"requested_at"`
}

// SendMessage は問い合わせメッセージを送信する。
// POST /api/contact
func (h *ContactHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var in contact.MessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.service.SendMessage(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created[contactMessageResponse]{
		Record: contactMessageResponse{
			ID:       msg.ID,
			Subject:  msg.Subject,
			Message:  msg.Message,
			SenderID: msg.SenderID,
			Status:   string(msg.Status),
			SentAt:   msg.SentAt,
		},
		SuccessMessage: contact.MessageSuccessMessage,
	})
}

// RequestConsultation は個別相談をリクエストする。
// POST /api/consultations
func (h *ContactHandler) RequestConsultation(w http.ResponseWriter, r *http.Request) {
	var in contact.ConsultationInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := h.service.RequestConsultation(r.Context(), middleware.IdentityFromContext(r.Context()), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	date := req.PreferredDate.Format(model.DateLayout)
	writeJSON(w, http.StatusCreated, created[consultationResponse]{
		Record: consultationResponse{
			ID:               req.ID,
			ConsultationType: req.ConsultationType,
			PreferredDate:    date,
			PreferredTime:    req.PreferredTime,
			Topic:            req.Topic,
			Description:      req.Description,
			Status:           string(req.Status),
			RequestedAt:      req.RequestedAt,
		},
		SuccessMessage: contact.ConsultationSuccessMessage(date, req.PreferredTime),
	})
}
