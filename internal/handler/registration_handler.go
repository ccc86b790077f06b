package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/registration"
)

// RegistrationServiceInterface は参加登録ハンドラーが必要とするサービスインターフェース。
type RegistrationServiceInterface interface {
	IsRegistered(ctx context.Context, user *model.AuthUser, eventID string) (bool, error)
	Register(ctx context.Context, user *model.AuthUser, eventID string, participants int) (*model.EventRegistration, error)
	ListByUser(ctx context.Context, user *model.AuthUser) ([]*model.EventRegistration, error)
	Delete(ctx context.Context, user *model.AuthUser, id string) error
}

// RegistrationHandler は公式イベントへの参加登録のHTTPハンドラー。
type RegistrationHandler struct {
	service RegistrationServiceInterface
	streamer
}

// NewRegistrationHandler はRegistrationHandlerを生成する。
func NewRegistrationHandler(service RegistrationServiceInterface, sub live.Subscriber, recorder metrics.StreamRecorder) *RegistrationHandler {
	return &RegistrationHandler{service: service, streamer: newStreamer(sub, recorder)}
}

type registerRequest struct {
	Participants int `json:"participants"`
}

type registrationStatusResponse struct {
	Registered bool   `json:"registered"`
	Message    string `json:"message,omitempty"`
}

type registrationResponse struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	EventDate     string    `json:"event_date"`
	EventLocation string    `json:"event_location"`
	Participants  int       `json:"participants"`
	RegisteredAt  time.Time `json:"registered_at"`
	CanDelete     bool      `json:"can_delete"`
}

// Status は現在のユーザーがイベントに登録済みかを返す。未ログインの場合はfalse。
// GET /api/events/{eventID}/registration
func (h *RegistrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	registered, err := h.service.IsRegistered(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	resp := registrationStatusResponse{Registered: registered}
	if registered {
		resp.Message = model.NewAlreadyRegisteredError().Message
	}
	writeJSON(w, http.StatusOK, resp)
}

// Register はイベントに参加登録する。
// POST /api/events/{eventID}/registrations
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.IdentityFromContext(r.Context())
	reg, err := h.service.Register(r.Context(), user, chi.URLParam(r, "eventID"), req.Participants)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created[registrationResponse]{
		Record:         toRegistrationResponse(reg, user),
		SuccessMessage: registration.SuccessMessage,
	})
}

// List は自分の参加登録一覧のスナップショットを返す。
// GET /api/me/registrations
func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stream は自分の参加登録一覧をSSEで配信する。
// GET /api/me/registrations/stream
func (h *RegistrationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.IdentityFromContext(r.Context())
	serveStream(h.streamer, w, r, registration.Collection, func(ctx context.Context) (snapshot[registrationResponse], error) {
		return h.snapshot(ctx, viewer)
	})
}

// Delete は自分の参加登録を取り消す。
// DELETE /api/me/registrations/{id}
func (h *RegistrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RegistrationHandler) snapshot(ctx context.Context, viewer *model.AuthUser) (snapshot[registrationResponse], error) {
	regs, err := h.service.ListByUser(ctx, viewer)
	if err != nil {
		return snapshot[registrationResponse]{}, err
	}
	items := make([]registrationResponse, len(regs))
	for i, reg := range regs {
		items[i] = toRegistrationResponse(reg, viewer)
	}
	return newSnapshot(items, registration.EmptyMessage), nil
}

func toRegistrationResponse(reg *model.EventRegistration, viewer *model.AuthUser) registrationResponse {
	return registrationResponse{
		ID:            reg.ID,
		EventID:       reg.EventID,
		EventTitle:    reg.EventTitle,
		EventDate:     reg.EventDate,
		EventLocation: reg.EventLocation,
		Participants:  reg.Participants,
		RegisteredAt:  reg.RegisteredAt,
		CanDelete:     viewer != nil && viewer.ID == reg.UserID,
	}
}
