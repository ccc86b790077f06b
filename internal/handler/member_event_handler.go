package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/memberevent"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
)

// MemberEventServiceInterface は会員イベントハンドラーが必要とするサービスインターフェース。
type MemberEventServiceInterface interface {
	Create(ctx context.Context, user *model.AuthUser, in memberevent.Input) (*model.MemberEvent, error)
	List(ctx context.Context) ([]*model.MemberEvent, error)
	Delete(ctx context.Context, user *model.AuthUser, id string) error
}

// MemberEventHandler は会員が作成するイベントのHTTPハンドラー。
type MemberEventHandler struct {
	service MemberEventServiceInterface
	streamer
}

// NewMemberEventHandler はMemberEventHandlerを生成する。
func NewMemberEventHandler(service MemberEventServiceInterface, sub live.Subscriber, recorder metrics.StreamRecorder) *MemberEventHandler {
	return &MemberEventHandler{service: service, streamer: newStreamer(sub, recorder)}
}

type memberEventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Organizer   string    `json:"organizer"`
	CreatedAt   time.Time `json:"created_at"`
	CanDelete   bool      `json:"can_delete"`
}

// Create は会員イベントを作成する。
// POST /api/member-events
func (h *MemberEventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in memberevent.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	user := middleware.IdentityFromContext(r.Context())
	ev, err := h.service.Create(r.Context(), user, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created[memberEventResponse]{
		Record:         toMemberEventResponse(ev, user),
		SuccessMessage: memberevent.SuccessMessage,
	})
}

// List は会員イベント一覧のスナップショットを返す。
// GET /api/member-events
func (h *MemberEventHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stream は会員イベント一覧をSSEで配信する。
// GET /api/member-events/stream
func (h *MemberEventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.IdentityFromContext(r.Context())
	serveStream(h.streamer, w, r, memberevent.Collection, func(ctx context.Context) (snapshot[memberEventResponse], error) {
		return h.snapshot(ctx, viewer)
	})
}

// Delete は自分が作成した会員イベントを削除する。
// DELETE /api/member-events/{id}
func (h *MemberEventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberEventHandler) snapshot(ctx context.Context, viewer *model.AuthUser) (snapshot[memberEventResponse], error) {
	events, err := h.service.List(ctx)
	if err != nil {
		return snapshot[memberEventResponse]{}, err
	}
	items := make([]memberEventResponse, len(events))
	for i, ev := range events {
		items[i] = toMemberEventResponse(ev, viewer)
	}
	return newSnapshot(items, memberevent.EmptyMessage), nil
}

func toMemberEventResponse(ev *model.MemberEvent, viewer *model.AuthUser) memberEventResponse {
	return memberEventResponse{
		ID:          ev.ID,
		Title:       ev.Title,
		Date:        ev.Date.Format(model.DateLayout),
		Time:        ev.Time,
		Location:    ev.Location,
		Description: ev.Description,
		Organizer:   ev.Organizer,
		CreatedAt:   ev.CreatedAt,
		CanDelete:   memberevent.CanDelete(viewer, ev),
	}
}
