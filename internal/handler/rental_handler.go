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
	"github.com/hitoshi/anglerclub/internal/rental"
)

// RentalServiceInterface は機材レンタルハンドラーが必要とするサービスインターフェース。
type RentalServiceInterface interface {
	Submit(ctx context.Context, user *model.AuthUser, in rental.Input) (*model.EquipmentRental, error)
	ListByClient(ctx context.Context, user *model.AuthUser) ([]*model.EquipmentRental, error)
	Cancel(ctx context.Context, user *model.AuthUser, id string) error
}

// RentalHandler は機材レンタルリクエストのHTTPハンドラー。
type RentalHandler struct {
	service RentalServiceInterface
	streamer
	now func() time.Time
}

// NewRentalHandler はRentalHandlerを生成する。
func NewRentalHandler(service RentalServiceInterface, sub live.Subscriber, recorder metrics.StreamRecorder) *RentalHandler {
	return &RentalHandler{service: service, streamer: newStreamer(sub, recorder), now: time.Now}
}

type rentalResponse struct {
	ID            string    `json:"id"`
	EquipmentID   string    `json:"equipment_id"`
	EquipmentName string    `json:"equipment_name"`
	RentalType    string    `json:"rental_type"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Quantity      int       `json:"quantity"`
	Notes         string    `json:"notes"`
	TotalPrice    string    `json:"total_price"`
	Status        string    `json:"status"`
	StatusLabel   string    `json:"status_label"`
	StatusTone    string    `json:"status_tone"`
	Active        bool      `json:"active"`
	RequestedAt   time.Time `json:"requested_at"`
	CanDelete     bool      `json:"can_delete"`
	CanCancel     bool      `json:"can_cancel"`
}

// Submit はレンタルリクエストを送信する。
// POST /api/rentals
func (h *RentalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in rental.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	user := middleware.IdentityFromContext(r.Context())
	req, err := h.service.Submit(r.Context(), user, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created[rentalResponse]{
		Record:         h.toResponse(req, user),
		SuccessMessage: rental.SuccessMessage,
	})
}

// List は自分のレンタルリクエスト一覧のスナップショットを返す。
// GET /api/me/rentals
func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stream は自分のレンタルリクエスト一覧をSSEで配信する。
// GET /api/me/rentals/stream
func (h *RentalHandler) Stream(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.IdentityFromContext(r.Context())
	serveStream(h.streamer, w, r, rental.Collection, func(ctx context.Context) (snapshot[rentalResponse], error) {
		return h.snapshot(ctx, viewer)
	})
}

// Cancel は確認待ちのレンタルリクエストを取り消す。
// DELETE /api/me/rentals/{id}
func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RentalHandler) snapshot(ctx context.Context, viewer *model.AuthUser) (snapshot[rentalResponse], error) {
	rentals, err := h.service.ListByClient(ctx, viewer)
	if err != nil {
		return snapshot[rentalResponse]{}, err
	}
	items := make([]rentalResponse, len(rentals))
	for i, req := range rentals {
		items[i] = h.toResponse(req, viewer)
	}
	return newSnapshot(items, rental.EmptyMessage), nil
}

func (h *RentalHandler) toResponse(req *model.EquipmentRental, viewer *model.AuthUser) rentalResponse {
	return rentalResponse{
		ID:            req.ID,
		EquipmentID:   req.EquipmentID,
		EquipmentName: req.EquipmentName,
		RentalType:    string(req.RentalType),
		StartDate:     req.StartDate.Format(model.DateLayout),
		EndDate:       req.EndDate.Format(model.DateLayout),
		Quantity:      req.Quantity,
		Notes:         req.Notes,
		TotalPrice:    req.TotalPrice,
		Status:        string(req.Status),
		StatusLabel:   req.Status.Label(),
		StatusTone:    req.Status.Tone(),
		Active:        req.IsActive(h.now()),
		RequestedAt:   req.RequestedAt,
		CanDelete:     viewer != nil && viewer.ID == req.ClientID,
		CanCancel:     rental.CanCancel(viewer, req),
	}
}
