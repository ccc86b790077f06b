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
	"github.com/hitoshi/anglerclub/internal/training"
)

// TrainingServiceInterface は講習申し込みハンドラーが必要とするサービスインターフェース。
type TrainingServiceInterface interface {
	Apply(ctx context.Context, user *model.AuthUser, in training.Input) (*model.TrainingApplication, error)
	ListByClient(ctx context.Context, user *model.AuthUser) ([]*model.TrainingApplication, error)
	Cancel(ctx context.Context, user *model.AuthUser, id string) error
}

// TrainingHandler は講習申し込みのHTTPハンドラー。
type TrainingHandler struct {
	service TrainingServiceInterface
	streamer
}

// NewTrainingHandler はTrainingHandlerを生成する。
func NewTrainingHandler(service TrainingServiceInterface, sub live.Subscriber, recorder metrics.StreamRecorder) *TrainingHandler {
	return &TrainingHandler{service: service, streamer: newStreamer(sub, recorder)}
}

type applicationResponse struct {
	ID             string    `json:"id"`
	CourseID       string    `json:"course_id"`
	CourseName     string    `json:"course_name"`
	CoursePrice    string    `json:"course_price"`
	CourseDuration string    `json:"course_duration"`
	PreferredDate  string    `json:"preferred_date"`
	Participants   int       `json:"participants"`
	Experience     string    `json:"experience"`
	Goals          string    `json:"goals"`
	Notes          string    `json:"notes"`
	Status         string    `json:"status"`
	StatusLabel    string    `json:"status_label"`
	StatusTone     string    `json:"status_tone"`
	AppliedAt      time.Time `json:"applied_at"`
	CanDelete      bool      `json:"can_delete"`
	CanCancel      bool      `json:"can_cancel"`
}

// Apply は講習に申し込む。
// POST /api/applications
func (h *TrainingHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var in training.Input
	if !decodeJSON(w, r, &in) {
		return
	}

	user := middleware.IdentityFromContext(r.Context())
	app, err := h.service.Apply(r.Context(), user, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created[applicationResponse]{
		Record:         toApplicationResponse(app, user),
		SuccessMessage: training.SuccessMessage(app.CourseName),
	})
}

// List は自分の講習申し込み一覧のスナップショットを返す。
// GET /api/me/applications
func (h *TrainingHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stream は自分の講習申し込み一覧をSSEで配信する。
// GET /api/me/applications/stream
func (h *TrainingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.IdentityFromContext(r.Context())
	serveStream(h.streamer, w, r, training.Collection, func(ctx context.Context) (snapshot[applicationResponse], error) {
		return h.snapshot(ctx, viewer)
	})
}

// Cancel は確認待ちの講習申し込みを取り消す。
// DELETE /api/me/applications/{id}
func (h *TrainingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrainingHandler) snapshot(ctx context.Context, viewer *model.AuthUser) (snapshot[applicationResponse], error) {
	apps, err := h.service.ListByClient(ctx, viewer)
	if err != nil {
		return snapshot[applicationResponse]{}, err
	}
	items := make([]applicationResponse, len(apps))
	for i, app := range apps {
		items[i] = toApplicationResponse(app, viewer)
	}
	return newSnapshot(items, training.EmptyMessage), nil
}

func toApplicationResponse(app *model.TrainingApplication, viewer *model.AuthUser) applicationResponse {
	return applicationResponse{
		ID:             app.ID,
		CourseID:       app.CourseID,
		CourseName:     app.CourseName,
		CoursePrice:    app.CoursePrice,
		CourseDuration: app.CourseDuration,
		PreferredDate:  app.PreferredDate.Format(model.DateLayout),
		Participants:   app.Participants,
		Experience:     app.Experience,
		Goals:          app.Goals,
		Notes:          app.Notes,
		Status:         string(app.Status),
		StatusLabel:    app.Status.Label(),
		StatusTone:     app.Status.Tone(),
		AppliedAt:      app.AppliedAt,
		CanDelete:      viewer != nil && viewer.ID == app.ClientID,
		CanCancel:      training.CanCancel(viewer, app),
	}
}
