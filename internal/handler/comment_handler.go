package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/anglerclub/internal/comment"
	"github.com/hitoshi/anglerclub/internal/live"
	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
)

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Create(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error)
	// List は著者名を補完済みのコメントを新しい順に返す。
	List(ctx context.Context) ([]*model.Comment, error)
	Delete(ctx context.Context, user *model.AuthUser, id string) error
}

// CommentHandler はトップページのコメント欄のHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
	streamer
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface, sub live.Subscriber, recorder metrics.StreamRecorder) *CommentHandler {
	return &CommentHandler{service: service, streamer: newStreamer(sub, recorder)}
}

type createCommentRequest struct {
	Text string `json:"text"`
}

type commentResponse struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	CanDelete  bool      `json:"can_delete"`
}

// Create はコメントを投稿する。
// POST /api/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := middleware.IdentityFromContext(r.Context())
	c, err := h.service.Create(r.Context(), user, req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created[commentResponse]{Record: toCommentResponse(c, user)})
}

// List はコメント一覧のスナップショットを返す。
// GET /api/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshot(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Stream はコメント一覧をSSEで配信する。
// GET /api/comments/stream
func (h *CommentHandler) Stream(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.IdentityFromContext(r.Context())
	serveStream(h.streamer, w, r, comment.Collection, func(ctx context.Context) (snapshot[commentResponse], error) {
		return h.snapshot(ctx, viewer)
	})
}

// Delete は自分のコメントを削除する。
// DELETE /api/comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CommentHandler) snapshot(ctx context.Context, viewer *model.AuthUser) (snapshot[commentResponse], error) {
	comments, err := h.service.List(ctx)
	if err != nil {
		return snapshot[commentResponse]{}, err
	}
	items := make([]commentResponse, len(comments))
	for i, c := range comments {
		items[i] = toCommentResponse(c, viewer)
	}
	return newSnapshot(items, comment.EmptyMessage), nil
}

func toCommentResponse(c *model.Comment, viewer *model.AuthUser) commentResponse {
	return commentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		CreatedAt:  c.CreatedAt,
		CanDelete:  comment.CanDelete(viewer, c),
	}
}
