package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	Latest(ctx context.Context, limit int) ([]*model.NewsItem, error)
}

// NewsHandler はクラブニュースのHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

type newsItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
}

// List は新しい順にニュースを返す。limitが数値でない場合は既定件数。
// GET /api/news?limit=
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.service.Latest(r.Context(), limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]newsItemResponse, len(items))
	for i, it := range items {
		resp[i] = newsItemResponse{
			ID:          it.ID,
			Title:       it.Title,
			Link:        it.Link,
			Summary:     it.Summary,
			PublishedAt: it.PublishedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": resp})
}
