package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
)

type stubNews struct {
	items []*model.NewsItem
	err   error
	limit int
}

func (s *stubNews) Latest(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	s.limit = limit
	return s.items, s.err
}

func newTestHandler(t *testing.T, news NewsLister) *Handler {
	t.Helper()
	h, err := NewHandler(news, nil)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return h
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHome_RendersAnchorsAndNews(t *testing.T) {
	news := &stubNews{items: []*model.NewsItem{{
		Title:       "Открытие сезона",
		Link:        "https://example.com/news/1",
		Summary:     "<p>Лёд сошёл</p>",
		PublishedAt: time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
	}}}
	h := newTestHandler(t, news)

	w := get(h.Home, "/")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	for _, anchor := range []string{`id="home"`, `id="about"`, `id="services"`, `id="gallery"`, `id="comments"`, `id="contact"`} {
		if !strings.Contains(body, anchor) {
			t.Errorf("home page missing %s", anchor)
		}
	}
	if !strings.Contains(body, "Открытие сезона") || !strings.Contains(body, "<p>Лёд сошёл</p>") {
		t.Error("home page should render news with sanitized summary HTML")
	}
	if !strings.Contains(body, "20.04.2024") {
		t.Error("news date should be formatted as dd.mm.yyyy")
	}
	if news.limit != homeNewsLimit {
		t.Errorf("limit = %d, want %d", news.limit, homeNewsLimit)
	}
}

func TestHome_NewsFailureHidesSection(t *testing.T) {
	h := newTestHandler(t, &stubNews{err: errors.New("db down")})

	w := get(h.Home, "/")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if strings.Contains(w.Body.String(), `id="news"`) {
		t.Error("news section should be omitted when loading fails")
	}
}

func TestEvents_ListsCatalog(t *testing.T) {
	h := newTestHandler(t, nil)

	body := get(h.Events, "/events").Body.String()

	if strings.Count(body, "data-event-id=") != 6 {
		t.Errorf("expected 6 official events, got %d", strings.Count(body, "data-event-id="))
	}
	if !strings.Contains(body, "/api/member-events/stream") {
		t.Error("events page should subscribe to member events")
	}
}

func TestTraining_ListsCourses(t *testing.T) {
	h := newTestHandler(t, nil)

	body := get(h.Training, "/training").Body.String()

	if strings.Count(body, "data-course-id=") != 6 {
		t.Errorf("expected 6 courses, got %d", strings.Count(body, "data-course-id="))
	}
}

func TestEquipment_CategoryFilter(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		target string
		want   int
	}{
		{"/equipment", 12},
		{"/equipment?category=all", 12},
		{"/equipment?category=reels", 2},
		{"/equipment?category=unknown", 12},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			body := get(h.Equipment, tt.target).Body.String()
			if got := strings.Count(body, "data-equipment-id="); got != tt.want {
				t.Errorf("items = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStatic_ServesScript(t *testing.T) {
	h := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	h.Static().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "EventSource") {
		t.Error("app.js should open live streams")
	}
	if !strings.Contains(body, "confirm(deletePrompts[kind])") {
		t.Error("app.js should ask before deleting events and cancelling requests")
	}
	if strings.Contains(body, `comment: "Удалить`) {
		t.Error("comment deletion should not prompt")
	}
	if !strings.Contains(body, "showRegistration(article)") {
		t.Error("app.js should switch to the registered view after signing up for an event")
	}
}
