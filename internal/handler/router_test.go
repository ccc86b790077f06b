package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
)

type stubResolver struct {
	users map[string]*model.AuthUser
}

func (s stubResolver) CurrentUser(ctx context.Context, sessionID string) (*model.AuthUser, error) {
	return s.users[sessionID], nil
}

type stubPages struct{}

func (stubPages) Home(w http.ResponseWriter, r *http.Request)      { w.Write([]byte("home")) }
func (stubPages) Events(w http.ResponseWriter, r *http.Request)    { w.Write([]byte("events")) }
func (stubPages) Training(w http.ResponseWriter, r *http.Request)  { w.Write([]byte("training")) }
func (stubPages) Equipment(w http.ResponseWriter, r *http.Request) { w.Write([]byte("equipment")) }
func (stubPages) Static() http.Handler                             { return http.NotFoundHandler() }

func newTestRouter(t *testing.T, comments CommentServiceInterface) http.Handler {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		IdentityResolver:    stubResolver{users: map[string]*model.AuthUser{"sess-1": testUser}},
		CORSAllowedOrigin:   "http://localhost:8080",
		RateLimiter:         rl,
		HealthChecker:       pingFunc(func(context.Context) error { return nil }),
		Subscriber:          newFakeSubscriber(),
		AuthService:         &mockAuthService{},
		CommentService:      comments,
		MemberEventService:  &mockMemberEventService{},
		RegistrationService: &mockRegistrationService{},
		RentalService:       &mockRentalService{},
		TrainingService:     &mockTrainingService{},
		ContactService:      &mockContactService{},
		NewsService:         &mockNewsService{},
		Pages:               stubPages{},
	})
}

// signedIn はセッションCookieとCSRFトークンを付与する。
func signedIn(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess-1"})
	r.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: "token-1"})
	r.Header.Set(middleware.CSRFHeaderName, "token-1")
	return r
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, &mockCommentService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("GET /health status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_Pages(t *testing.T) {
	router := newTestRouter(t, &mockCommentService{})

	for _, path := range []string{"/", "/events", "/training", "/equipment?category=reels"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusOK)
		}
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("GET %s missing security headers", path)
		}
	}
}

func TestRouter_PublicListIsReadableAnonymously(t *testing.T) {
	router := newTestRouter(t, &mockCommentService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/comments", nil))

	if w.Code != http.StatusOK {
		t.Errorf("GET /api/comments status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_ProfileTabsRequireIdentity(t *testing.T) {
	router := newTestRouter(t, &mockCommentService{})

	for _, path := range []string{"/api/me/registrations", "/api/me/rentals", "/api/me/applications/stream"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestRouter_WriteWithoutCSRFTokenIsRejected(t *testing.T) {
	called := false
	router := newTestRouter(t, &mockCommentService{
		createFn: func(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error) {
			called = true
			return &model.Comment{ID: "c1"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader(`{"text":"x"}`))
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "sess-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if called {
		t.Error("service must not be called when CSRF validation fails")
	}
}

func TestRouter_CreateCommentAsSignedInUser(t *testing.T) {
	var gotUser *model.AuthUser
	router := newTestRouter(t, &mockCommentService{
		createFn: func(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error) {
			gotUser = user
			return &model.Comment{ID: "c1", Text: text, AuthorID: user.ID}, nil
		},
	})

	req := signedIn(httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader(`{"text":"Привет"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body.String())
	}
	if gotUser == nil || gotUser.ID != testUser.ID {
		t.Errorf("user = %+v, want %s", gotUser, testUser.ID)
	}
}

func TestRouter_AuthMeIsNeverUnauthorized(t *testing.T) {
	router := newTestRouter(t, &mockCommentService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if w.Code != http.StatusOK {
		t.Errorf("GET /auth/me status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_CatalogQuoteRoute(t *testing.T) {
	router := newTestRouter(t, &mockCommentService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog/equipment/1/quote?rental_type=weekly&quantity=2", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if body := decodeBody(t, w); body["equipment_id"] != "1" {
		t.Errorf("equipment_id = %v, want 1", body["equipment_id"])
	}
}
