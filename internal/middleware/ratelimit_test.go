package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
)

func testLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    2,
		SubmitRate:      1,
		SubmitBurst:     1,
		AuthRate:        1,
		AuthBurst:       1,
		CleanupInterval: time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(userID, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.RemoteAddr = remoteAddr
	if userID != "" {
		req = req.WithContext(ContextWithIdentity(req.Context(), &model.AuthUser{ID: userID}))
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGeneralMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	// バースト分（2回）は通る
	for i := 0; i < 2; i++ {
		if w := serve(handler, requestAs("user-1", "10.0.0.1:1234")); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := serve(handler, requestAs("user-1", "10.0.0.1:1234"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if _, err := strconv.Atoi(w.Header().Get("Retry-After")); err != nil {
		t.Errorf("Retry-After = %q, want integer", w.Header().Get("Retry-After"))
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode 429 body: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" || body.Category != "system" {
		t.Errorf("body = %+v", body)
	}
}

func TestGeneralMiddleware_IsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		serve(handler, requestAs("user-a", "10.0.0.1:1"))
	}
	if w := serve(handler, requestAs("user-b", "10.0.0.1:1")); w.Code != http.StatusOK {
		t.Errorf("user-b status = %d, want 200", w.Code)
	}
	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestGeneralMiddleware_AnonymousKeyedByIP(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()
	handler := rl.GeneralMiddleware()(okHandler())

	serve(handler, requestAs("", "192.0.2.1:1000"))
	serve(handler, requestAs("", "192.0.2.1:2000"))
	if w := serve(handler, requestAs("", "192.0.2.1:3000")); w.Code != http.StatusTooManyRequests {
		t.Errorf("same IP different port: status = %d, want 429", w.Code)
	}
	if w := serve(handler, requestAs("", "192.0.2.2:1000")); w.Code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", w.Code)
	}
}

func TestSubmitMiddleware_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()
	submit := rl.SubmitMiddleware()(okHandler())
	general := rl.GeneralMiddleware()(okHandler())

	if w := serve(submit, requestAs("u1", "10.0.0.1:1")); w.Code != http.StatusOK {
		t.Fatalf("first submit status = %d", w.Code)
	}
	if w := serve(submit, requestAs("u1", "10.0.0.1:1")); w.Code != http.StatusTooManyRequests {
		t.Errorf("second submit status = %d, want 429", w.Code)
	}
	if w := serve(general, requestAs("u1", "10.0.0.1:1")); w.Code != http.StatusOK {
		t.Errorf("general should be unaffected, status = %d", w.Code)
	}
}

func TestAuthMiddleware_KeyedByIPEvenWhenLoggedIn(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	defer rl.Stop()
	handler := rl.AuthMiddleware()(okHandler())

	serve(handler, requestAs("u1", "198.51.100.7:1"))
	if w := serve(handler, requestAs("u2", "198.51.100.7:2")); w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 for same IP", w.Code)
	}
	if rl.AuthLimiterCount() != 1 {
		t.Errorf("AuthLimiterCount = %d, want 1", rl.AuthLimiterCount())
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testLimiterConfig()
	cfg.CleanupInterval = time.Hour
	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	serve(rl.GeneralMiddleware()(okHandler()), requestAs("u1", "10.0.0.1:1"))
	serve(rl.SubmitMiddleware()(okHandler()), requestAs("u1", "10.0.0.1:1"))

	// 最終アクセス時刻を過去にずらす
	for _, set := range []*limiterSet{rl.general, rl.submit} {
		set.mu.Lock()
		for _, kl := range set.limiters {
			kl.lastAccess = time.Now().Add(-3 * time.Hour)
		}
		set.mu.Unlock()
	}

	rl.cleanup()

	if rl.GeneralLimiterCount() != 0 || rl.SubmitLimiterCount() != 0 {
		t.Errorf("counts after cleanup = %d/%d, want 0/0", rl.GeneralLimiterCount(), rl.SubmitLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	if cfg.GeneralBurst != 120 || cfg.SubmitBurst != 20 || cfg.AuthBurst != 10 {
		t.Errorf("bursts = %d/%d/%d, want 120/20/10", cfg.GeneralBurst, cfg.SubmitBurst, cfg.AuthBurst)
	}
	if cfg.GeneralRate != 2 {
		t.Errorf("GeneralRate = %v, want 2 req/sec", cfg.GeneralRate)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v", cfg.CleanupInterval)
	}
}
