package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/anglerclub/internal/model"
)

func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusConflict, model.NewAlreadyRegisteredError())

	resp := w.Result()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	want := model.NewAlreadyRegisteredError()
	if body.Code != want.Code || body.Message != want.Message || body.Category != want.Category || body.Action != want.Action {
		t.Errorf("body = %+v, want %+v", body, want)
	}
}

func TestWriteInternalServerError_ReturnsStoreUnavailable(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Code != model.ErrCodeStoreUnavailable {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeStoreUnavailable)
	}
	if body.Message != "Не удалось сохранить данные. Попробуйте снова." {
		t.Errorf("message = %q", body.Message)
	}
	if body.Category != "system" {
		t.Errorf("category = %q, want system", body.Category)
	}
}

func TestErrorResponseBody_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()
	WriteErrorResponse(w, http.StatusBadRequest, model.NewRequiredFieldError("Комментарий"))

	var raw map[string]any
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	for _, key := range []string{"code", "message", "category", "action"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing field %q", key)
		}
	}
}
