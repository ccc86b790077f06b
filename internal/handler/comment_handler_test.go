package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/anglerclub/internal/comment"
	"github.com/hitoshi/anglerclub/internal/model"
)

func sampleComments() []*model.Comment {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return []*model.Comment{
		{ID: "c2", Text: "Отличный клёв", AuthorName: "Иван", AuthorID: "user-1", CreatedAt: now},
		{ID: "c1", Text: "Привет", AuthorName: "Пётр", AuthorID: "user-2", CreatedAt: now.Add(-time.Hour)},
	}
}

func TestCommentHandler_Create_Success(t *testing.T) {
	svc := &mockCommentService{
		createFn: func(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error) {
			if user == nil || user.ID != "user-1" {
				t.Errorf("user = %+v, want user-1", user)
			}
			return &model.Comment{ID: "c1", Text: text, AuthorName: "Иван", AuthorID: "user-1"}, nil
		},
	}
	h := NewCommentHandler(svc, newFakeSubscriber(), nil)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader(`{"text":"Привет"}`)), testUser)
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	record, _ := decodeBody(t, w)["record"].(map[string]any)
	if record["text"] != "Привет" || record["can_delete"] != true {
		t.Errorf("record = %v", record)
	}
}

func TestCommentHandler_Create_Unauthenticated(t *testing.T) {
	svc := &mockCommentService{
		createFn: func(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error) {
			return nil, model.NewUnauthorizedError()
		},
	}
	h := NewCommentHandler(svc, newFakeSubscriber(), nil)

	w := httptest.NewRecorder()
	h.Create(w, httptest.NewRequest(http.MethodPost, "/api/comments", strings.NewReader(`{"text":"x"}`)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCommentHandler_List_CanDeleteIsPerViewer(t *testing.T) {
	svc := &mockCommentService{
		listFn: func(ctx context.Context) ([]*model.Comment, error) { return sampleComments(), nil },
	}
	h := NewCommentHandler(svc, newFakeSubscriber(), nil)

	w := httptest.NewRecorder()
	h.List(w, withUser(httptest.NewRequest(http.MethodGet, "/api/comments", nil), testUser))

	body := decodeBody(t, w)
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	if _, ok := body["empty_message"]; ok {
		t.Error("empty_message should be omitted for non-empty list")
	}
	items := body["items"].([]any)
	first := items[0].(map[string]any)
	second := items[1].(map[string]any)
	if first["can_delete"] != true || second["can_delete"] != false {
		t.Errorf("can_delete = %v/%v, want true/false", first["can_delete"], second["can_delete"])
	}
}

func TestCommentHandler_List_Empty(t *testing.T) {
	h := NewCommentHandler(&mockCommentService{}, newFakeSubscriber(), nil)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/api/comments", nil))

	body := decodeBody(t, w)
	if body["empty_message"] != comment.EmptyMessage {
		t.Errorf("empty_message = %v, want %q", body["empty_message"], comment.EmptyMessage)
	}
	if items, ok := body["items"].([]any); !ok || len(items) != 0 {
		t.Errorf("items = %v, want []", body["items"])
	}
}

func TestCommentHandler_Delete(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"owner", nil, http.StatusNoContent},
		{"not owner", model.NewForbiddenError(), http.StatusForbidden},
		{"missing", model.NewRecordNotFoundError("c9"), http.StatusNotFound},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &mockCommentService{
				deleteFn: func(ctx context.Context, user *model.AuthUser, id string) error {
					gotID = id
					return tt.err
				},
			}
			h := NewCommentHandler(svc, newFakeSubscriber(), nil)

			req := httptest.NewRequest(http.MethodDelete, "/api/comments/c9", nil)
			req = withChiURLParam(withUser(req, testUser), "id", "c9")
			w := httptest.NewRecorder()
			h.Delete(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if gotID != "c9" {
				t.Errorf("id = %q, want c9", gotID)
			}
		})
	}
}

func TestCommentHandler_Stream_SendsSnapshotPerChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := newFakeSubscriber()
	calls := 0
	svc := &mockCommentService{
		listFn: func(context.Context) ([]*model.Comment, error) {
			calls++
			switch calls {
			case 1:
				// 変更シグナルを1回送る
				sub.channels[comment.Collection] <- struct{}{}
				return nil, nil
			default:
				cancel()
				return sampleComments(), nil
			}
		},
	}
	h := NewCommentHandler(svc, sub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/comments/stream", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	h.Stream(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	body := w.Body.String()
	if n := strings.Count(body, "event: snapshot\n"); n != 2 {
		t.Fatalf("snapshot events = %d, want 2\n%s", n, body)
	}
	if !strings.Contains(body, comment.EmptyMessage) {
		t.Error("first snapshot should carry the empty message")
	}
	if !strings.Contains(body, "Отличный клёв") {
		t.Error("second snapshot should carry the comments")
	}
	if got := sub.releasedCollections(); len(got) != 1 || got[0] != comment.Collection {
		t.Errorf("released = %v, want [%s]", got, comment.Collection)
	}
}

func TestCommentHandler_Stream_QueryErrorBeforeStart(t *testing.T) {
	svc := &mockCommentService{
		listFn: func(context.Context) ([]*model.Comment, error) { return nil, errors.New("db down") },
	}
	h := NewCommentHandler(svc, newFakeSubscriber(), nil)

	w := httptest.NewRecorder()
	h.Stream(w, httptest.NewRequest(http.MethodGet, "/api/comments/stream", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeStoreUnavailable {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeStoreUnavailable)
	}
}

func TestCommentHandler_Stream_QueryErrorAfterStart(t *testing.T) {
	sub := newFakeSubscriber()
	calls := 0
	svc := &mockCommentService{
		listFn: func(context.Context) ([]*model.Comment, error) {
			calls++
			if calls == 1 {
				sub.channels[comment.Collection] <- struct{}{}
				return sampleComments(), nil
			}
			return nil, errors.New("db down")
		},
	}
	h := NewCommentHandler(svc, sub, nil)

	w := httptest.NewRecorder()
	h.Stream(w, httptest.NewRequest(http.MethodGet, "/api/comments/stream", nil))

	body := w.Body.String()
	if !strings.Contains(body, "event: snapshot\n") || !strings.Contains(body, "event: error\n") {
		t.Errorf("expected snapshot then error event, got:\n%s", body)
	}
	if !strings.Contains(body, model.ErrCodeStoreUnavailable) {
		t.Errorf("error event should carry %s", model.ErrCodeStoreUnavailable)
	}
}
