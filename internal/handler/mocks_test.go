package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/anglerclub/internal/auth"
	"github.com/hitoshi/anglerclub/internal/contact"
	"github.com/hitoshi/anglerclub/internal/memberevent"
	"github.com/hitoshi/anglerclub/internal/middleware"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/rental"
	"github.com/hitoshi/anglerclub/internal/training"
)

// --- モック定義 ---

type mockAuthService struct {
	signUpFn  func(ctx context.Context, in auth.SignUpInput) (*model.Session, *model.AuthUser, error)
	signInFn  func(ctx context.Context, email, password string) (*model.Session, *model.AuthUser, error)
	signOutFn func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) SignUp(ctx context.Context, in auth.SignUpInput) (*model.Session, *model.AuthUser, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, in)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*model.Session, *model.AuthUser, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, nil, nil
}

func (m *mockAuthService) SignOut(ctx context.Context, sessionID string) error {
	if m.signOutFn != nil {
		return m.signOutFn(ctx, sessionID)
	}
	return nil
}

type mockCommentService struct {
	createFn func(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error)
	listFn   func(ctx context.Context) ([]*model.Comment, error)
	deleteFn func(ctx context.Context, user *model.AuthUser, id string) error
}

func (m *mockCommentService) Create(ctx context.Context, user *model.AuthUser, text string) (*model.Comment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user, text)
	}
	return nil, nil
}

func (m *mockCommentService) List(ctx context.Context) ([]*model.Comment, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCommentService) Delete(ctx context.Context, user *model.AuthUser, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, user, id)
	}
	return nil
}

type mockMemberEventService struct {
	createFn func(ctx context.Context, user *model.AuthUser, in memberevent.Input) (*model.MemberEvent, error)
	listFn   func(ctx context.Context) ([]*model.MemberEvent, error)
	deleteFn func(ctx context.Context, user *model.AuthUser, id string) error
}

func (m *mockMemberEventService) Create(ctx context.Context, user *model.AuthUser, in memberevent.Input) (*model.MemberEvent, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user, in)
	}
	return nil, nil
}

func (m *mockMemberEventService) List(ctx context.Context) ([]*model.MemberEvent, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockMemberEventService) Delete(ctx context.Context, user *model.AuthUser, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, user, id)
	}
	return nil
}

type mockRegistrationService struct {
	isRegisteredFn func(ctx context.Context, user *model.AuthUser, eventID string) (bool, error)
	registerFn     func(ctx context.Context, user *model.AuthUser, eventID string, participants int) (*model.EventRegistration, error)
	listByUserFn   func(ctx context.Context, user *model.AuthUser) ([]*model.EventRegistration, error)
	deleteFn       func(ctx context.Context, user *model.AuthUser, id string) error
}

func (m *mockRegistrationService) IsRegistered(ctx context.Context, user *model.AuthUser, eventID string) (bool, error) {
	if m.isRegisteredFn != nil {
		return m.isRegisteredFn(ctx, user, eventID)
	}
	return false, nil
}

func (m *mockRegistrationService) Register(ctx context.Context, user *model.AuthUser, eventID string, participants int) (*model.EventRegistration, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, user, eventID, participants)
	}
	return nil, nil
}

func (m *mockRegistrationService) ListByUser(ctx context.Context, user *model.AuthUser) ([]*model.EventRegistration, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, user)
	}
	return nil, nil
}

func (m *mockRegistrationService) Delete(ctx context.Context, user *model.AuthUser, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, user, id)
	}
	return nil
}

type mockRentalService struct {
	submitFn       func(ctx context.Context, user *model.AuthUser, in rental.Input) (*model.EquipmentRental, error)
	listByClientFn func(ctx context.Context, user *model.AuthUser) ([]*model.EquipmentRental, error)
	cancelFn       func(ctx context.Context, user *model.AuthUser, id string) error
}

func (m *mockRentalService) Submit(ctx context.Context, user *model.AuthUser, in rental.Input) (*model.EquipmentRental, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, user, in)
	}
	return nil, nil
}

func (m *mockRentalService) ListByClient(ctx context.Context, user *model.AuthUser) ([]*model.EquipmentRental, error) {
	if m.listByClientFn != nil {
		return m.listByClientFn(ctx, user)
	}
	return nil, nil
}

func (m *mockRentalService) Cancel(ctx context.Context, user *model.AuthUser, id string) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, user, id)
	}
	return nil
}

type mockTrainingService struct {
	applyFn        func(ctx context.Context, user *model.AuthUser, in training.Input) (*model.TrainingApplication, error)
	listByClientFn func(ctx context.Context, user *model.AuthUser) ([]*model.TrainingApplication, error)
	cancelFn       func(ctx context.Context, user *model.AuthUser, id string) error
}

func (m *mockTrainingService) Apply(ctx context.Context, user *model.AuthUser, in training.Input) (*model.TrainingApplication, error) {
	if m.applyFn != nil {
		return m.applyFn(ctx, user, in)
	}
	return nil, nil
}

func (m *mockTrainingService) ListByClient(ctx context.Context, user *model.AuthUser) ([]*model.TrainingApplication, error) {
	if m.listByClientFn != nil {
		return m.listByClientFn(ctx, user)
	}
	return nil, nil
}

func (m *mockTrainingService) Cancel(ctx context.Context, user *model.AuthUser, id string) error {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, user, id)
	}
	return nil
}

type mockContactService struct {
	sendMessageFn         func(ctx context.Context, user *model.AuthUser, in contact.MessageInput) (*model.ContactMessage, error)
	requestConsultationFn func(ctx context.Context, user *model.AuthUser, in contact.ConsultationInput) (*model.ConsultationRequest, error)
}

func (m *mockContactService) SendMessage(ctx context.Context, user *model.AuthUser, in contact.MessageInput) (*model.ContactMessage, error) {
	if m.sendMessageFn != nil {
		return m.sendMessageFn(ctx, user, in)
	}
	return nil, nil
}

func (m *mockContactService) RequestConsultation(ctx context.Context, user *model.AuthUser, in contact.ConsultationInput) (*model.ConsultationRequest, error) {
	if m.requestConsultationFn != nil {
		return m.requestConsultationFn(ctx, user, in)
	}
	return nil, nil
}

type mockNewsService struct {
	latestFn func(ctx context.Context, limit int) ([]*model.NewsItem, error)
}

func (m *mockNewsService) Latest(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, limit)
	}
	return nil, nil
}

// fakeSubscriber は購読を記録し、テストから変更シグナルを送れるSubscriber。
type fakeSubscriber struct {
	mu       sync.Mutex
	channels map[string]chan struct{}
	released []string
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{channels: make(map[string]chan struct{})}
}

func (f *fakeSubscriber) Subscribe(collection string) (<-chan struct{}, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{}, 1)
	f.channels[collection] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released = append(f.released, collection)
	}
}

func (f *fakeSubscriber) releasedCollections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.released...)
}

// --- テストヘルパー ---

var testUser = &model.AuthUser{ID: "user-1", Email: "ivan@example.com", DisplayName: "Иван"}

// withUser はテスト用にリクエストコンテキストに現在のユーザーを注入するヘルパー。
func withUser(r *http.Request, user *model.AuthUser) *http.Request {
	return r.WithContext(middleware.ContextWithIdentity(r.Context(), user))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// decodeBody はレスポンスボディをmapにデコードするヘルパー。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}
