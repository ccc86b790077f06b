package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/anglerclub/internal/contact"
	"github.com/hitoshi/anglerclub/internal/model"
)

func TestContactHandler_SendMessage(t *testing.T) {
	svc := &mockContactService{
		sendMessageFn: func(ctx context.Context, user *model.AuthUser, in contact.MessageInput) (*model.ContactMessage, error) {
			return &model.ContactMessage{ID: "m1", Subject: in.Subject, Message: in.Message, SenderID: user.ID, Status: model.StatusNew}, nil
		},
	}
	h := NewContactHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"subject":"Вопрос","message":"Когда сбор?"}`)), testUser)
	w := httptest.NewRecorder()
	h.SendMessage(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	resp := decodeBody(t, w)
	if resp["success_message"] != contact.MessageSuccessMessage {
		t.Errorf("success_message = %v", resp["success_message"])
	}
	if record := resp["record"].(map[string]any); record["status"] != "new" {
		t.Errorf("status = %v, want new", record["status"])
	}
}

func TestContactHandler_SendMessage_StoreFailure(t *testing.T) {
	svc := &mockContactService{
		sendMessageFn: func(ctx context.Context, user *model.AuthUser, in contact.MessageInput) (*model.ContactMessage, error) {
			return nil, errors.New("failed to create contact message: db down")
		},
	}
	h := NewContactHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(`{"subject":"a","message":"b"}`)), testUser)
	w := httptest.NewRecorder()
	h.SendMessage(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestContactHandler_RequestConsultation(t *testing.T) {
	svc := &mockContactService{
		requestConsultationFn: func(ctx context.Context, user *model.AuthUser, in contact.ConsultationInput) (*model.ConsultationRequest, error) {
			return &model.ConsultationRequest{
				ID:               "q1",
				ConsultationType: in.ConsultationType,
				PreferredDate:    time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
				PreferredTime:    in.PreferredTime,
				Topic:            in.Topic,
				Status:           model.StatusPending,
			}, nil
		},
	}
	h := NewContactHandler(svc)

	body := `{"consultation_type":"Выбор снаряжения","preferred_date":"2024-07-02","preferred_time":"10:00","topic":"Спиннинг","description":"Какой выбрать?"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/consultations", strings.NewReader(body)), testUser)
	w := httptest.NewRecorder()
	h.RequestConsultation(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	resp := decodeBody(t, w)
	if resp["success_message"] != contact.ConsultationSuccessMessage("2024-07-02", "10:00") {
		t.Errorf("success_message = %v", resp["success_message"])
	}
}
