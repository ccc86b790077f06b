package model

import (
	"testing"
	"time"
)

func TestRequestStatus_LabelAndTone(t *testing.T) {
	tests := []struct {
		status RequestStatus
		label  string
		tone   string
	}{
		{StatusPending, "Ожидает подтверждения", "warning"},
		{StatusConfirmed, "Подтверждено", "success"},
		{StatusCancelled, "Отменено", "danger"},
		{RequestStatus("archived"), "Неизвестно", "neutral"},
		{StatusNew, "Неизвестно", "neutral"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Label(); got != tt.label {
				t.Errorf("Label() = %q, want %q", got, tt.label)
			}
			if got := tt.status.Tone(); got != tt.tone {
				t.Errorf("Tone() = %q, want %q", got, tt.tone)
			}
		})
	}
}

func TestEquipmentRental_IsActive(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status RequestStatus
		end    time.Time
		want   bool
	}{
		{"確認済みで終了日が未来", StatusConfirmed, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), true},
		{"確認済みで終了日が今日", StatusConfirmed, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{"確認済みで終了日が過去", StatusConfirmed, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), false},
		{"確認待ちは対象外", StatusPending, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &EquipmentRental{Status: tt.status, EndDate: tt.end}
			if got := r.IsActive(now); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRentalType_Valid(t *testing.T) {
	if !RentalDaily.Valid() || !RentalWeekly.Valid() {
		t.Error("daily と weekly は有効であるべき")
	}
	if RentalType("monthly").Valid() {
		t.Error("monthly は無効であるべき")
	}
}

func TestAuthUser_SubmitterName(t *testing.T) {
	u := &AuthUser{ID: "u1", Email: "ivan@example.com", DisplayName: "Иван"}
	if got := u.SubmitterName(); got != "Иван" {
		t.Errorf("SubmitterName() = %q, want %q", got, "Иван")
	}

	u.DisplayName = ""
	if got := u.SubmitterName(); got != "ivan@example.com" {
		t.Errorf("SubmitterName() = %q, want email fallback", got)
	}
}

func TestAPIError_ErrorString(t *testing.T) {
	err := NewForbiddenError()
	want := "[FORBIDDEN] Вы можете изменять только свои записи."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewNotCancellableError_IncludesStatusLabel(t *testing.T) {
	err := NewNotCancellableError(StatusConfirmed)
	if err.Code != ErrCodeNotCancellable {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeNotCancellable)
	}
	if err.Message != "Заявку в статусе «Подтверждено» нельзя отменить." {
		t.Errorf("unexpected message: %q", err.Message)
	}
}
