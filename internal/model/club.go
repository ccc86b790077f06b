// Package model はドメインモデルを定義する。
package model

import "time"

// DateLayout はフォームから受け取る日付の書式。
const DateLayout = "2006-01-02"

// RequestStatus は会員リクエストの処理状態を表す。
// 状態遷移はクラブ側の手作業で行われ、このサービスは初期値のみを設定する。
type RequestStatus string

const (
	// StatusPending は確認待ち。
	StatusPending RequestStatus = "pending"
	// StatusConfirmed は確認済み。
	StatusConfirmed RequestStatus = "confirmed"
	// StatusCancelled は取消済み。
	StatusCancelled RequestStatus = "cancelled"
	// StatusNew は未読の問い合わせ。
	StatusNew RequestStatus = "new"
)

// Label は状態の表示名を返す。
func (s RequestStatus) Label() string {
	switch s {
	case StatusPending:
		return "Ожидает подтверждения"
	case StatusConfirmed:
		return "Подтверждено"
	case StatusCancelled:
		return "Отменено"
	default:
		return "Неизвестно"
	}
}

// Tone は状態バッジの配色区分を返す。
func (s RequestStatus) Tone() string {
	switch s {
	case StatusPending:
		return "warning"
	case StatusConfirmed:
		return "success"
	case StatusCancelled:
		return "danger"
	default:
		return "neutral"
	}
}

// Comment はトップページのコメントを表す。
type Comment struct {
	ID         string
	Text       string
	AuthorName string
	AuthorID   string
	CreatedAt  time.Time
}

// MemberEvent は会員が作成したイベントを表す。
type MemberEvent struct {
	ID          string
	Title       string
	Date        time.Time
	Time        string
	Location    string
	Description string
	Organizer   string
	OrganizerID string
	CreatedAt   time.Time
}

// EventRegistration は公式イベントへの参加登録を表す。
// イベント情報は登録時点のカタログから複製して保持する。
type EventRegistration struct {
	ID            string
	EventID       string
	EventTitle    string
	EventDate     string
	EventLocation string
	Participants  int
	UserID        string
	UserName      string
	UserEmail     string
	RegisteredAt  time.Time
}

// RentalType はレンタル期間の単位。
type RentalType string

const (
	// RentalDaily は日単位のレンタル。
	RentalDaily RentalType = "daily"
	// RentalWeekly は週単位のレンタル。
	RentalWeekly RentalType = "weekly"
)

// Valid はレンタル種別が既知の値かどうかを返す。
func (t RentalType) Valid() bool {
	return t == RentalDaily || t == RentalWeekly
}

// EquipmentRental は機材レンタルのリクエストを表す。
type EquipmentRental struct {
	ID            string
	EquipmentID   string
	EquipmentName string
	RentalType    RentalType
	StartDate     time.Time
	EndDate       time.Time
	Quantity      int
	Notes         string
	TotalPrice    string
	Status        RequestStatus
	ClientID      string
	ClientName    string
	ClientEmail   string
	RequestedAt   time.Time
}

// IsActive は確認済みかつ終了日が今日以降のレンタルかどうかを返す。
func (r *EquipmentRental) IsActive(now time.Time) bool {
	if r.Status != StatusConfirmed {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(r.EndDate.Year(), r.EndDate.Month(), r.EndDate.Day(), 0, 0, 0, 0, time.UTC)
	return !end.Before(today)
}

// TrainingApplication は講習への申し込みを表す。
type TrainingApplication struct {
	ID             string
	CourseID       string
	CourseName     string
	CoursePrice    string
	CourseDuration string
	PreferredDate  time.Time
	Participants   int
	Experience     string
	Goals          string
	Notes          string
	Status         RequestStatus
	ClientID       string
	ClientName     string
	ClientEmail    string
	AppliedAt      time.Time
}

// ContactMessage は問い合わせメッセージを表す。
type ContactMessage struct {
	ID          string
	Subject     string
	Message     string
	SenderID    string
	SenderName  string
	SenderEmail string
	Status      RequestStatus
	SentAt      time.Time
}

// ConsultationRequest は個別相談のリクエストを表す。
type ConsultationRequest struct {
	ID               string
	ConsultationType string
	PreferredDate    time.Time
	PreferredTime    string
	Topic            string
	Description      string
	Status           RequestStatus
	ClientID         string
	ClientName       string
	ClientEmail      string
	RequestedAt      time.Time
}
