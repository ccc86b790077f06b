package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresInboxRepo はクラブ宛ての問い合わせと相談リクエストを保存するリポジトリ。
// どちらも書き込み専用で、閲覧はクラブ側の管理ツールで行う。
type PostgresInboxRepo struct {
	db *sql.DB
}

// NewPostgresInboxRepo はPostgresInboxRepoを生成する。
func NewPostgresInboxRepo(db *sql.DB) *PostgresInboxRepo {
	return &PostgresInboxRepo{db: db}
}

// Create は問い合わせメッセージを作成する。
func (r *PostgresInboxRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contact_messages (id, subject, message, sender_id, sender_name, sender_email, status, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.Subject, msg.Message, msg.SenderID, msg.SenderName, msg.SenderEmail, msg.Status, msg.SentAt,
	)
	if err != nil {
		return wrapInsertError("contact message", err)
	}
	return nil
}

// Consultations は相談リクエスト用のリポジトリビューを返す。
func (r *PostgresInboxRepo) Consultations() *PostgresConsultationRepo {
	return &PostgresConsultationRepo{db: r.db}
}

// PostgresConsultationRepo は相談リクエストを保存するリポジトリ。
type PostgresConsultationRepo struct {
	db *sql.DB
}

// Create は相談リクエストを作成する。
func (r *PostgresConsultationRepo) Create(ctx context.Context, req *model.ConsultationRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO consultation_requests (id, consultation_type, preferred_date, preferred_time, topic,
		     description, status, client_id, client_name, client_email, requested_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.ConsultationType, req.PreferredDate, req.PreferredTime, req.Topic,
		req.Description, req.Status, req.ClientID, req.ClientName, req.ClientEmail, req.RequestedAt,
	)
	if err != nil {
		return wrapInsertError("consultation request", err)
	}
	return nil
}

// compile-time interface check
var (
	_ ContactMessageRepository      = (*PostgresInboxRepo)(nil)
	_ ConsultationRequestRepository = (*PostgresConsultationRepo)(nil)
)
