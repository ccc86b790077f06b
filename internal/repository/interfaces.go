// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
// 各コレクションは1テーブルに対応し、FindBy系は見つからない場合にnil, nilを返す。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
)

// UserRepository は会員プロフィールの永続化インターフェース。
type UserRepository interface {
	// Create はプロフィールを作成する。
	Create(ctx context.Context, user *model.User) error
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// IdentityRepository は認証プロバイダーが管理する資格情報の永続化インターフェース。
type IdentityRepository interface {
	// Create は資格情報を作成する。emailが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, identity *model.Identity) error
	// FindByEmail はproviderとemailで資格情報を検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, provider, email string) (*model.Identity, error)
	// FindByUserID はユーザーIDで資格情報を検索する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Identity, error)
	// UpdateDisplayName は表示名を更新する。
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// CommentRepository はコメントの永続化インターフェース。
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id string) (*model.Comment, error)
	// ListRecent は全コメントをcreated_at降順で返す。
	ListRecent(ctx context.Context) ([]*model.Comment, error)
	// DeleteByID は指定IDのコメントを削除する。存在しない場合はErrNotFoundを返す。
	DeleteByID(ctx context.Context, id string) error
}

// MemberEventRepository は会員イベントの永続化インターフェース。
type MemberEventRepository interface {
	Create(ctx context.Context, event *model.MemberEvent) error
	FindByID(ctx context.Context, id string) (*model.MemberEvent, error)
	// ListRecent は全会員イベントをcreated_at降順で返す。
	ListRecent(ctx context.Context) ([]*model.MemberEvent, error)
	DeleteByID(ctx context.Context, id string) error
}

// RegistrationRepository はイベント参加登録の永続化インターフェース。
type RegistrationRepository interface {
	// Create は登録を作成する。同一(event_id, user_id)が既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, reg *model.EventRegistration) error
	FindByID(ctx context.Context, id string) (*model.EventRegistration, error)
	// ExistsByEventAndUser は指定ユーザーが指定イベントに登録済みかを返す。
	ExistsByEventAndUser(ctx context.Context, eventID, userID string) (bool, error)
	// ListByUser はユーザーの登録をregistered_at降順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.EventRegistration, error)
	DeleteByID(ctx context.Context, id string) error
}

// RentalRepository は機材レンタルリクエストの永続化インターフェース。
type RentalRepository interface {
	Create(ctx context.Context, rental *model.EquipmentRental) error
	FindByID(ctx context.Context, id string) (*model.EquipmentRental, error)
	// ListByClient はクライアントのリクエストをrequested_at降順で返す。
	ListByClient(ctx context.Context, clientID string) ([]*model.EquipmentRental, error)
	DeleteByID(ctx context.Context, id string) error
}

// TrainingApplicationRepository は講習申し込みの永続化インターフェース。
type TrainingApplicationRepository interface {
	Create(ctx context.Context, app *model.TrainingApplication) error
	FindByID(ctx context.Context, id string) (*model.TrainingApplication, error)
	// ListByClient はクライアントの申し込みをapplied_at降順で返す。
	ListByClient(ctx context.Context, clientID string) ([]*model.TrainingApplication, error)
	DeleteByID(ctx context.Context, id string) error
}

// ContactMessageRepository は問い合わせメッセージの永続化インターフェース。
type ContactMessageRepository interface {
	Create(ctx context.Context, msg *model.ContactMessage) error
}

// ConsultationRequestRepository は個別相談リクエストの永続化インターフェース。
type ConsultationRequestRepository interface {
	Create(ctx context.Context, req *model.ConsultationRequest) error
}

// NewsSourceRepository はニュース配信元の永続化インターフェース。
type NewsSourceRepository interface {
	// Ensure はfeed_urlの配信元が無ければ作成し、既存または新規の配信元を返す。
	Ensure(ctx context.Context, feedURL string) (*model.NewsSource, error)
	// ListDueForFetch はnext_fetch_at <= now() かつ active の配信元を
	// FOR UPDATE SKIP LOCKEDで取得する。
	ListDueForFetch(ctx context.Context) ([]*model.NewsSource, error)
	// UpdateFetchState はフェッチ状態と条件付きGET用ヘッダー値を更新する。
	UpdateFetchState(ctx context.Context, source *model.NewsSource) error
}

// NewsItemRepository はニュース記事の永続化インターフェース。
type NewsItemRepository interface {
	// Upsert は(source_id, guid_or_id)で記事を挿入または上書きし、新規挿入だったかを返す。
	Upsert(ctx context.Context, item *model.NewsItem) (bool, error)
	// ListLatest は公開日時の降順で最大limit件の記事を返す。
	ListLatest(ctx context.Context, limit int) ([]*model.NewsItem, error)
	// DeleteOlderThan は指定時刻より前に公開された記事を削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
