// Package model はドメインモデルを定義する。
package model

import "time"

// RoleMember は新規登録ユーザーに付与される既定ロール。
const RoleMember = "member"

// User はクラブ会員のプロフィールを表す。
// サインアップ時に1度だけ作成され、以降このコードからは更新しない。
type User struct {
	ID        string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}

// Identity は認証プロバイダーが管理する資格情報を表す。
type Identity struct {
	ID           string
	UserID       string
	Provider     string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// AuthUser はリクエストごとに解決される現在のログインユーザー。
type AuthUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// SubmitterName は投稿に記録する送信者名を返す。表示名が空の場合はemailを使う。
func (u *AuthUser) SubmitterName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
