// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/anglerclub/internal/model"
)

// SessionCookieName はセッションIDを保持するHTTP Only Cookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに現在のユーザーを格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityResolver はセッションIDから現在のユーザーを解決するインターフェース。
// 該当するセッションが無い場合はnil, nilを返す。
type IdentityResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*model.AuthUser, error)
}

// NewIdentityMiddleware はCookieのセッションから現在のユーザーを解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 未ログインのリクエストもそのまま通す。書き込み系はRequireIdentityで保護する。
func NewIdentityMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				// ストア障害時は匿名として扱い、書き込みはRequireIdentityで拒否される
				slog.Error("failed to resolve identity",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), user)))
		})
	}
}

// RequireIdentity はログインしていないリクエストを401で拒否する。
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) == nil {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext はリクエストコンテキストから現在のユーザーを取得する。
// 未ログインの場合はnilを返す。
func IdentityFromContext(ctx context.Context) *model.AuthUser {
	user, _ := ctx.Value(identityContextKey).(*model.AuthUser)
	return user
}

// ContextWithIdentity はコンテキストに現在のユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, user *model.AuthUser) context.Context {
	return context.WithValue(ctx, identityContextKey, user)
}
