package comment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
)

// FallbackAuthorName は名前を解決できない投稿者の表示名。
const FallbackAuthorName = "Участник клуба"

// AuthorCache はユーザーIDごとのプロフィール名のキャッシュ。
type AuthorCache interface {
	// Get はキャッシュ済みの名前を返す。未キャッシュの場合はokがfalse。
	Get(ctx context.Context, userID string) (name string, ok bool, err error)
	Set(ctx context.Context, userID, name string) error
}

// AuthorResolver はコメントの投稿者名をプロフィールから補完する。
type AuthorResolver struct {
	users repository.UserRepository
	cache AuthorCache
}

// NewAuthorResolver はAuthorResolverを生成する。cacheはnilでもよい。
func NewAuthorResolver(users repository.UserRepository, cache AuthorCache) *AuthorResolver {
	return &AuthorResolver{users: users, cache: cache}
}

// NeedsResolution は保存済みの投稿者名が空かemailの場合にtrueを返す。
func NeedsResolution(authorName string) bool {
	return authorName == "" || strings.Contains(authorName, "@")
}

// Enrich は補完が必要なコメントの投稿者名をプロフィール名で置き換える。
// プロフィールが無い・名前が空・取得に失敗した場合はFallbackAuthorNameを使う。
func (r *AuthorResolver) Enrich(ctx context.Context, comments []*model.Comment) {
	resolved := make(map[string]string)
	for _, c := range comments {
		if !NeedsResolution(c.AuthorName) {
			continue
		}
		name, ok := resolved[c.AuthorID]
		if !ok {
			name = r.profileName(ctx, c.AuthorID)
			resolved[c.AuthorID] = name
		}
		if name == "" {
			name = FallbackAuthorName
		}
		c.AuthorName = name
	}
}

// NameForNewComment は新規コメントに保存する投稿者名を返す。
// プロフィール名、表示名、FallbackAuthorNameの順に使う。
func (r *AuthorResolver) NameForNewComment(ctx context.Context, user *model.AuthUser) string {
	if name := r.profileName(ctx, user.ID); name != "" {
		return name
	}
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return FallbackAuthorName
}

// profileName はプロフィール名を返す。取得できない場合は空文字列。
func (r *AuthorResolver) profileName(ctx context.Context, userID string) string {
	if r.cache != nil {
		name, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			slog.Warn("author cache lookup failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		} else if ok {
			return name
		}
	}

	profile, err := r.users.FindByID(ctx, userID)
	if err != nil {
		slog.Error("failed to resolve comment author", slog.String("user_id", userID), slog.String("error", err.Error()))
		return ""
	}

	var name string
	if profile != nil {
		name = profile.Name
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, userID, name); err != nil {
			slog.Warn("author cache store failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		}
	}
	return name
}

// RedisAuthorCache はRedisに投稿者名を保存するAuthorCache。
// プロフィールは作成後に変更されないため、TTLのみで失効させる。
type RedisAuthorCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAuthorCache はRedisAuthorCacheを生成する。
func NewRedisAuthorCache(client *redis.Client, ttl time.Duration) *RedisAuthorCache {
	return &RedisAuthorCache{client: client, ttl: ttl}
}

func authorKey(userID string) string {
	return "anglerclub:author:" + userID
}

// Get はキャッシュ済みの名前を返す。
func (c *RedisAuthorCache) Get(ctx context.Context, userID string) (string, bool, error) {
	name, err := c.client.Get(ctx, authorKey(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// Set は名前をTTL付きで保存する。
func (c *RedisAuthorCache) Set(ctx context.Context, userID, name string) error {
	return c.client.Set(ctx, authorKey(userID), name, c.ttl).Err()
}

// compile-time interface check
var _ AuthorCache = (*RedisAuthorCache)(nil)
