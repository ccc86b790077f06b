package fetch

import (
	"context"
	"log/slog"

	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

// FeedResolver は設定されたURLを実際のフィードURLに解決する。
type FeedResolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// RegisterSources は設定された配信元URLを登録し、登録できた件数を返す。
// resolverが指定されていればページURLをフィードURLに解決してから登録する。
// 解決に失敗したURLはそのまま登録し、取得時のバックオフに任せる。
// 安全でないURLや登録に失敗したURLはログに残して読み飛ばす。
func RegisterSources(
	ctx context.Context,
	sources repository.NewsSourceRepository,
	guard security.URLGuard,
	resolver FeedResolver,
	urls []string,
	logger *slog.Logger,
) int {
	registered := 0
	for _, u := range urls {
		if err := guard.ValidateURL(u); err != nil {
			logger.Warn("skipping unsafe news source URL",
				slog.String("feed_url", u),
				slog.String("error", err.Error()),
			)
			continue
		}

		feedURL := u
		if resolver != nil {
			resolved, err := resolver.Resolve(ctx, u)
			if err != nil {
				logger.Warn("feed discovery failed, registering URL as is",
					slog.String("feed_url", u),
					slog.String("error", err.Error()),
				)
			} else {
				feedURL = resolved
			}
		}

		src, err := sources.Ensure(ctx, feedURL)
		if err != nil {
			logger.Error("failed to register news source",
				slog.String("feed_url", feedURL),
				slog.String("error", err.Error()),
			)
			continue
		}
		logger.Debug("news source registered", slog.String("source_id", src.ID), slog.String("feed_url", feedURL))
		registered++
	}
	return registered
}
