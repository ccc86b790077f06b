// Package cleanup は期限切れセッションと古いクラブニュースを削除する定期ジョブを提供する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPruner は有効期限切れのセッションを削除する。
type SessionPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// NewsPruner は公開日時が指定時刻より前の記事を削除する。
type NewsPruner interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Result は1回の実行で削除した件数。
type Result struct {
	Sessions  int64
	NewsItems int64
}

// CleanupJob は期限切れセッションと保持期間を過ぎたニュース記事を削除する。
// 削除対象がなくてもエラーにならず、何度実行しても同じ結果になる。
type CleanupJob struct {
	sessions          SessionPruner
	news              NewsPruner
	logger            *slog.Logger
	now               func() time.Time
	NewsRetentionDays int // ニュース記事の保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(sessions SessionPruner, news NewsPruner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:          sessions,
		news:              news,
		logger:            logger,
		now:               time.Now,
		NewsRetentionDays: 90,
	}
}

// Run は削除を1回実行する。セッションの削除に失敗した場合もニュースの削除は試みる。
func (j *CleanupJob) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	var res Result
	var errs []error

	n, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("cleanup delete failed", slog.String("table", "sessions"), slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("failed to clean up sessions: %w", err))
	}
	res.Sessions = n

	cutoff := j.now().AddDate(0, 0, -j.NewsRetentionDays)
	n, err = j.news.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("cleanup delete failed", slog.String("table", "news_items"), slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("failed to clean up news_items: %w", err))
	}
	res.NewsItems = n

	if len(errs) > 0 {
		return res, errs[0]
	}

	j.logger.Info("cleanup completed",
		slog.Int64("sessions_deleted", res.Sessions),
		slog.Int64("news_items_deleted", res.NewsItems),
		slog.Int("news_retention_days", j.NewsRetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return res, nil
}

// Start は起動直後とinterval毎にRunを実行する。ctxがキャンセルされると戻る。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *CleanupJob) runLogged(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil {
		j.logger.Error("cleanup failed", slog.String("error", err.Error()))
	}
}
