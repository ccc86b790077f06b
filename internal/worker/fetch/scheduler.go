// Package fetch はクラブニュースの配信元をバックグラウンドで取得する。
// スケジューラ、フェッチャー、バックオフ戦略を含む。
package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
)

// SourceFetcher は配信元1件の取得を行う。
type SourceFetcher interface {
	Fetch(ctx context.Context, src *model.NewsSource) error
}

// Scheduler は取得時刻を迎えた配信元を並列数を制限しながら取得する。
type Scheduler struct {
	sources        repository.NewsSourceRepository
	fetcher        SourceFetcher
	logger         *slog.Logger
	maxConcurrency int
}

// NewScheduler はSchedulerを生成する。maxConcurrencyが0以下の場合は4を使う。
func NewScheduler(
	sources repository.NewsSourceRepository,
	fetcher SourceFetcher,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Scheduler{
		sources:        sources,
		fetcher:        fetcher,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// Start は起動直後とinterval毎にRunOnceを実行する。ctxがキャンセルされると戻る。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("news scheduler started",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	s.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("news scheduler stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("news fetch cycle failed", slog.String("error", err.Error()))
	}
}

// RunOnce は取得対象の配信元を1回分取得する。
// 個々の配信元の失敗はログに残し、サイクル自体は失敗にしない。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	due, err := s.sources.ListDueForFetch(ctx)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		s.logger.Debug("no news sources due")
		return nil
	}

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, src := range due {
		wg.Add(1)
		sem <- struct{}{}

		go func(src *model.NewsSource) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.fetcher.Fetch(ctx, src); err != nil {
				s.logger.Error("news source fetch failed",
					slog.String("source_id", src.ID),
					slog.String("feed_url", src.FeedURL),
					slog.String("error", err.Error()),
				)
			}
		}(src)
	}
	wg.Wait()

	s.logger.Info("news fetch cycle completed",
		slog.Int("source_count", len(due)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}
