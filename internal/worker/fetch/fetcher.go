package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/anglerclub/internal/metrics"
	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
	"github.com/hitoshi/anglerclub/internal/security"
)

// untitled はタイトルの無い記事に使う見出し。
const untitled = "Без названия"

var errBodyTooLarge = errors.New("response body exceeds size limit")

// Config はFetcherの設定。
type Config struct {
	Timeout     time.Duration // 1回のHTTPリクエストのタイムアウト
	MaxBodySize int64         // 読み込むレスポンスボディの上限（バイト）
	Interval    time.Duration // 成功後、次回取得までの間隔
}

// Fetcher は1件の配信元を取得し、記事を保存して配信元の状態を更新する。
type Fetcher struct {
	sources   repository.NewsSourceRepository
	items     repository.NewsItemRepository
	sanitizer security.TextSanitizer
	guard     security.URLGuard
	recorder  metrics.FetchRecorder
	logger    *slog.Logger
	cfg       Config
	now       func() time.Time
}

// NewFetcher はFetcherを生成する。recorderがnilの場合はメトリクスを記録しない。
func NewFetcher(
	sources repository.NewsSourceRepository,
	items repository.NewsItemRepository,
	sanitizer security.TextSanitizer,
	guard security.URLGuard,
	recorder metrics.FetchRecorder,
	logger *slog.Logger,
	cfg Config,
) *Fetcher {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Fetcher{
		sources:   sources,
		items:     items,
		sanitizer: sanitizer,
		guard:     guard,
		recorder:  recorder,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Fetch は配信元を取得する。
// 条件付きGET（ETag/Last-Modified）を使い、結果に応じてバックオフや停止を配信元に記録する。
// パース失敗はエラーとして返さず、失敗回数として数える。
func (f *Fetcher) Fetch(ctx context.Context, src *model.NewsSource) error {
	log := f.logger.With(slog.String("source_id", src.ID), slog.String("feed_url", src.FeedURL))

	if err := f.guard.ValidateURL(src.FeedURL); err != nil {
		log.Warn("news source URL rejected", slog.String("error", err.Error()))
		markStopped(src, "blocked URL: "+err.Error(), f.now())
		f.recorder.RecordFetchFailure(src.ID, "blocked")
		return f.save(ctx, src)
	}

	start := f.now()
	status, body, err := f.download(ctx, src)
	f.recorder.RecordFetchLatency(f.now().Sub(start))
	if err != nil {
		log.Warn("news fetch request failed", slog.String("error", err.Error()))
		markFailed(src, "request failed: "+err.Error(), f.now())
		f.recorder.RecordFetchFailure(src.ID, "request")
		if saveErr := f.save(ctx, src); saveErr != nil {
			return saveErr
		}
		return fmt.Errorf("failed to fetch %s: %w", src.FeedURL, err)
	}
	f.recorder.RecordHTTPStatus(status)

	switch ClassifyStatus(status) {
	case OutcomeUnchanged:
		log.Debug("news source not modified")
		markFetched(src, f.cfg.Interval, f.now())
		f.recorder.RecordFetchSuccess(src.ID)
		return f.save(ctx, src)
	case OutcomeStop:
		log.Warn("news source stopped", slog.Int("http_status", status))
		markStopped(src, fmt.Sprintf("stopped by HTTP status %d", status), f.now())
		f.recorder.RecordFetchFailure(src.ID, "stopped")
		return f.save(ctx, src)
	case OutcomeRetryLater:
		log.Warn("news source backing off",
			slog.Int("http_status", status),
			slog.Int("consecutive_errors", src.ConsecutiveErrors+1),
		)
		markFailed(src, fmt.Sprintf("HTTP status %d", status), f.now())
		f.recorder.RecordFetchFailure(src.ID, "http_status")
		return f.save(ctx, src)
	}

	feed, err := gofeed.NewParser().ParseString(body)
	if err != nil {
		log.Warn("news feed parse failed", slog.String("error", err.Error()))
		markParseFailed(src, err.Error(), f.now())
		f.recorder.RecordParseFailure(src.ID)
		return f.save(ctx, src)
	}

	if feed.Title != "" {
		src.Title = f.sanitizer.PlainText(feed.Title)
	}
	if isWebURL(feed.Link) {
		src.SiteURL = feed.Link
	}

	inserted, total, err := f.store(ctx, src.ID, feed.Items)
	if err != nil {
		log.Error("failed to store news items", slog.String("error", err.Error()))
		markFailed(src, "store failed: "+err.Error(), f.now())
		f.recorder.RecordFetchFailure(src.ID, "store")
		if saveErr := f.save(ctx, src); saveErr != nil {
			return saveErr
		}
		return fmt.Errorf("failed to store items of %s: %w", src.FeedURL, err)
	}
	f.recorder.RecordItemsUpserted(total)

	markFetched(src, f.cfg.Interval, f.now())
	f.recorder.RecordFetchSuccess(src.ID)
	log.Info("news source fetched",
		slog.Int("items_total", total),
		slog.Int("items_inserted", inserted),
		slog.Float64("duration_ms", float64(f.now().Sub(start).Milliseconds())),
	)
	return f.save(ctx, src)
}

// download は条件付きGETを送り、200の場合だけ本文を読み込む。
// 200で返ったETag/Last-Modifiedは配信元に反映する。
func (f *Fetcher) download(ctx context.Context, src *model.NewsSource) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.FeedURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "AnglerClub/1.0 (+news)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml;q=0.9, */*;q=0.8")
	if src.ETag != "" {
		req.Header.Set("If-None-Match", src.ETag)
	}
	if src.LastModified != "" {
		req.Header.Set("If-Modified-Since", src.LastModified)
	}

	resp, err := f.guard.NewSafeClient(f.cfg.Timeout).Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, "", nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize+1))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxBodySize {
		return resp.StatusCode, "", errBodyTooLarge
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		src.ETag = etag
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		src.LastModified = lm
	}
	return resp.StatusCode, string(data), nil
}

// store は記事を保存し、新規挿入件数と保存件数を返す。
func (f *Fetcher) store(ctx context.Context, sourceID string, entries []*gofeed.Item) (int, int, error) {
	now := f.now()
	inserted, total := 0, 0
	for _, entry := range entries {
		item, ok := f.toNewsItem(sourceID, entry, now)
		if !ok {
			continue
		}
		isNew, err := f.items.Upsert(ctx, item)
		if err != nil {
			return inserted, total, err
		}
		total++
		if isNew {
			inserted++
		}
	}
	return inserted, total, nil
}

// toNewsItem はgofeedの記事をNewsItemに変換する。
// GUIDとリンクのどちらも無い記事は識別できないため捨てる。
func (f *Fetcher) toNewsItem(sourceID string, entry *gofeed.Item, now time.Time) (*model.NewsItem, bool) {
	if entry == nil {
		return nil, false
	}

	link := entry.Link
	if link == "" && isWebURL(entry.GUID) {
		link = entry.GUID
	}
	if !isWebURL(link) {
		link = ""
	}

	key := entry.GUID
	if key == "" {
		key = link
	}
	if key == "" {
		return nil, false
	}

	title := f.sanitizer.PlainText(entry.Title)
	if title == "" {
		title = untitled
	}

	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}

	published := now
	switch {
	case entry.PublishedParsed != nil:
		published = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		published = *entry.UpdatedParsed
	}

	return &model.NewsItem{
		SourceID:    sourceID,
		GuidOrID:    key,
		Title:       title,
		Link:        link,
		Summary:     f.sanitizer.Summary(summary),
		PublishedAt: published.UTC(),
		FetchedAt:   now,
	}, true
}

func (f *Fetcher) save(ctx context.Context, src *model.NewsSource) error {
	if err := f.sources.UpdateFetchState(ctx, src); err != nil {
		f.logger.Error("failed to update news source state",
			slog.String("source_id", src.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to update source %s: %w", src.ID, err)
	}
	return nil
}

// isWebURL はhttpまたはhttpsの絶対URLかどうかを返す。
func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
