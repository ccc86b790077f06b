package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/anglerclub/internal/model"
)

// PostgresNewsSourceRepo はPostgreSQLを使用したニュース配信元リポジトリ。
type PostgresNewsSourceRepo struct {
	db *sql.DB
}

// NewPostgresNewsSourceRepo はPostgresNewsSourceRepoを生成する。
func NewPostgresNewsSourceRepo(db *sql.DB) *PostgresNewsSourceRepo {
	return &PostgresNewsSourceRepo{db: db}
}

const newsSourceColumns = `id, feed_url, site_url, title, etag, last_modified, fetch_status,
	consecutive_errors, error_message, next_fetch_at, created_at, updated_at`

func scanNewsSource(row rowScanner) (*model.NewsSource, error) {
	src := &model.NewsSource{}
	var siteURL, etag, lastModified, errorMessage sql.NullString
	err := row.Scan(
		&src.ID, &src.FeedURL, &siteURL, &src.Title, &etag, &lastModified, &src.FetchStatus,
		&src.ConsecutiveErrors, &errorMessage, &src.NextFetchAt, &src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	src.SiteURL = nullStringValue(siteURL)
	src.ETag = nullStringValue(etag)
	src.LastModified = nullStringValue(lastModified)
	src.ErrorMessage = nullStringValue(errorMessage)
	return src, nil
}

// Ensure はfeed_urlの配信元が無ければ作成し、既存または新規の配信元を返す。
// 既存の配信元のフェッチ状態は変更しない。
func (r *PostgresNewsSourceRepo) Ensure(ctx context.Context, feedURL string) (*model.NewsSource, error) {
	src, err := scanNewsSource(r.db.QueryRowContext(ctx,
		`INSERT INTO news_sources (id, feed_url)
		 VALUES ($1, $2)
		 ON CONFLICT (feed_url) DO UPDATE SET feed_url = EXCLUDED.feed_url
		 RETURNING `+newsSourceColumns,
		uuid.New().String(), feedURL,
	))
	if err != nil {
		return nil, fmt.Errorf("配信元の登録に失敗しました: %w", err)
	}
	return src, nil
}

// ListDueForFetch はフェッチ対象の配信元を取得する。
// next_fetch_at <= now() かつ fetch_status = 'active' の配信元を
// FOR UPDATE SKIP LOCKEDで排他的に取得する。
func (r *PostgresNewsSourceRepo) ListDueForFetch(ctx context.Context) ([]*model.NewsSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+newsSourceColumns+`
		 FROM news_sources
		 WHERE next_fetch_at <= now()
		   AND fetch_status = 'active'
		 ORDER BY next_fetch_at ASC
		 FOR UPDATE SKIP LOCKED`,
	)
	if err != nil {
		return nil, fmt.Errorf("フェッチ対象配信元の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var sources []*model.NewsSource
	for rows.Next() {
		src, err := scanNewsSource(rows)
		if err != nil {
			return nil, fmt.Errorf("フェッチ対象配信元の読み取りに失敗しました: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フェッチ対象配信元の走査に失敗しました: %w", err)
	}
	return sources, nil
}

// UpdateFetchState は配信元のフェッチ状態を更新する。
func (r *PostgresNewsSourceRepo) UpdateFetchState(ctx context.Context, src *model.NewsSource) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE news_sources SET
		    title = $2,
		    site_url = $3,
		    fetch_status = $4,
		    consecutive_errors = $5,
		    error_message = $6,
		    next_fetch_at = $7,
		    etag = $8,
		    last_modified = $9,
		    updated_at = now()
		 WHERE id = $1`,
		src.ID,
		src.Title,
		toNullString(src.SiteURL),
		src.FetchStatus,
		src.ConsecutiveErrors,
		toNullString(src.ErrorMessage),
		src.NextFetchAt,
		toNullString(src.ETag),
		toNullString(src.LastModified),
	)
	if err != nil {
		return fmt.Errorf("フェッチ状態の更新に失敗しました: %w", err)
	}
	return nil
}

// PostgresNewsItemRepo はPostgreSQLを使用したニュース記事リポジトリ。
type PostgresNewsItemRepo struct {
	db *sql.DB
}

// NewPostgresNewsItemRepo はPostgresNewsItemRepoを生成する。
func NewPostgresNewsItemRepo(db *sql.DB) *PostgresNewsItemRepo {
	return &PostgresNewsItemRepo{db: db}
}

// Upsert は(source_id, guid_or_id)で記事を挿入または上書きする。
// xmax = 0 の場合は新規挿入された行。
func (r *PostgresNewsItemRepo) Upsert(ctx context.Context, item *model.NewsItem) (bool, error) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	var inserted bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO news_items (id, source_id, guid_or_id, title, link, summary, published_at, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (source_id, guid_or_id) DO UPDATE SET
		    title = EXCLUDED.title,
		    link = EXCLUDED.link,
		    summary = EXCLUDED.summary,
		    published_at = EXCLUDED.published_at,
		    fetched_at = EXCLUDED.fetched_at,
		    updated_at = now()
		 RETURNING id, (xmax = 0)`,
		item.ID, item.SourceID, item.GuidOrID, item.Title, item.Link, item.Summary,
		item.PublishedAt, item.FetchedAt,
	).Scan(&item.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("記事の保存に失敗しました: %w", err)
	}
	return inserted, nil
}

// ListLatest は公開日時の降順で最大limit件の記事を返す。
func (r *PostgresNewsItemRepo) ListLatest(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, source_id, guid_or_id, title, link, summary, published_at, fetched_at, created_at, updated_at
		 FROM news_items
		 ORDER BY published_at DESC, id
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	items := []*model.NewsItem{}
	for rows.Next() {
		item := &model.NewsItem{}
		if err := rows.Scan(
			&item.ID, &item.SourceID, &item.GuidOrID, &item.Title, &item.Link, &item.Summary,
			&item.PublishedAt, &item.FetchedAt, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("記事の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("記事一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// DeleteOlderThan は指定時刻より前に公開された記事を削除し、削除件数を返す。
func (r *PostgresNewsItemRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news_items WHERE published_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("古い記事の削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	return n, nil
}

// compile-time interface check
var (
	_ NewsSourceRepository = (*PostgresNewsSourceRepo)(nil)
	_ NewsItemRepository   = (*PostgresNewsItemRepo)(nil)
)
