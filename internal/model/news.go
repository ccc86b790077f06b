// Package model はドメインモデルを定義する。
package model

import "time"

// NewsSource はトップページに表示するクラブニュースの配信元フィードを表す。
type NewsSource struct {
	ID                string
	FeedURL           string
	SiteURL           string
	Title             string
	ETag              string
	LastModified      string
	FetchStatus       FetchStatus
	ConsecutiveErrors int
	ErrorMessage      string
	NextFetchAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FetchStatus は配信元のフェッチ状態を表す。
type FetchStatus string

const (
	// FetchStatusActive はアクティブなフェッチ状態。
	FetchStatusActive FetchStatus = "active"
	// FetchStatusStopped は停止されたフェッチ状態。
	FetchStatusStopped FetchStatus = "stopped"
)

// NewsItem は配信元から取得したニュース記事を表す。
type NewsItem struct {
	ID          string
	SourceID    string
	GuidOrID    string
	Title       string
	Link        string
	Summary     string // サニタイズ済みHTML
	PublishedAt time.Time
	FetchedAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
