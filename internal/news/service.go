// Package news はトップページに表示するクラブニュースの読み出しを提供する。
// 取得と保存はworker/fetchが担う。
package news

import (
	"context"
	"fmt"

	"github.com/hitoshi/anglerclub/internal/model"
	"github.com/hitoshi/anglerclub/internal/repository"
)

const (
	// DefaultLimit はlimit未指定時の件数。
	DefaultLimit = 5
	// MaxLimit は1回に返す最大件数。
	MaxLimit = 50
)

// Service はニュース記事の参照を提供する。
type Service struct {
	items repository.NewsItemRepository
}

// NewService はServiceを生成する。
func NewService(items repository.NewsItemRepository) *Service {
	return &Service{items: items}
}

// Latest は新しい順に最大limit件の記事を返す。
// limitが0以下ならDefaultLimit、MaxLimitを超える場合はMaxLimitに丸める。
func (s *Service) Latest(ctx context.Context, limit int) ([]*model.NewsItem, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	items, err := s.items.ListLatest(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}
