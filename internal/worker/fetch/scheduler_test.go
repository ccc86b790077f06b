package fetch

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hitoshi/anglerclub/internal/model"
)

type mockSourceFetcher struct {
	fetchFunc func(ctx context.Context, src *model.NewsSource) error
	mu        sync.Mutex
	fetched   []string
}

func (m *mockSourceFetcher) Fetch(ctx context.Context, src *model.NewsSource) error {
	m.mu.Lock()
	m.fetched = append(m.fetched, src.ID)
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, src)
	}
	return nil
}

func dueSources(n int) []*model.NewsSource {
	out := make([]*model.NewsSource, n)
	for i := range out {
		out[i] = &model.NewsSource{ID: string(rune('a' + i)), FeedURL: "https://example.com/rss"}
	}
	return out
}

func TestNewScheduler_DefaultConcurrency(t *testing.T) {
	var buf bytes.Buffer
	s := NewScheduler(&mockSourceRepo{}, &mockSourceFetcher{}, newTestLogger(&buf), 0)
	if s.maxConcurrency != 4 {
		t.Errorf("maxConcurrency = %d, want 4", s.maxConcurrency)
	}
}

func TestRunOnce_FetchesAllDueSources(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockSourceRepo{
		listDueFunc: func(context.Context) ([]*model.NewsSource, error) { return dueSources(5), nil },
	}
	fetcher := &mockSourceFetcher{}

	s := NewScheduler(repo, fetcher, newTestLogger(&buf), 2)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(fetcher.fetched) != 5 {
		t.Errorf("fetched %d sources, want 5", len(fetcher.fetched))
	}
}

func TestRunOnce_LimitsConcurrency(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockSourceRepo{
		listDueFunc: func(context.Context) ([]*model.NewsSource, error) { return dueSources(8), nil },
	}
	var running, peak int32
	fetcher := &mockSourceFetcher{
		fetchFunc: func(context.Context, *model.NewsSource) error {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		},
	}

	s := NewScheduler(repo, fetcher, newTestLogger(&buf), 3)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestRunOnce_FetchErrorsDoNotFailCycle(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockSourceRepo{
		listDueFunc: func(context.Context) ([]*model.NewsSource, error) { return dueSources(2), nil },
	}
	fetcher := &mockSourceFetcher{
		fetchFunc: func(context.Context, *model.NewsSource) error { return errors.New("timeout") },
	}

	s := NewScheduler(repo, fetcher, newTestLogger(&buf), 2)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("news source fetch failed")) {
		t.Error("expected fetch failure to be logged")
	}
}

func TestRunOnce_ListErrorIsReturned(t *testing.T) {
	var buf bytes.Buffer
	listErr := errors.New("db down")
	repo := &mockSourceRepo{
		listDueFunc: func(context.Context) ([]*model.NewsSource, error) { return nil, listErr },
	}

	s := NewScheduler(repo, &mockSourceFetcher{}, newTestLogger(&buf), 2)
	if err := s.RunOnce(context.Background()); !errors.Is(err, listErr) {
		t.Fatalf("RunOnce() error = %v, want %v", err, listErr)
	}
}

func TestStart_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	var calls int32
	repo := &mockSourceRepo{
		listDueFunc: func(context.Context) ([]*model.NewsSource, error) {
			atomic.AddInt32(&calls, 1)
			return nil, nil
		},
	}
	s := NewScheduler(repo, &mockSourceFetcher{}, newTestLogger(&buf), 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(time.Second)
	for atomic.LoadInt32(&calls) == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle did not run")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
