package fetch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/anglerclub/internal/model"
)

type mockResolver struct {
	resolveFunc func(ctx context.Context, rawURL string) (string, error)
}

func (m *mockResolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	return m.resolveFunc(ctx, rawURL)
}

func recordingSourceRepo(ensured *[]string) *mockSourceRepo {
	return &mockSourceRepo{
		ensureFunc: func(_ context.Context, feedURL string) (*model.NewsSource, error) {
			if strings.Contains(feedURL, "broken") {
				return nil, errors.New("insert failed")
			}
			*ensured = append(*ensured, feedURL)
			return &model.NewsSource{ID: "id", FeedURL: feedURL}, nil
		},
	}
}

func TestRegisterSources_SkipsUnsafeAndFailed(t *testing.T) {
	var buf bytes.Buffer
	var ensured []string
	guard := &mockGuard{
		validateFunc: func(raw string) error {
			if strings.HasPrefix(raw, "http://127.") {
				return errors.New("loopback")
			}
			return nil
		},
	}

	n := RegisterSources(context.Background(), recordingSourceRepo(&ensured), guard, nil, []string{
		"https://club.example.com/rss",
		"http://127.0.0.1/rss",
		"https://broken.example.com/rss",
		"https://fishing.example.org/atom",
	}, newTestLogger(&buf))

	if n != 2 {
		t.Errorf("registered = %d, want 2", n)
	}
	if len(ensured) != 2 || ensured[0] != "https://club.example.com/rss" || ensured[1] != "https://fishing.example.org/atom" {
		t.Errorf("ensured = %v", ensured)
	}
	if !strings.Contains(buf.String(), "skipping unsafe news source URL") {
		t.Error("expected unsafe URL to be logged")
	}
}

func TestRegisterSources_UsesResolver(t *testing.T) {
	var buf bytes.Buffer
	var ensured []string
	resolver := &mockResolver{
		resolveFunc: func(_ context.Context, raw string) (string, error) {
			if raw == "https://club.example.com/" {
				return "https://club.example.com/feed.xml", nil
			}
			return "", errors.New("timeout")
		},
	}

	n := RegisterSources(context.Background(), recordingSourceRepo(&ensured), &mockGuard{}, resolver, []string{
		"https://club.example.com/",
		"https://slow.example.org/rss",
	}, newTestLogger(&buf))

	if n != 2 {
		t.Errorf("registered = %d, want 2", n)
	}
	want := []string{"https://club.example.com/feed.xml", "https://slow.example.org/rss"}
	if strings.Join(ensured, " ") != strings.Join(want, " ") {
		t.Errorf("ensured = %v, want %v", ensured, want)
	}
	if !strings.Contains(buf.String(), "feed discovery failed") {
		t.Error("expected discovery failure to be logged")
	}
}
