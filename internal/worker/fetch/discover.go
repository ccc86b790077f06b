package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/anglerclub/internal/security"
)

// discoveryBodyLimit はフィード検出で読むページの上限（バイト）。
const discoveryBodyLimit = 1 << 20

// Discoverer は設定されたURLがクラブサイトのページだった場合に、
// headの<link rel="alternate">からRSS/AtomフィードのURLを見つける。
type Discoverer struct {
	guard   security.URLGuard
	timeout time.Duration
}

// NewDiscoverer はDiscovererを生成する。
func NewDiscoverer(guard security.URLGuard, timeout time.Duration) *Discoverer {
	return &Discoverer{guard: guard, timeout: timeout}
}

// Resolve はrawURLがフィードならそのまま、HTMLページならページが案内するフィードのURLを返す。
// どちらでもない場合はエラーを返す。
func (d *Discoverer) Resolve(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", "AnglerClub/1.0 (+news)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/html;q=0.8")

	resp, err := d.guard.NewSafeClient(d.timeout).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, discoveryBodyLimit))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	mediaType = strings.ToLower(mediaType)
	if looksLikeFeed(mediaType, body) {
		return rawURL, nil
	}
	if !strings.Contains(mediaType, "html") {
		return "", fmt.Errorf("%s is neither a feed nor an HTML page", rawURL)
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	feedURL := alternateFeedLink(body, base)
	if feedURL == "" {
		return "", fmt.Errorf("no feed link found on %s", rawURL)
	}
	return feedURL, nil
}

// looksLikeFeed はContent-Typeと本文の先頭からRSS/Atomかを判定する。
func looksLikeFeed(mediaType string, body []byte) bool {
	switch mediaType {
	case "application/rss+xml", "application/atom+xml", "application/rdf+xml":
		return true
	case "text/xml", "application/xml":
		head := bytes.ToLower(body[:min(len(body), 4096)])
		return bytes.Contains(head, []byte("<rss")) ||
			bytes.Contains(head, []byte("<rdf:rdf")) ||
			bytes.Contains(head, []byte("<feed"))
	}
	return false
}

// alternateFeedLink はhead内のフィードリンクを探し、同じホストのAtomを優先して返す。
func alternateFeedLink(page []byte, base *url.URL) string {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return ""
	}

	best, bestScore := "", -1
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "body" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "link" {
			if href, score, ok := scoreFeedLink(n, base); ok && score > bestScore {
				best, bestScore = href, score
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return best
}

func scoreFeedLink(n *html.Node, base *url.URL) (string, int, bool) {
	var rel, typ, href string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "rel":
			rel = strings.ToLower(a.Val)
		case "type":
			typ = strings.ToLower(a.Val)
		case "href":
			href = strings.TrimSpace(a.Val)
		}
	}
	if rel != "alternate" || href == "" {
		return "", 0, false
	}

	score := 0
	switch typ {
	case "application/atom+xml":
		score += 10
	case "application/rss+xml":
	default:
		return "", 0, false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", 0, false
	}
	resolved := base.ResolveReference(ref)
	if !isWebURL(resolved.String()) {
		return "", 0, false
	}
	if strings.EqualFold(resolved.Hostname(), base.Hostname()) {
		score += 100
	}
	return resolved.String(), score, true
}
