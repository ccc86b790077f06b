// Package web はクラブサイトのHTMLページシェルを描画する。
// ページは静的カタログとニュースをサーバー側で描画し、一覧のライブ更新と
// フォーム送信はstatic/app.jsがAPIとSSEを使って行う。
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/anglerclub/internal/catalog"
	"github.com/hitoshi/anglerclub/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// homeNewsLimit はトップページに表示するニュース件数。
const homeNewsLimit = 5

// NewsLister はトップページのニュース取得インターフェース。
type NewsLister interface {
	Latest(ctx context.Context, limit int) ([]*model.NewsItem, error)
}

// Handler はページシェルのHTTPハンドラー。
type Handler struct {
	news   NewsLister
	logger *slog.Logger
	pages  map[string]*template.Template
}

// NewHandler はテンプレートを読み込んでHandlerを生成する。
// newsがnilの場合、トップページのニュース欄は表示しない。
func NewHandler(news NewsLister, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	funcs := template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("02.01.2006") },
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"home", "events", "training", "equipment"} {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Handler{news: news, logger: logger, pages: pages}, nil
}

// newsView はテンプレートに渡すニュース記事。Summaryは取得時にサニタイズ済み。
type newsView struct {
	Title       string
	Link        string
	Summary     template.HTML
	PublishedAt time.Time
}

type pageData struct {
	Title  string
	Active string

	News       []newsView
	Events     []catalog.Event
	Courses    []catalog.Course
	Equipment  []catalog.Equipment
	Categories []catalog.Category
	Category   string
}

// Home はトップページを描画する。
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, "home", pageData{
		Title:  "Владивостокский Клев",
		Active: "home",
		News:   h.latestNews(r.Context()),
	})
}

// Events は公式イベントのページを描画する。
// GET /events
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.render(w, "events", pageData{
		Title:  "Мероприятия",
		Active: "events",
		Events: catalog.Events(),
	})
}

// Training は講習コースのページを描画する。
// GET /training
func (h *Handler) Training(w http.ResponseWriter, r *http.Request) {
	h.render(w, "training", pageData{
		Title:   "Обучение",
		Active:  "training",
		Courses: catalog.Courses(),
	})
}

// Equipment は機材レンタルのページを描画する。未知のカテゴリは全件表示にする。
// GET /equipment?category=
func (h *Handler) Equipment(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if !catalog.IsCategory(category) {
		category = catalog.CategoryAll
	}
	h.render(w, "equipment", pageData{
		Title:      "Аренда снаряжения",
		Active:     "equipment",
		Equipment:  catalog.EquipmentByCategory(category),
		Categories: catalog.Categories(),
		Category:   category,
	})
}

// Static は埋め込みの静的ファイルを/static/配下で配信する。
func (h *Handler) Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// embedのディレクトリ名は固定のため到達しない
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// latestNews はトップページ用のニュースを返す。取得に失敗した場合はログに残して欄を省略する。
func (h *Handler) latestNews(ctx context.Context) []newsView {
	if h.news == nil {
		return nil
	}
	items, err := h.news.Latest(ctx, homeNewsLimit)
	if err != nil {
		h.logger.Error("failed to load news for home page", slog.String("error", err.Error()))
		return nil
	}
	views := make([]newsView, len(items))
	for i, it := range items {
		views[i] = newsView{
			Title: it.Title,
			Link:  it.Link,
			// 取得時にsecurity.Sanitizer.Summaryで許可リスト処理済み
			Summary:     template.HTML(it.Summary),
			PublishedAt: it.PublishedAt,
		}
	}
	return views
}

// render はテンプレートをバッファに描画してから書き込む。途中で失敗しても部分的なHTMLは返さない。
func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		h.logger.Error("failed to render page", slog.String("page", name), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
