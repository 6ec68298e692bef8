// Package site renders the portfolio pages from content snapshots.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"portfolio/api/internal/content"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	markdownOnce sync.Once
	markdownMD   goldmark.Markdown
)

func markdownEngine() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownMD = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownMD
}

// Markdown converts log text to HTML. Raw HTML in the source is dropped.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdownEngine().Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

// FuncMap is shared with other packages rendering content.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": Markdown,
	}
}

type pageData struct {
	Title   string
	IsAdmin bool
	Admin   string
	Content content.Snapshot
	Year    int
}

// Renderer keeps the latest snapshot and a pre-rendered public page.
type Renderer struct {
	title  string
	page   *template.Template
	now    func() time.Time
	public atomic.Pointer[[]byte]
	latest atomic.Pointer[content.Snapshot]
}

func NewRenderer(title string) (*Renderer, error) {
	page, err := template.New("page.html").Funcs(FuncMap()).ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{title: title, page: page, now: time.Now}, nil
}

// Render caches the public page for snapshot.
func (r *Renderer) Render(snapshot content.Snapshot) {
	r.latest.Store(&snapshot)
	html, err := r.execute(pageData{Content: snapshot})
	if err != nil {
		log.Printf("site: render public page: %v", err)
		return
	}
	r.public.Store(&html)
}

// Public returns the cached public page, or nil before the first Render.
func (r *Renderer) Public() []byte {
	if html := r.public.Load(); html != nil {
		return *html
	}
	return nil
}

// Admin renders the page with edit controls for the signed-in admin.
func (r *Renderer) Admin(adminEmail string) ([]byte, error) {
	return r.execute(pageData{IsAdmin: true, Admin: adminEmail, Content: r.Snapshot()})
}

// Snapshot is the content last passed to Render.
func (r *Renderer) Snapshot() content.Snapshot {
	if snapshot := r.latest.Load(); snapshot != nil {
		return *snapshot
	}
	return content.Snapshot{}
}

func (r *Renderer) execute(data pageData) ([]byte, error) {
	data.Title = r.title
	data.Year = r.now().Year()
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
