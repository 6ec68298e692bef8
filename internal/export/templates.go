package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"portfolio/api/internal/content"
	"portfolio/api/internal/site"
)

//go:embed templates/*.html
var templateFS embed.FS

var portfolioTemplate = template.Must(
	template.New("portfolio.html").Funcs(funcMap()).ParseFS(templateFS, "templates/portfolio.html"),
)

func funcMap() template.FuncMap {
	funcs := site.FuncMap()
	funcs["join"] = strings.Join
	funcs["formatDate"] = func(t time.Time, layout string) string {
		return t.Format(layout)
	}
	return funcs
}

// TemplateData holds data for the printable portfolio
type TemplateData struct {
	Title       string
	GeneratedAt time.Time
	Content     content.Snapshot
}

// RenderPortfolioHTML renders the print layout of the portfolio.
func RenderPortfolioHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := portfolioTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
