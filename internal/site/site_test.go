package site

import (
	"strings"
	"testing"

	"portfolio/api/internal/content"
)

func sampleSnapshot() content.Snapshot {
	return content.Snapshot{
		Projects: []content.Project{{
			ID:          "p1",
			Title:       "Retro Pi <Gaming>",
			Description: "Console build.",
			Tech:        []string{"Linux", "3D Printing"},
			Links:       []content.Link{{Text: "Docs", URL: "https://retropie.org.uk/"}},
		}},
		Logs:   []content.LogEntry{{ID: "l1", Date: "November, 2025", Title: "Backend", Content: "Added **Go** API.<script>alert(1)</script>"}},
		Skills: []content.SkillCategory{{ID: "s1", Category: "Systems", Items: []string{"Linux", "macOS"}}},
	}
}

func TestRenderCachesPublicPage(t *testing.T) {
	r, err := NewRenderer("Portfolio")
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	if r.Public() != nil {
		t.Fatal("expected no page before first render")
	}
	r.Render(sampleSnapshot())
	page := string(r.Public())

	for _, want := range []string{"Retro Pi &lt;Gaming&gt;", `class="tech-tag">3D Printing`, "<strong>Go</strong>", `href="https://retropie.org.uk/"`, "Systems"} {
		if !strings.Contains(page, want) {
			t.Fatalf("public page missing %q", want)
		}
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Fatal("raw HTML in log content must not be rendered")
	}
	if strings.Contains(page, `data-action="delete"`) {
		t.Fatal("public page must not carry admin controls")
	}
}

func TestAdminPageHasEditControls(t *testing.T) {
	r, err := NewRenderer("Portfolio")
	if err != nil {
		t.Fatal(err)
	}
	r.Render(sampleSnapshot())
	page, err := r.Admin("owner@example.com")
	if err != nil {
		t.Fatalf("Admin() error = %v", err)
	}
	html := string(page)
	for _, want := range []string{"Signed in as owner@example.com", `data-kind="skill-item" data-id="s1" data-index="1"`, `data-action="add-skill-item" data-id="s1"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("admin page missing %q", want)
		}
	}
}

func TestMarkdownDropsRawHTML(t *testing.T) {
	got := string(Markdown("- one\n- two\n\n<b>raw</b>"))
	if !strings.Contains(got, "<li>one</li>") {
		t.Fatalf("expected list markup, got %q", got)
	}
	if strings.Contains(got, "<b>raw</b>") {
		t.Fatalf("raw HTML leaked: %q", got)
	}
}
