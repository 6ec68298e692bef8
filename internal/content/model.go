// Package content owns the portfolio collections (projects, journal logs and
// skill categories), the single admin edit session over them, and the
// operations that mirror every change to the document store.
package content

import (
	"fmt"
	"strings"
	"time"

	"portfolio/api/internal/store"
)

// TimestampLayout is the stored form of log timestamps. It is fixed-width UTC
// so that lexical order in the store equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

type Link struct {
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

type Project struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Tech        []string `json:"tech" yaml:"tech"`
	Links       []Link   `json:"links" yaml:"links"`
	Image       string   `json:"image" yaml:"image"`
}

type LogEntry struct {
	ID        string     `json:"id" yaml:"id"`
	Date      string     `json:"date" yaml:"date"`
	Title     string     `json:"title" yaml:"title"`
	Content   string     `json:"content" yaml:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"-"`
}

type SkillCategory struct {
	ID       string   `json:"id" yaml:"id"`
	Category string   `json:"category" yaml:"category"`
	Items    []string `json:"items" yaml:"items"`
}

// Snapshot is a deep copy of all three collections.
type Snapshot struct {
	Projects []Project       `json:"projects"`
	Logs     []LogEntry      `json:"logs"`
	Skills   []SkillCategory `json:"skills"`
}

// Len is the total number of entities across the collections.
func (s Snapshot) Len() int {
	return len(s.Projects) + len(s.Logs) + len(s.Skills)
}

func (p Project) clone() Project {
	out := p
	out.Tech = append(make([]string, 0, len(p.Tech)), p.Tech...)
	out.Links = append(make([]Link, 0, len(p.Links)), p.Links...)
	return out
}

// normalize keeps tech and links non-nil.
func (p Project) normalize() Project {
	if p.Tech == nil {
		p.Tech = []string{}
	}
	if p.Links == nil {
		p.Links = []Link{}
	}
	return p
}

func (l LogEntry) clone() LogEntry {
	out := l
	if l.Timestamp != nil {
		ts := *l.Timestamp
		out.Timestamp = &ts
	}
	return out
}

func (c SkillCategory) clone() SkillCategory {
	out := c
	out.Items = append(make([]string, 0, len(c.Items)), c.Items...)
	return out
}

func (c SkillCategory) normalize() SkillCategory {
	if c.Items == nil {
		c.Items = []string{}
	}
	return c
}

// SplitTech turns the comma-separated tech field into trimmed tags. Empty
// tokens are dropped so an empty field yields an empty list.
func SplitTech(value string) []string {
	parts := strings.Split(value, ",")
	tech := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		tech = append(tech, token)
	}
	return tech
}

// logDocument is the stored shape of a LogEntry.
type logDocument struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (l LogEntry) document() logDocument {
	doc := logDocument{ID: l.ID, Date: l.Date, Title: l.Title, Content: l.Content}
	if l.Timestamp != nil {
		doc.Timestamp = l.Timestamp.UTC().Format(TimestampLayout)
	}
	return doc
}

func decodeProject(doc store.Document) (Project, error) {
	var project Project
	if err := doc.Decode(&project); err != nil {
		return Project{}, fmt.Errorf("decode project %s: %w", doc.ID, err)
	}
	project.ID = doc.ID
	return project.normalize(), nil
}

func decodeLog(doc store.Document) (LogEntry, error) {
	var stored logDocument
	if err := doc.Decode(&stored); err != nil {
		return LogEntry{}, fmt.Errorf("decode log %s: %w", doc.ID, err)
	}
	entry := LogEntry{ID: doc.ID, Date: stored.Date, Title: stored.Title, Content: stored.Content}
	if stored.Timestamp != "" {
		ts, err := parseTimestamp(stored.Timestamp)
		if err != nil {
			return LogEntry{}, fmt.Errorf("decode log %s timestamp: %w", doc.ID, err)
		}
		entry.Timestamp = &ts
	}
	return entry, nil
}

func decodeSkill(doc store.Document) (SkillCategory, error) {
	var category SkillCategory
	if err := doc.Decode(&category); err != nil {
		return SkillCategory{}, fmt.Errorf("decode skill category %s: %w", doc.ID, err)
	}
	category.ID = doc.ID
	return category.normalize(), nil
}

func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(TimestampLayout, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

// skillFields is the full category sent through the partial update call.
func skillFields(c SkillCategory) map[string]any {
	return map[string]any{
		"category": c.Category,
		"items":    c.Items,
	}
}
