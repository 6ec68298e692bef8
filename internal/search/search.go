// Package search indexes portfolio content in Meilisearch and falls back to
// PostgreSQL full-text search when Meilisearch is unavailable.
package search

import (
	"strings"

	"portfolio/api/internal/content"
	"portfolio/api/internal/store"
)

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject ResultType = "project"
	ResultLog     ResultType = "log"
	ResultSkill   ResultType = "skill"
)

// ParseResultType accepts the values of the type query parameter. Unknown
// values and "" mean all types.
func ParseResultType(value string) ResultType {
	switch ResultType(strings.ToLower(strings.TrimSpace(value))) {
	case ResultProject:
		return ResultProject
	case ResultLog:
		return ResultLog
	case ResultSkill:
		return ResultSkill
	default:
		return ""
	}
}

func (t ResultType) collection() string {
	switch t {
	case ResultProject:
		return store.CollectionProjects
	case ResultLog:
		return store.CollectionLogs
	case ResultSkill:
		return store.CollectionSkills
	default:
		return ""
	}
}

func collectionType(collection string) ResultType {
	switch collection {
	case store.CollectionProjects:
		return ResultProject
	case store.CollectionLogs:
		return ResultLog
	case store.CollectionSkills:
		return ResultSkill
	default:
		return ""
	}
}

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tech        []string `json:"tech"`
}

// LogRecord is the data we index for a journal entry.
type LogRecord struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SkillRecord is the data we index for a skill category.
type SkillRecord struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Records is one full set of indexable content.
type Records struct {
	Projects []ProjectRecord
	Logs     []LogRecord
	Skills   []SkillRecord
}

// RecordsFromSnapshot flattens a content snapshot into index records.
func RecordsFromSnapshot(snapshot content.Snapshot) Records {
	records := Records{
		Projects: make([]ProjectRecord, 0, len(snapshot.Projects)),
		Logs:     make([]LogRecord, 0, len(snapshot.Logs)),
		Skills:   make([]SkillRecord, 0, len(snapshot.Skills)),
	}
	for _, p := range snapshot.Projects {
		records.Projects = append(records.Projects, ProjectRecord{ID: p.ID, Title: p.Title, Description: p.Description, Tech: p.Tech})
	}
	for _, l := range snapshot.Logs {
		records.Logs = append(records.Logs, LogRecord{ID: l.ID, Date: l.Date, Title: l.Title, Content: l.Content})
	}
	for _, c := range snapshot.Skills {
		records.Skills = append(records.Skills, SkillRecord{ID: c.ID, Category: c.Category, Items: c.Items})
	}
	return records
}

func (r Records) ids() map[ResultType][]string {
	ids := map[ResultType][]string{}
	for _, p := range r.Projects {
		ids[ResultProject] = append(ids[ResultProject], p.ID)
	}
	for _, l := range r.Logs {
		ids[ResultLog] = append(ids[ResultLog], l.ID)
	}
	for _, c := range r.Skills {
		ids[ResultSkill] = append(ids[ResultSkill], c.ID)
	}
	return ids
}
