package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxProjects = "portfolio_projects"
	idxLogs     = "portfolio_logs"
	idxSkills   = "portfolio_skills"
)

var indexByType = map[ResultType]string{
	ResultProject: idxProjects,
	ResultLog:     idxLogs,
	ResultSkill:   idxSkills,
}

// Meili implements Searcher and Index via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}

	mu        sync.Mutex
	onRecover func()
}

// NewMeili creates a Meilisearch client and configures indexes. An
// unreachable server is tolerated; a background loop keeps checking.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))
	m := &Meili{client: client, done: make(chan struct{})}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		searchable []string
	}{
		{uid: idxProjects, searchable: []string{"title", "description", "tech"}},
		{uid: idxLogs, searchable: []string{"title", "content", "date"}},
		{uid: idxSkills, searchable: []string{"category", "items"}},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idx.uid, PrimaryKey: "id"}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}
		searchable := idx.searchable
		if _, err := m.client.Index(idx.uid).UpdateSearchableAttributes(&searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
				m.mu.Lock()
				hook := m.onRecover
				m.mu.Unlock()
				if hook != nil {
					hook()
				}
			}
		}
	}
}

// OnRecover registers fn to run after Meilisearch becomes reachable again.
func (m *Meili) OnRecover(fn func()) {
	m.mu.Lock()
	m.onRecover = fn
	m.mu.Unlock()
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search runs one query per index (or only the filtered one) and merges hits.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}
	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	for _, rtyp := range []ResultType{ResultProject, ResultLog, ResultSkill} {
		if q.FilterType != "" && q.FilterType != rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              indexByType[rtyp],
			Query:                 q.Text,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		})
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{Queries: queries})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}
	return results, total, nil
}

func indexType(uid string) ResultType {
	for rtyp, index := range indexByType {
		if index == uid {
			return rtyp
		}
	}
	return ""
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp, ID: decodeString(hit, "id")}
	switch rtyp {
	case ResultProject:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "description"), decodeString(hit, "description"))
	case ResultLog:
		r.Title = firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "content"), decodeString(hit, "content"))
	case ResultSkill:
		r.Title = firstNonBlank(decodeFormattedString(hit, "category"), decodeString(hit, "category"))
		r.Snippet = strings.Join(decodeStrings(hit, "items"), ", ")
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeStrings(hit meili.Hit, key string) []string {
	raw, ok := hit[key]
	if !ok {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

// decodeFormattedString reads the highlighted value of a string field.
// Array fields are skipped.
func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(formatted[key], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// Upsert adds or replaces records in the index for rtyp.
func (m *Meili) Upsert(rtyp ResultType, records any) error {
	_, err := m.client.Index(indexByType[rtyp]).AddDocuments(records, nil)
	return err
}

// Delete removes one record from the index for rtyp.
func (m *Meili) Delete(rtyp ResultType, id string) error {
	_, err := m.client.Index(indexByType[rtyp]).DeleteDocument(id, nil)
	return err
}

const idsPageSize = 1000

// IDs lists every record id held in the index for rtyp.
func (m *Meili) IDs(rtyp ResultType) ([]string, error) {
	index := m.client.Index(indexByType[rtyp])
	var ids []string
	for offset := int64(0); ; offset += idsPageSize {
		var page meili.DocumentsResult
		query := &meili.DocumentsQuery{Offset: offset, Limit: idsPageSize, Fields: []string{"id"}}
		if err := index.GetDocuments(query, &page); err != nil {
			return nil, fmt.Errorf("list %s ids: %w", indexByType[rtyp], err)
		}
		for _, hit := range page.Results {
			if id := decodeString(hit, "id"); id != "" {
				ids = append(ids, id)
			}
		}
		if int64(len(page.Results)) < idsPageSize {
			return ids, nil
		}
	}
}
