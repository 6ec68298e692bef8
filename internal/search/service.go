package search

import (
	"log"
	"sync"

	"portfolio/api/internal/content"
)

// Index is the write side of a search engine.
type Index interface {
	Searcher
	Upsert(rtyp ResultType, records any) error
	Delete(rtyp ResultType, id string) error
	IDs(rtyp ResultType) ([]string, error)
}

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	primary  Index
	fallback Searcher
	spawn    func(func())

	// mu serializes applies. indexed mirrors the engine's ids once synced.
	mu      sync.Mutex
	indexed map[ResultType]map[string]struct{}
	synced  bool
	applied uint64

	pendingMu sync.Mutex
	latest    Records
	latestGen uint64
}

// NewService creates a search service. primary may be nil if Meilisearch is
// not configured.
func NewService(primary Index, fallback Searcher) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		spawn:    func(f func()) { go f() },
		indexed:  map[ResultType]map[string]struct{}{},
	}
}

func (s *Service) primaryHealthy() bool {
	return s.primary != nil && s.primary.Healthy()
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.primaryHealthy() {
		results, total, err := s.primary.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}
	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// Reindex records snapshot as the newest content and pushes it to
// Meilisearch in the background. Applies run one at a time and always use the
// newest snapshot, so a slow older apply never overwrites a newer one.
func (s *Service) Reindex(snapshot content.Snapshot) {
	records := RecordsFromSnapshot(snapshot)
	s.pendingMu.Lock()
	s.latestGen++
	s.latest = records
	s.pendingMu.Unlock()

	if !s.primaryHealthy() {
		return
	}
	s.spawn(func() { s.flush(false) })
}

// Resync pushes the newest snapshot again and reconciles against the ids the
// engine actually holds. Meilisearch calls it when it becomes reachable again.
func (s *Service) Resync() {
	if s.primary == nil {
		return
	}
	s.spawn(func() { s.flush(true) })
}

func (s *Service) flush(force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingMu.Lock()
	records, gen := s.latest, s.latestGen
	s.pendingMu.Unlock()

	if gen == 0 || (!force && gen <= s.applied) {
		return
	}
	if force {
		s.synced = false
	}
	if !s.synced {
		s.loadIndexed()
	}
	s.apply(records)
	s.applied = gen
}

// loadIndexed replaces the in-memory id set with what the engine holds, so
// records deleted while the process was down or the engine unreachable are
// removed by the next apply.
func (s *Service) loadIndexed() {
	loaded := map[ResultType]map[string]struct{}{}
	for _, rtyp := range []ResultType{ResultProject, ResultLog, ResultSkill} {
		ids, err := s.primary.IDs(rtyp)
		if err != nil {
			log.Printf("search: list indexed %ss: %v", rtyp, err)
			return
		}
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		loaded[rtyp] = set
	}
	for rtyp, set := range loaded {
		for id := range s.indexed[rtyp] {
			set[id] = struct{}{}
		}
	}
	s.indexed = loaded
	s.synced = true
}

func (s *Service) apply(records Records) {
	batches := []struct {
		rtyp    ResultType
		count   int
		records any
	}{
		{ResultProject, len(records.Projects), records.Projects},
		{ResultLog, len(records.Logs), records.Logs},
		{ResultSkill, len(records.Skills), records.Skills},
	}
	current := records.ids()
	for _, batch := range batches {
		if batch.count > 0 {
			if err := s.primary.Upsert(batch.rtyp, batch.records); err != nil {
				log.Printf("search: index %ss: %v", batch.rtyp, err)
				continue
			}
		}

		keep := make(map[string]struct{}, batch.count)
		for _, id := range current[batch.rtyp] {
			keep[id] = struct{}{}
		}
		for id := range s.indexed[batch.rtyp] {
			if _, ok := keep[id]; ok {
				continue
			}
			if err := s.primary.Delete(batch.rtyp, id); err != nil {
				log.Printf("search: delete %s %s: %v", batch.rtyp, id, err)
				keep[id] = struct{}{}
			}
		}
		s.indexed[batch.rtyp] = keep
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
