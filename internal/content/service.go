package content

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"portfolio/api/internal/store"
)

// DocumentStore is the persistence the service mirrors every change to.
// *store.PostgresStore satisfies it.
type DocumentStore interface {
	ListAll(ctx context.Context, collection string) ([]store.Document, error)
	GetOrdered(ctx context.Context, collection, field string, direction store.Direction) ([]store.Document, error)
	Create(ctx context.Context, collection string, data any) (string, error)
	Replace(ctx context.Context, collection, id string, data any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
}

// Renderer is told about every successful change.
type Renderer interface {
	Render(Snapshot)
}

// Indexer keeps a search index in step with the collections.
type Indexer interface {
	Reindex(Snapshot)
}

// Archiver records a snapshot after a full save.
type Archiver interface {
	Commit(snapshot Snapshot, author, message string) (string, error)
}

// Source tells where the current collections came from.
type Source string

const (
	SourceNone  Source = ""
	SourceStore Source = "store"
	SourceSeed  Source = "seed"
)

type Option func(*Service)

func WithRenderer(r Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderers = append(s.renderers, r)
		}
	}
}

func WithIndexer(i Indexer) Option {
	return func(s *Service) { s.indexer = i }
}

func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSeed(seed Seed) Option {
	return func(s *Service) {
		s.seed = seed
		s.hasSeed = true
	}
}

func withDraftIDs(next func() string) Option {
	return func(s *Service) { s.newDraftID = next }
}

// Service owns the collections and the edit session. Every operation runs
// under one lock, so the store write and the local mutation of one operation
// are never interleaved with another.
type Service struct {
	mu         sync.Mutex
	store      DocumentStore
	state      State
	edit       Target
	source     Source
	seed       Seed
	hasSeed    bool
	renderers  []Renderer
	indexer    Indexer
	archiver   Archiver
	now        func() time.Time
	newDraftID func() string
}

func NewService(documents DocumentStore, opts ...Option) *Service {
	s := &Service{
		store:      documents,
		edit:       NoTarget{},
		now:        time.Now,
		newDraftID: draftID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.hasSeed {
		seed, err := DefaultSeed()
		if err != nil {
			log.Printf("content: embedded seed unavailable: %v", err)
		}
		s.seed = seed
	}
	s.state = State{Projects: []Project{}, Logs: []LogEntry{}, Skills: []SkillCategory{}}
	return s
}

// Load replaces all three collections from the store. If any read fails the
// seed dataset is used for all three. Any open edit session is dropped.
func (s *Service) Load(ctx context.Context) Source {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.fetch(ctx)
	if err != nil {
		log.Printf("content: load from store failed: %v", err)
		log.Printf("content: using seed dataset")
		state = s.seed.state()
		s.source = SourceSeed
	} else {
		s.source = SourceStore
	}
	s.state = state
	s.edit = NoTarget{}
	s.publish()
	return s.source
}

func (s *Service) fetch(ctx context.Context) (State, error) {
	if s.store == nil {
		return State{}, fmt.Errorf("no document store configured")
	}
	projectDocs, err := s.store.ListAll(ctx, store.CollectionProjects)
	if err != nil {
		return State{}, err
	}
	logDocs, err := s.store.GetOrdered(ctx, store.CollectionLogs, "timestamp", store.Descending)
	if err != nil {
		return State{}, err
	}
	// GetOrdered skips documents without a timestamp, such as persisted seed
	// entries. They follow the ordered ones in insertion order.
	allLogs, err := s.store.ListAll(ctx, store.CollectionLogs)
	if err != nil {
		return State{}, err
	}
	ordered := make(map[string]struct{}, len(logDocs))
	for _, doc := range logDocs {
		ordered[doc.ID] = struct{}{}
	}
	for _, doc := range allLogs {
		if _, ok := ordered[doc.ID]; !ok {
			logDocs = append(logDocs, doc)
		}
	}
	skillDocs, err := s.store.ListAll(ctx, store.CollectionSkills)
	if err != nil {
		return State{}, err
	}

	state := State{
		Projects: make([]Project, 0, len(projectDocs)),
		Logs:     make([]LogEntry, 0, len(logDocs)),
		Skills:   make([]SkillCategory, 0, len(skillDocs)),
	}
	for _, doc := range projectDocs {
		project, err := decodeProject(doc)
		if err != nil {
			log.Printf("content: skipping unreadable document: %v", err)
			continue
		}
		state.Projects = append(state.Projects, project)
	}
	for _, doc := range logDocs {
		entry, err := decodeLog(doc)
		if err != nil {
			log.Printf("content: skipping unreadable document: %v", err)
			continue
		}
		state.Logs = append(state.Logs, entry)
	}
	for _, doc := range skillDocs {
		category, err := decodeSkill(doc)
		if err != nil {
			log.Printf("content: skipping unreadable document: %v", err)
			continue
		}
		state.Skills = append(state.Skills, category)
	}
	sortLogs(state.Logs)
	return state, nil
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.snapshot()
}

func (s *Service) Source() Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// publish hands the current collections to the renderers and the indexer.
// Callers hold s.mu.
func (s *Service) publish() {
	if len(s.renderers) == 0 && s.indexer == nil {
		return
	}
	snapshot := s.state.snapshot()
	for _, r := range s.renderers {
		r.Render(snapshot)
	}
	if s.indexer != nil {
		s.indexer.Reindex(snapshot)
	}
}

func (s *Service) writeFailed(op, collection, id, entity string, err error) error {
	log.Printf("content: %s %s %s failed: %v", op, entity, id, err)
	return &WriteError{Op: op, Collection: collection, ID: id, Entity: entity, Err: err}
}

func notFound(entity, id string) error {
	log.Printf("content: %s %s not found", entity, id)
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}
