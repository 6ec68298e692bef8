package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"portfolio/api/internal/store"
)

type storeCall struct {
	Op         string
	Collection string
	ID         string
}

// fakeStore keeps documents in memory and records every call. The fn fields
// override individual methods.
type fakeStore struct {
	mu     sync.Mutex
	docs   map[string]map[string]json.RawMessage
	order  map[string][]string
	calls  []storeCall
	nextID int

	listAllFn    func(context.Context, string) ([]store.Document, error)
	getOrderedFn func(context.Context, string, string, store.Direction) ([]store.Document, error)
	createFn     func(context.Context, string, any) (string, error)
	replaceFn    func(context.Context, string, string, any) error
	updateFn     func(context.Context, string, string, map[string]any) error
	deleteFn     func(context.Context, string, string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:  map[string]map[string]json.RawMessage{},
		order: map[string][]string{},
	}
}

func (f *fakeStore) record(op, collection, id string) {
	f.calls = append(f.calls, storeCall{Op: op, Collection: collection, ID: id})
}

func (f *fakeStore) put(collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]json.RawMessage{}
	}
	if _, ok := f.docs[collection][id]; !ok {
		f.order[collection] = append(f.order[collection], id)
	}
	f.docs[collection][id] = raw
	return nil
}

func (f *fakeStore) list(collection string) []store.Document {
	docs := make([]store.Document, 0, len(f.order[collection]))
	for _, id := range f.order[collection] {
		raw, ok := f.docs[collection][id]
		if !ok {
			continue
		}
		docs = append(docs, store.Document{Collection: collection, ID: id, Data: raw})
	}
	return docs
}

func (f *fakeStore) ListAll(ctx context.Context, collection string) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("listAll", collection, "")
	if f.listAllFn != nil {
		return f.listAllFn(ctx, collection)
	}
	return f.list(collection), nil
}

func (f *fakeStore) GetOrdered(ctx context.Context, collection, field string, direction store.Direction) ([]store.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("getOrdered", collection, "")
	if f.getOrderedFn != nil {
		return f.getOrderedFn(ctx, collection, field, direction)
	}
	docs := f.list(collection)
	values := make(map[string]string, len(docs))
	filtered := docs[:0]
	for _, doc := range docs {
		var fields map[string]any
		if err := json.Unmarshal(doc.Data, &fields); err != nil {
			return nil, err
		}
		value, ok := fields[field].(string)
		if !ok {
			continue
		}
		values[doc.ID] = value
		filtered = append(filtered, doc)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if direction == store.Descending {
			return values[filtered[i].ID] > values[filtered[j].ID]
		}
		return values[filtered[i].ID] < values[filtered[j].ID]
	})
	return filtered, nil
}

func (f *fakeStore) Create(ctx context.Context, collection string, data any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create", collection, "")
	if f.createFn != nil {
		return f.createFn(ctx, collection, data)
	}
	f.nextID++
	id := fmt.Sprintf("doc-%d", f.nextID)
	return id, f.put(collection, id, data)
}

func (f *fakeStore) Replace(ctx context.Context, collection, id string, data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("replace", collection, id)
	if f.replaceFn != nil {
		return f.replaceFn(ctx, collection, id, data)
	}
	return f.put(collection, id, data)
}

func (f *fakeStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update", collection, id)
	if f.updateFn != nil {
		return f.updateFn(ctx, collection, id, fields)
	}
	raw, ok := f.docs[collection][id]
	if !ok {
		return store.ErrDocumentNotFound
	}
	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return err
	}
	for key, value := range fields {
		merged[key] = value
	}
	return f.put(collection, id, merged)
}

func (f *fakeStore) Delete(ctx context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete", collection, id)
	if f.deleteFn != nil {
		return f.deleteFn(ctx, collection, id)
	}
	delete(f.docs[collection], id)
	kept := f.order[collection][:0]
	for _, existing := range f.order[collection] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	f.order[collection] = kept
	return nil
}

func (f *fakeStore) callsOf(op string) []storeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storeCall, 0)
	for _, call := range f.calls {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func (f *fakeStore) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeStore) raw(collection, id string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.docs[collection][id]
	if !ok {
		return nil
	}
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	return fields
}

type renderSpy struct {
	mu    sync.Mutex
	count int
	last  Snapshot
}

func (r *renderSpy) Render(snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	r.last = snapshot
}

func (r *renderSpy) renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

var errStoreDown = errors.New("store unavailable")

var fixedNow = time.Date(2025, time.November, 14, 9, 30, 0, 0, time.UTC)

func testSeed() Seed {
	return Seed{
		Projects: []Project{
			{ID: "1", Title: "Bible Audio App", Description: "Loops scripture audio.", Tech: []string{"JavaScript"}, Links: []Link{{Text: "View Details", URL: "https://example.com/a"}, {Text: "Live Demo", URL: "https://example.com/b"}}},
			{ID: "2", Title: "Retro Pi", Description: "Console build.", Tech: []string{"Linux"}, Links: []Link{}},
		},
		Logs: []LogEntry{
			{ID: "1", Date: "November, 2025", Title: "Portfolio site", Content: "Started the site."},
			{ID: "2", Date: "September, 2025", Title: "Case design", Content: "Third iteration."},
		},
		Skills: []SkillCategory{
			{ID: "1", Category: "Systems", Items: []string{"Linux", "macOS", "Windows"}},
			{ID: "2", Category: "Web", Items: []string{"HTML5"}},
		},
	}
}

// newSeededService returns a service loaded from the seed because the store
// refuses the initial read; later calls reach the fake normally.
func newSeededService(t *testing.T, opts ...Option) (*Service, *fakeStore) {
	t.Helper()
	fake := newFakeStore()
	fake.listAllFn = func(context.Context, string) ([]store.Document, error) { return nil, errStoreDown }
	ids := 0
	base := []Option{
		WithSeed(testSeed()),
		WithClock(func() time.Time { return fixedNow }),
		withDraftIDs(func() string {
			ids++
			return fmt.Sprintf("draft-%d", ids)
		}),
	}
	svc := NewService(fake, append(base, opts...)...)
	if source := svc.Load(context.Background()); source != SourceSeed {
		t.Fatalf("expected seed source, got %q", source)
	}
	fake.listAllFn = nil
	fake.resetCalls()
	return svc, fake
}
