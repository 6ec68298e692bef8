package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"portfolio/api/internal/archive"
	"portfolio/api/internal/authpw"
	"portfolio/api/internal/config"
	"portfolio/api/internal/content"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/media"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/search"
	sessionstore "portfolio/api/internal/session"
	"portfolio/api/internal/store"
)

// memoryDocs is an in-memory content.DocumentStore.
type memoryDocs struct {
	mu       sync.Mutex
	docs     map[string]map[string]json.RawMessage
	order    map[string][]string
	next     int
	writeErr error
	replaces int
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{docs: map[string]map[string]json.RawMessage{}, order: map[string][]string{}}
}

func (m *memoryDocs) put(collection, id string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]json.RawMessage{}
	}
	if _, ok := m.docs[collection][id]; !ok {
		m.order[collection] = append(m.order[collection], id)
	}
	m.docs[collection][id] = raw
	return nil
}

func (m *memoryDocs) list(collection string) []store.Document {
	out := make([]store.Document, 0, len(m.order[collection]))
	for _, id := range m.order[collection] {
		out = append(out, store.Document{Collection: collection, ID: id, Data: m.docs[collection][id]})
	}
	return out
}

func (m *memoryDocs) ListAll(_ context.Context, collection string) ([]store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(collection), nil
}

func (m *memoryDocs) GetOrdered(_ context.Context, collection, field string, direction store.Direction) ([]store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.list(collection)
	keyed := make([]store.Document, 0, len(docs))
	keys := map[string]string{}
	for _, doc := range docs {
		var fields map[string]any
		_ = json.Unmarshal(doc.Data, &fields)
		value, ok := fields[field].(string)
		if !ok {
			continue
		}
		keys[doc.ID] = value
		keyed = append(keyed, doc)
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		if direction == store.Descending {
			return keys[keyed[i].ID] > keys[keyed[j].ID]
		}
		return keys[keyed[i].ID] < keys[keyed[j].ID]
	})
	return keyed, nil
}

func (m *memoryDocs) Create(_ context.Context, collection string, data any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return "", m.writeErr
	}
	m.next++
	id := fmt.Sprintf("doc-%d", m.next)
	return id, m.put(collection, id, data)
}

func (m *memoryDocs) Replace(_ context.Context, collection, id string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.replaces++
	return m.put(collection, id, data)
}

func (m *memoryDocs) Update(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	raw, ok := m.docs[collection][id]
	if !ok {
		return store.ErrDocumentNotFound
	}
	var current map[string]any
	_ = json.Unmarshal(raw, &current)
	for k, v := range fields {
		current[k] = v
	}
	return m.put(collection, id, current)
}

func (m *memoryDocs) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	delete(m.docs[collection], id)
	kept := m.order[collection][:0]
	for _, existing := range m.order[collection] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	m.order[collection] = kept
	return nil
}

func (m *memoryDocs) failWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

type fakeAdmins struct {
	admins map[string]store.Admin
	pingFn func(context.Context) error
}

func (f *fakeAdmins) GetAdminByID(_ context.Context, id string) (store.Admin, error) {
	admin, ok := f.admins[id]
	if !ok {
		return store.Admin{}, sql.ErrNoRows
	}
	return admin, nil
}

func (f *fakeAdmins) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

// fakeSessions keeps refresh sessions and revocations in maps.
type fakeSessions struct {
	mu      sync.Mutex
	refresh map[string]string
	revoked map[string]bool
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{refresh: map[string]string{}, revoked: map[string]bool{}}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash, adminID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[tokenHash] = adminID
	return nil
}

func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	adminID, ok := f.refresh[tokenHash]
	if !ok {
		return "", sessionstore.ErrSessionNotFound
	}
	return adminID, nil
}

func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, tokenHash)
	return nil
}

func (f *fakeSessions) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = true
	return nil
}

func (f *fakeSessions) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[jti], nil
}

type fakeAuth struct {
	signInFn      func(ctx context.Context, email, password string) (store.Admin, error)
	setPasswordFn func(ctx context.Context, email, displayName, password string, role rbac.Role) (store.Admin, error)
}

func (f *fakeAuth) SetPassword(ctx context.Context, email, displayName, password string, role rbac.Role) (store.Admin, error) {
	if f.setPasswordFn != nil {
		return f.setPasswordFn(ctx, email, displayName, password, role)
	}
	return store.Admin{ID: "adm-new", Email: email, DisplayName: displayName, PasswordHash: "hash", Role: string(role)}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (store.Admin, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return store.Admin{}, authpw.ErrInvalidCredentials
}

type fakePages struct{}

func (fakePages) Public() []byte { return []byte("<html>public</html>") }

func (fakePages) Admin(adminEmail string) ([]byte, error) {
	return []byte("<html>admin " + adminEmail + "</html>"), nil
}

type fakeSearcher struct {
	queries []search.Query
}

func (f *fakeSearcher) Search(q search.Query) search.Response {
	f.queries = append(f.queries, q)
	return search.Response{Results: []search.Result{{Type: search.ResultProject, ID: "1", Title: "Home Lab"}}, Total: 1, Query: q.Text}
}

type fakeExporter struct {
	exportFn func(context.Context) (*export.Result, error)
}

func (f *fakeExporter) ExportPDF(ctx context.Context) (*export.Result, error) {
	return f.exportFn(ctx)
}

type fakeHistory struct {
	entries []archive.Entry
}

func (f *fakeHistory) History(limit int) ([]archive.Entry, error) {
	if limit > 0 && len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeHistory) Snapshot(hash string) (content.Snapshot, []archive.Change, error) {
	for _, entry := range f.entries {
		if entry.Hash == hash {
			return content.Snapshot{Projects: []content.Project{{ID: "1", Title: "Home Lab"}}},
				[]archive.Change{{Collection: "projects", ID: "1", Kind: archive.ChangeAdded}}, nil
		}
	}
	return content.Snapshot{}, nil, fmt.Errorf("%w: %s", archive.ErrRevisionNotFound, hash)
}

type fakeUploader struct {
	received []byte
	types    []string
}

func (f *fakeUploader) UploadImage(_ context.Context, contentType string, size int64, body io.Reader) (media.Upload, error) {
	if contentType != "image/png" {
		return media.Upload{}, media.ErrUnsupportedType
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return media.Upload{}, err
	}
	f.received = data
	f.types = append(f.types, contentType)
	return media.Upload{Key: "projects/img_1.png", URL: "https://cdn.example.com/projects/img_1.png", Size: size}, nil
}

type sentMail struct {
	to      string
	alert   *email.SignInAlert
	summary *email.SaveSummary
}

type fakeMailer struct {
	configured bool
	sent       []sentMail
}

func (f *fakeMailer) IsConfigured() bool { return f.configured }

func (f *fakeMailer) SendSignInAlert(to string, alert email.SignInAlert) error {
	f.sent = append(f.sent, sentMail{to: to, alert: &alert})
	return nil
}

func (f *fakeMailer) SendSaveSummary(to string, summary email.SaveSummary) error {
	f.sent = append(f.sent, sentMail{to: to, summary: &summary})
	return nil
}

type testEnv struct {
	service  *Service
	server   *HTTPServer
	docs     *memoryDocs
	admins   *fakeAdmins
	sessions *fakeSessions
	auth     *fakeAuth
	search   *fakeSearcher
	history  *fakeHistory
	media    *fakeUploader
	mailer   *fakeMailer
	exporter *fakeExporter
}

var testNow = time.Date(2025, 11, 14, 9, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		docs: newMemoryDocs(),
		admins: &fakeAdmins{admins: map[string]store.Admin{
			"adm-owner":   {ID: "adm-owner", Email: "owner@example.com", DisplayName: "Owner", Role: "owner"},
			"adm-editor":  {ID: "adm-editor", Email: "editor@example.com", Role: "editor"},
			"adm-visitor": {ID: "adm-visitor", Email: "visitor@example.com", Role: "visitor"},
		}},
		sessions: newFakeSessions(),
		auth:     &fakeAuth{},
		search:   &fakeSearcher{},
		history:  &fakeHistory{},
		media:    &fakeUploader{},
		mailer:   &fakeMailer{configured: true},
		exporter: &fakeExporter{exportFn: func(context.Context) (*export.Result, error) {
			return &export.Result{Data: []byte("%PDF-1.7"), Filename: "portfolio.pdf", MimeType: "application/pdf"}, nil
		}},
	}
	contentSvc := content.NewService(env.docs, content.WithSeed(content.Seed{}), content.WithClock(func() time.Time { return testNow }))
	contentSvc.Load(context.Background())

	cfg := config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		SiteTitle:  "Portfolio",
	}
	env.service = New(cfg, Deps{
		Admins:   env.admins,
		Sessions: env.sessions,
		Auth:     env.auth,
		Content:  contentSvc,
		Pages:    fakePages{},
		Search:   env.search,
		Export:   env.exporter,
		History:  env.history,
		Media:    env.media,
		Mailer:   env.mailer,
	})
	env.service.now = func() time.Time { return time.Now() }
	env.service.spawn = func(f func()) { f() }
	env.server = NewHTTPServer(env.service, "*")
	return env
}

// login issues a session for one of the fixture admins.
func (e *testEnv) login(t *testing.T, adminID string) Session {
	t.Helper()
	session, err := e.service.issueSession(context.Background(), e.admins.admins[adminID])
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}
	return session
}

var errStoreDown = errors.New("store unavailable")
