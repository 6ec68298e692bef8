package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"portfolio/api/internal/archive"
	"portfolio/api/internal/auth"
	"portfolio/api/internal/authpw"
	"portfolio/api/internal/export"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
)

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)

	payload := map[string]any{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") && rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, payload
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/health", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if payload["ok"] != true {
		t.Fatalf("expected ok=true, got %v", payload)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
}

func TestReadyEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/ready", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if payload["status"] != "ready" {
		t.Fatalf("unexpected payload %v", payload)
	}

	env.admins.pingFn = func(context.Context) error { return errors.New("connection refused") }
	rr, payload = env.do(t, http.MethodGet, "/api/ready", "", nil)
	expectStatus(t, rr, http.StatusServiceUnavailable)
	checks := payload["checks"].(map[string]any)
	database := checks["database"].(map[string]any)
	if database["status"] != "error" || database["error"] != "connection refused" {
		t.Fatalf("unexpected database check %v", database)
	}
}

func TestSignIn(t *testing.T) {
	env := newTestEnv(t)
	env.auth.signInFn = func(_ context.Context, email, password string) (store.Admin, error) {
		if email == "owner@example.com" && password == "correct horse" {
			return env.admins.admins["adm-owner"], nil
		}
		return store.Admin{}, errors.New("unreachable")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"email":"owner@example.com","password":"correct horse"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusOK)

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatal(err)
	}
	if payload["accessToken"] == "" || payload["refreshToken"] == "" || payload["notice"] != "Logged in successfully!" {
		t.Fatalf("unexpected payload %v", payload)
	}
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value != payload["accessToken"] {
		t.Fatalf("expected HttpOnly session cookie, got %+v", cookie)
	}
	refresh := payload["refreshToken"].(string)
	if env.sessions.refresh[auth.HashToken(refresh)] != "adm-owner" {
		t.Fatal("refresh token should be stored hashed")
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].alert == nil || env.mailer.sent[0].alert.RemoteAddr != "203.0.113.7" {
		t.Fatalf("expected one sign-in alert, got %+v", env.mailer.sent)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodPost, "/api/auth/signin", "", map[string]string{"email": "owner@example.com", "password": "nope"})
	expectStatus(t, rr, http.StatusUnauthorized)
	if payload["code"] != "INVALID_CREDENTIALS" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(env.sessions.refresh) != 0 || len(env.mailer.sent) != 0 {
		t.Fatal("a failed sign-in must not open a session")
	}
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, payload := env.do(t, http.MethodGet, "/api/session", "", nil)
	if payload["authenticated"] != false {
		t.Fatalf("expected anonymous session, got %v", payload)
	}

	owner := env.login(t, "adm-owner")
	_, payload = env.do(t, http.MethodGet, "/api/session", owner.Token, nil)
	if payload["authenticated"] != true || payload["isAdmin"] != true || payload["email"] != "owner@example.com" {
		t.Fatalf("unexpected payload %v", payload)
	}

	visitor := env.login(t, "adm-visitor")
	_, payload = env.do(t, http.MethodGet, "/api/session", visitor.Token, nil)
	if payload["isAdmin"] != false {
		t.Fatalf("visitor must not be admin, got %v", payload)
	}
}

func TestSessionFromCookie(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: owner.Token})
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), "admin owner@example.com") {
		t.Fatalf("unexpected admin page %q", rr.Body.String())
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected html, got %q", rr.Header().Get("Content-Type"))
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")

	rr, payload := env.do(t, http.MethodPost, "/api/session/refresh", "", map[string]string{"refreshToken": owner.RefreshToken})
	expectStatus(t, rr, http.StatusOK)
	next := payload["refreshToken"].(string)
	if next == "" || next == owner.RefreshToken {
		t.Fatalf("expected a new refresh token, got %q", next)
	}

	rr, _ = env.do(t, http.MethodPost, "/api/session/refresh", "", map[string]string{"refreshToken": owner.RefreshToken})
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestLogoutRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")

	rr, _ := env.do(t, http.MethodPost, "/api/session/logout", owner.Token, map[string]string{"refreshToken": owner.RefreshToken})
	expectStatus(t, rr, http.StatusOK)

	_, payload := env.do(t, http.MethodGet, "/api/session", owner.Token, nil)
	if payload["authenticated"] != false {
		t.Fatalf("revoked token should not authenticate, got %v", payload)
	}
	rr, _ = env.do(t, http.MethodPost, "/api/session/refresh", "", map[string]string{"refreshToken": owner.RefreshToken})
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestAdminRoutesRequireSessionAndRole(t *testing.T) {
	env := newTestEnv(t)
	rr, _ := env.do(t, http.MethodPost, "/api/projects/draft", "", nil)
	expectStatus(t, rr, http.StatusUnauthorized)

	visitor := env.login(t, "adm-visitor")
	rr, payload := env.do(t, http.MethodPost, "/api/projects/draft", visitor.Token, nil)
	expectStatus(t, rr, http.StatusForbidden)
	if payload["code"] != "FORBIDDEN" {
		t.Fatalf("unexpected payload %v", payload)
	}

	rr, _ = env.do(t, http.MethodGet, "/admin", "", nil)
	expectStatus(t, rr, http.StatusUnauthorized)
}

func TestProvisionAdminRequiresManage(t *testing.T) {
	env := newTestEnv(t)
	var gotRole rbac.Role
	env.auth.setPasswordFn = func(_ context.Context, email, displayName, password string, role rbac.Role) (store.Admin, error) {
		gotRole = role
		return store.Admin{ID: "adm-new", Email: email, DisplayName: displayName, PasswordHash: "secret-hash", Role: string(role)}, nil
	}
	body := map[string]any{"email": "new@example.com", "displayName": "New", "password": "long enough"}

	editor := env.login(t, "adm-editor")
	rr, _ := env.do(t, http.MethodPost, "/api/admins", editor.Token, body)
	expectStatus(t, rr, http.StatusForbidden)

	owner := env.login(t, "adm-owner")
	rr, payload := env.do(t, http.MethodPost, "/api/admins", owner.Token, body)
	expectStatus(t, rr, http.StatusCreated)
	admin := payload["admin"].(map[string]any)
	if admin["email"] != "new@example.com" || admin["role"] != "editor" || gotRole != rbac.RoleEditor {
		t.Fatalf("unexpected admin %v (role %q)", admin, gotRole)
	}
	if _, leaked := admin["passwordHash"]; leaked {
		t.Fatalf("password hash must not be returned: %v", admin)
	}

	env.auth.setPasswordFn = func(context.Context, string, string, string, rbac.Role) (store.Admin, error) {
		return store.Admin{}, authpw.ErrWeakPassword
	}
	rr, payload = env.do(t, http.MethodPost, "/api/admins", owner.Token, map[string]any{"email": "x@example.com", "password": "short"})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if payload["code"] != "VALIDATION_ERROR" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	editor := env.login(t, "adm-editor")

	rr, payload := env.do(t, http.MethodPost, "/api/projects", editor.Token, map[string]any{
		"title":       "Home Lab",
		"description": "Proxmox cluster",
		"tech":        []string{"Proxmox", "Docker"},
	})
	expectStatus(t, rr, http.StatusCreated)
	if payload["notice"] != "Project saved successfully!" {
		t.Fatalf("unexpected payload %v", payload)
	}
	id := payload["project"].(map[string]any)["id"].(string)

	_, listing := env.do(t, http.MethodGet, "/api/content", editor.Token, nil)
	projects := listing["projects"].([]any)
	if len(projects) != 1 || listing["isAdmin"] != true {
		t.Fatalf("unexpected content %v", listing)
	}

	rr, payload = env.do(t, http.MethodDelete, "/api/projects/"+id, editor.Token, nil)
	expectStatus(t, rr, http.StatusOK)
	if payload["notice"] != "Project deleted successfully!" {
		t.Fatalf("unexpected payload %v", payload)
	}

	rr, payload = env.do(t, http.MethodDelete, "/api/projects/"+id, editor.Token, nil)
	expectStatus(t, rr, http.StatusNotFound)
	if payload["code"] != "NOT_FOUND" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestPublicContentHidesAdminFlag(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/content", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if payload["isAdmin"] != false || payload["source"] != "store" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestEditProjectFlow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")

	rr, payload := env.do(t, http.MethodPost, "/api/projects/draft", owner.Token, nil)
	expectStatus(t, rr, http.StatusCreated)
	edit := payload["edit"].(map[string]any)
	if edit["kind"] != "project" {
		t.Fatalf("draft should open an edit session, got %v", edit)
	}
	form := edit["form"].(map[string]any)
	if form["title"] != "New Project" {
		t.Fatalf("unexpected prefill %v", form)
	}

	rr, payload = env.do(t, http.MethodPost, "/api/edit/commit", owner.Token, map[string]any{
		"fields": map[string]string{"title": "Home Lab"},
	})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if payload["code"] != "INCOMPLETE_FORM" {
		t.Fatalf("unexpected payload %v", payload)
	}

	id := edit["id"].(string)
	rr, _ = env.do(t, http.MethodPost, "/api/edit/begin", owner.Token, map[string]any{"kind": "project", "id": id})
	expectStatus(t, rr, http.StatusOK)
	rr, payload = env.do(t, http.MethodPost, "/api/edit/commit", owner.Token, map[string]any{
		"fields": map[string]string{
			"title":       "Home Lab",
			"description": "Proxmox cluster",
			"tech":        "Go, Rust , C++",
			"image":       "lab.png",
		},
	})
	expectStatus(t, rr, http.StatusOK)
	if payload["notice"] != "Project updated successfully!" {
		t.Fatalf("unexpected payload %v", payload)
	}

	project := env.service.Content().Snapshot().Projects[0]
	if strings.Join(project.Tech, "|") != "Go|Rust|C++" {
		t.Fatalf("unexpected tech %v", project.Tech)
	}

	_, payload = env.do(t, http.MethodGet, "/api/edit", owner.Token, nil)
	if payload["kind"] != "none" {
		t.Fatalf("commit should close the session, got %v", payload)
	}
}

func TestEditBeginRejectsUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")

	rr, payload := env.do(t, http.MethodPost, "/api/edit/begin", owner.Token, map[string]any{"kind": "project", "id": "missing"})
	expectStatus(t, rr, http.StatusNotFound)
	if payload["code"] != "NOT_FOUND" {
		t.Fatalf("unexpected payload %v", payload)
	}
	rr, payload = env.do(t, http.MethodPost, "/api/edit/begin", owner.Token, map[string]any{"kind": "widget", "id": "1"})
	expectStatus(t, rr, http.StatusBadRequest)
	if payload["code"] != "INVALID_TARGET" {
		t.Fatalf("unexpected payload %v", payload)
	}
	rr, payload = env.do(t, http.MethodPost, "/api/edit/commit", owner.Token, map[string]any{"fields": map[string]string{}})
	expectStatus(t, rr, http.StatusConflict)
	if payload["code"] != "NO_EDIT_SESSION" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestSkillItemRoutes(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")

	rr, payload := env.do(t, http.MethodPost, "/api/skills/draft", owner.Token, nil)
	expectStatus(t, rr, http.StatusCreated)
	id := payload["skill"].(map[string]any)["id"].(string)

	for i := 0; i < 3; i++ {
		rr, payload = env.do(t, http.MethodPost, "/api/skills/"+id+"/items", owner.Token, nil)
		expectStatus(t, rr, http.StatusCreated)
	}
	edit := payload["edit"].(map[string]any)
	if edit["kind"] != "skill-item" || edit["index"] != float64(2) {
		t.Fatalf("expected edit on the new item, got %v", edit)
	}

	rr, _ = env.do(t, http.MethodDelete, "/api/skills/"+id+"/items/0", owner.Token, nil)
	expectStatus(t, rr, http.StatusOK)
	if got := len(env.service.Content().Snapshot().Skills[0].Items); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}

	rr, payload = env.do(t, http.MethodDelete, "/api/skills/"+id+"/items/x", owner.Token, nil)
	expectStatus(t, rr, http.StatusBadRequest)
	if payload["code"] != "INVALID_INDEX" {
		t.Fatalf("unexpected payload %v", payload)
	}
	rr, _ = env.do(t, http.MethodDelete, "/api/skills/"+id+"/items/9", owner.Token, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestJournalEntryRoutes(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")

	rr, payload := env.do(t, http.MethodPost, "/api/logs", owner.Token, map[string]string{"title": "Backend", "content": "Go API."})
	expectStatus(t, rr, http.StatusCreated)
	if payload["notice"] != "Journal entry saved successfully!" {
		t.Fatalf("unexpected payload %v", payload)
	}
	rr, _ = env.do(t, http.MethodPost, "/api/logs", owner.Token, map[string]string{"title": "Backend"})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr, payload = env.do(t, http.MethodPost, "/api/logs/draft", owner.Token, nil)
	expectStatus(t, rr, http.StatusCreated)
	logs := env.service.Content().Snapshot().Logs
	if len(logs) != 2 || logs[0].ID != payload["log"].(map[string]any)["id"] {
		t.Fatalf("draft log should come first, got %+v", logs)
	}
}

func TestWriteFailureReturnsNotice(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")
	_, payload := env.do(t, http.MethodPost, "/api/projects", owner.Token, map[string]any{"title": "Home Lab"})
	id := payload["project"].(map[string]any)["id"].(string)

	env.docs.failWrites(errStoreDown)
	rr, payload := env.do(t, http.MethodDelete, "/api/projects/"+id, owner.Token, nil)
	expectStatus(t, rr, http.StatusBadGateway)
	if payload["code"] != "WRITE_FAILED" || payload["error"] != "Error deleting project. Check the server log for details." {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(env.service.Content().Snapshot().Projects) != 1 {
		t.Fatal("failed delete must leave the project in place")
	}
}

func TestSaveAll(t *testing.T) {
	env := newTestEnv(t)
	owner := env.login(t, "adm-owner")
	env.do(t, http.MethodPost, "/api/projects", owner.Token, map[string]any{"title": "Home Lab"})
	env.do(t, http.MethodPost, "/api/logs", owner.Token, map[string]string{"title": "Backend", "content": "Go API."})
	env.history.entries = []archive.Entry{{Hash: "abc1234"}}
	env.mailer.sent = nil

	rr, payload := env.do(t, http.MethodPost, "/api/save", owner.Token, nil)
	expectStatus(t, rr, http.StatusOK)
	if payload["written"] != float64(2) || payload["notice"] != "All changes saved successfully!" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].summary == nil || env.mailer.sent[0].summary.Revision != "abc1234" {
		t.Fatalf("expected save summary mail, got %+v", env.mailer.sent)
	}

	env.docs.failWrites(errStoreDown)
	rr, payload = env.do(t, http.MethodPost, "/api/save", owner.Token, nil)
	expectStatus(t, rr, http.StatusBadGateway)
	details := payload["details"].(map[string]any)
	if details["written"] != float64(0) {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestHistoryRoutes(t *testing.T) {
	env := newTestEnv(t)
	editor := env.login(t, "adm-editor")
	env.history.entries = []archive.Entry{{Hash: "abc1234", Message: "Save"}, {Hash: "def5678", Message: "Save"}}

	rr, payload := env.do(t, http.MethodGet, "/api/history?limit=1", editor.Token, nil)
	expectStatus(t, rr, http.StatusOK)
	if len(payload["entries"].([]any)) != 1 {
		t.Fatalf("unexpected payload %v", payload)
	}

	rr, payload = env.do(t, http.MethodGet, "/api/history/abc1234", editor.Token, nil)
	expectStatus(t, rr, http.StatusOK)
	if len(payload["changes"].([]any)) != 1 {
		t.Fatalf("unexpected payload %v", payload)
	}

	rr, _ = env.do(t, http.MethodGet, "/api/history/0000000", editor.Token, nil)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestDisabledFeatures(t *testing.T) {
	env := newTestEnv(t)
	env.service.history = nil
	env.service.media = nil
	owner := env.login(t, "adm-owner")

	rr, payload := env.do(t, http.MethodGet, "/api/history", owner.Token, nil)
	expectStatus(t, rr, http.StatusServiceUnavailable)
	if payload["code"] != "FEATURE_DISABLED" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func multipartUpload(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="lab.png"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &body, writer.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	env := newTestEnv(t)
	editor := env.login(t, "adm-editor")

	body, contentType := multipartUpload(t, "image/png", []byte("\x89PNG"))
	req := httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+editor.Token)
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusCreated)
	if !strings.Contains(rr.Body.String(), "https://cdn.example.com/projects/img_1.png") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if string(env.media.received) != "\x89PNG" {
		t.Fatalf("unexpected upload %q", env.media.received)
	}

	body, contentType = multipartUpload(t, "application/pdf", []byte("%PDF"))
	req = httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+editor.Token)
	rr = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestSearchRoute(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/search?q=", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if len(env.search.queries) != 0 || len(payload["results"].([]any)) != 0 {
		t.Fatal("empty query should not reach the search engine")
	}

	rr, payload = env.do(t, http.MethodGet, "/api/search?q=proxmox&type=project&limit=5&offset=10", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if payload["total"] != float64(1) {
		t.Fatalf("unexpected payload %v", payload)
	}
	got := env.search.queries[0]
	if got.Text != "proxmox" || got.FilterType != search.ResultProject || got.Limit != 5 || got.Offset != 10 {
		t.Fatalf("unexpected query %+v", got)
	}
}

func TestExportRoute(t *testing.T) {
	env := newTestEnv(t)
	rr, _ := env.do(t, http.MethodGet, "/api/export.pdf", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if rr.Header().Get("Content-Type") != "application/pdf" || rr.Body.String() != "%PDF-1.7" {
		t.Fatalf("unexpected response %q %q", rr.Header().Get("Content-Type"), rr.Body.String())
	}

	env.exporter.exportFn = func(context.Context) (*export.Result, error) { return nil, export.ErrPDFDependencyMissing }
	rr, payload := env.do(t, http.MethodGet, "/api/export.pdf", "", nil)
	expectStatus(t, rr, http.StatusServiceUnavailable)
	if payload["code"] != "EXPORT_UNAVAILABLE" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestPublicPage(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusOK)
	if rr.Body.String() != "<html>public</html>" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/nope", "", nil)
	expectStatus(t, rr, http.StatusNotFound)
	if payload["code"] != "NOT_FOUND" {
		t.Fatalf("unexpected payload %v", payload)
	}
}
