package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio/api/internal/archive"
	"portfolio/api/internal/auth"
	"portfolio/api/internal/authpw"
	"portfolio/api/internal/content"
	"portfolio/api/internal/export"
	"portfolio/api/internal/media"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/search"
	sessionstore "portfolio/api/internal/session"
)

const sessionCookie = "portfolio_session"

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}
	read := r.Method == http.MethodGet || r.Method == http.MethodHead

	if read && r.URL.Path == "/" {
		page, err := s.service.PublicPage()
		if err != nil {
			s.fail(w, err)
			return
		}
		writeHTML(w, http.StatusOK, page)
		return
	}

	if read && r.URL.Path == "/admin" {
		session, ok := s.requireAction(w, r, rbac.ActionEdit)
		if !ok {
			return
		}
		page, err := s.service.AdminPage(session)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeHTML(w, http.StatusOK, page)
		return
	}

	if read && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if read && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
			"content":  map[string]any{"status": "ok", "source": s.service.Content().Source()},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if read && r.URL.Path == "/api/content" {
		isAdmin := false
		if session, err := s.optionalSession(r); err == nil {
			isAdmin = s.service.IsAdmin(session)
		}
		snapshot := s.service.Content().Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"projects": snapshot.Projects,
			"logs":     snapshot.Logs,
			"skills":   snapshot.Skills,
			"source":   s.service.Content().Source(),
			"isAdmin":  isAdmin,
		})
		return
	}

	if read && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if read && r.URL.Path == "/api/export.pdf" {
		result, err := s.service.ExportPDF(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleSignIn(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		session, err := s.optionalSession(r)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "isAdmin": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"isAdmin":       s.service.IsAdmin(session),
			"adminId":       session.AdminID,
			"email":         session.Email,
			"displayName":   session.DisplayName,
			"role":          session.Role,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(err).write(w)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		setSessionCookie(w, session)
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		session, _ := s.optionalSession(r)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": "Signed out."})
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		errRouteNotFound.write(w)
		return
	}

	switch parts[1] {
	case "projects":
		s.handleProjects(w, r, parts[2:])
		return
	case "logs":
		s.handleLogs(w, r, parts[2:])
		return
	case "skills":
		s.handleSkills(w, r, parts[2:])
		return
	case "edit":
		s.handleEdit(w, r, parts[2:])
		return
	case "save":
		if r.Method == http.MethodPost && len(parts) == 2 {
			s.handleSave(w, r)
			return
		}
	case "history":
		if read {
			s.handleHistory(w, r, parts[2:])
			return
		}
	case "media":
		if r.Method == http.MethodPost && len(parts) == 2 {
			s.handleMedia(w, r)
			return
		}
	case "admins":
		if r.Method == http.MethodPost && len(parts) == 2 {
			s.handleProvisionAdmin(w, r)
			return
		}
	}

	errRouteNotFound.write(w)
}

func (s *HTTPServer) handleProvisionAdmin(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireAction(w, r, rbac.ActionManage)
	if !ok {
		return
	}
	var body struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		Password    string `json:"password"`
		Role        string `json:"role"`
	}
	if err := decodeBody(r, &body); err != nil {
		invalidBody(err).write(w)
		return
	}
	role := rbac.Role(strings.TrimSpace(body.Role))
	if role == "" {
		role = rbac.RoleEditor
	}
	admin, err := s.service.ProvisionAdmin(r.Context(), session, body.Email, body.DisplayName, body.Password, role)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"admin": map[string]any{
			"id":          admin.ID,
			"email":       admin.Email,
			"displayName": admin.DisplayName,
			"role":        admin.Role,
		},
		"notice": "Admin account saved.",
	})
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		invalidBody(err).write(w)
		return
	}
	session, err := s.service.SignIn(r.Context(), body.Email, body.Password, SignInMeta{
		RemoteAddr: clientAddr(r),
		UserAgent:  r.UserAgent(),
	})
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		errBadLogin.write(w)
		return
	}
	if err != nil {
		log.Printf("auth: sign in: %v", err)
		writeError(w, http.StatusInternalServerError, "SESSION_FAILED", "Failed to create session", nil)
		return
	}
	setSessionCookie(w, session)
	payload := sessionPayload(session)
	payload["notice"] = "Logged in successfully!"
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	q := search.Query{
		Text:       strings.TrimSpace(values.Get("q")),
		FilterType: search.ParseResultType(values.Get("type")),
		Limit:      20,
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit > 0 && limit <= 100 {
		q.Limit = limit
	}
	if offset, err := strconv.Atoi(values.Get("offset")); err == nil && offset > 0 {
		q.Offset = offset
	}
	if q.Text == "" {
		writeJSON(w, http.StatusOK, search.Response{Results: []search.Result{}})
		return
	}
	response, err := s.service.Search(q)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleProjects serves /api/projects, /api/projects/draft and /api/projects/{id}.
func (s *HTTPServer) handleProjects(w http.ResponseWriter, r *http.Request, rest []string) {
	if _, ok := s.requireAction(w, r, rbac.ActionEdit); !ok {
		return
	}
	svc := s.service.Content()

	switch {
	case r.Method == http.MethodPost && len(rest) == 0:
		var body struct {
			Title       string         `json:"title"`
			Description string         `json:"description"`
			Tech        []string       `json:"tech"`
			Links       []content.Link `json:"links"`
			Image       string         `json:"image"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(err).write(w)
			return
		}
		if strings.TrimSpace(body.Title) == "" {
			validationFailed("title is required").write(w)
			return
		}
		project, err := svc.AddProject(r.Context(), content.Project{
			Title:       body.Title,
			Description: body.Description,
			Tech:        body.Tech,
			Links:       body.Links,
			Image:       body.Image,
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"project": project, "notice": "Project saved successfully!"})
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "draft":
		project, err := svc.AddNewProject(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"project": project, "edit": editPayload(svc)})
	case r.Method == http.MethodDelete && len(rest) == 1:
		if err := svc.DeleteProject(r.Context(), rest[0]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": "Project deleted successfully!"})
	default:
		errRouteNotFound.write(w)
	}
}

func (s *HTTPServer) handleLogs(w http.ResponseWriter, r *http.Request, rest []string) {
	if _, ok := s.requireAction(w, r, rbac.ActionEdit); !ok {
		return
	}
	svc := s.service.Content()

	switch {
	case r.Method == http.MethodPost && len(rest) == 0:
		var body struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(err).write(w)
			return
		}
		if strings.TrimSpace(body.Title) == "" || strings.TrimSpace(body.Content) == "" {
			validationFailed("title and content are required").write(w)
			return
		}
		entry, err := svc.AddJournalEntry(r.Context(), body.Title, body.Content)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"log": entry, "notice": "Journal entry saved successfully!"})
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "draft":
		entry, err := svc.AddNewLog(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"log": entry, "edit": editPayload(svc)})
	case r.Method == http.MethodDelete && len(rest) == 1:
		if err := svc.DeleteLog(r.Context(), rest[0]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": "Log entry deleted successfully!"})
	default:
		errRouteNotFound.write(w)
	}
}

// handleSkills serves categories and, under /items, their individual items.
func (s *HTTPServer) handleSkills(w http.ResponseWriter, r *http.Request, rest []string) {
	if _, ok := s.requireAction(w, r, rbac.ActionEdit); !ok {
		return
	}
	svc := s.service.Content()

	switch {
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "draft":
		category, err := svc.AddNewSkillCategory(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"skill": category, "edit": editPayload(svc)})
	case r.Method == http.MethodDelete && len(rest) == 1:
		if err := svc.DeleteSkillCategory(r.Context(), rest[0]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": "Skill category deleted successfully!"})
	case r.Method == http.MethodPost && len(rest) == 2 && rest[1] == "items":
		if _, err := svc.AddNewSkillItem(r.Context(), rest[0]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"edit": editPayload(svc)})
	case r.Method == http.MethodDelete && len(rest) == 3 && rest[1] == "items":
		index, err := strconv.Atoi(rest[2])
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INDEX", "item index must be an integer", nil)
			return
		}
		if err := svc.DeleteSkillItem(r.Context(), rest[0], index); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": "Skill item deleted successfully!"})
	default:
		errRouteNotFound.write(w)
	}
}

// handleEdit exposes the single edit session: read, begin, commit, cancel.
func (s *HTTPServer) handleEdit(w http.ResponseWriter, r *http.Request, rest []string) {
	if _, ok := s.requireAction(w, r, rbac.ActionEdit); !ok {
		return
	}
	svc := s.service.Content()

	switch {
	case r.Method == http.MethodGet && len(rest) == 0:
		writeJSON(w, http.StatusOK, editPayload(svc))
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "begin":
		var body struct {
			Kind  string `json:"kind"`
			ID    string `json:"id"`
			Index *int   `json:"index"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(err).write(w)
			return
		}
		target, err := content.ParseTarget(body.Kind, body.ID, body.Index)
		if err != nil {
			s.fail(w, err)
			return
		}
		if err := svc.Begin(target); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, editPayload(svc))
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "commit":
		var body struct {
			Fields map[string]string `json:"fields"`
		}
		if err := decodeBody(r, &body); err != nil {
			invalidBody(err).write(w)
			return
		}
		target, err := svc.Commit(r.Context(), content.Form(body.Fields))
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notice": updatedNotice(target)})
	case r.Method == http.MethodPost && len(rest) == 1 && rest[0] == "cancel":
		svc.Cancel()
		writeJSON(w, http.StatusOK, editPayload(svc))
	default:
		errRouteNotFound.write(w)
	}
}

func (s *HTTPServer) handleSave(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireAction(w, r, rbac.ActionPublish)
	if !ok {
		return
	}
	written, err := s.service.SaveAll(r.Context(), session)
	if err != nil {
		status, code, message, _ := mapError(err)
		writeError(w, status, code, message, map[string]any{"written": written})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "written": written, "notice": "All changes saved successfully!"})
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request, rest []string) {
	if _, ok := s.requireAction(w, r, rbac.ActionPublish); !ok {
		return
	}
	switch len(rest) {
	case 0:
		limit := 50
		if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
			limit = parsed
		}
		entries, err := s.service.History(limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	case 1:
		snapshot, changes, err := s.service.Revision(rest[0])
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hash": rest[0], "content": snapshot, "changes": changes})
	default:
		errRouteNotFound.write(w)
	}
}

func (s *HTTPServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAction(w, r, rbac.ActionUpload); !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, media.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "expected a multipart form with a file field", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "file field is required", nil)
		return
	}
	defer file.Close()

	upload, err := s.service.UploadImage(r.Context(), header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"url": upload.URL, "key": upload.Key, "size": upload.Size})
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := sessionToken(r)
	if token == "" {
		errUnauthorized.write(w)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, sql.ErrNoRows) {
			errUnauthorized.write(w)
			return Session{}, false
		}
		log.Printf("auth: session lookup: %v", err)
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) requireAction(w http.ResponseWriter, r *http.Request, action rbac.Action) (Session, bool) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return Session{}, false
	}
	if !s.service.Can(session.Role, action) {
		log.Printf("auth: admin %s (%s) denied %s on %s", session.AdminID, session.Role, action, r.URL.Path)
		errForbidden.write(w)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) optionalSession(r *http.Request) (Session, error) {
	token := sessionToken(r)
	if token == "" {
		return Session{}, auth.ErrInvalidToken
	}
	return s.service.SessionFromToken(r.Context(), token)
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("http: %s: %v", code, err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(page)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// sessionToken prefers the Authorization header over the session cookie.
func sessionToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, session Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"accessToken":  session.Token,
		"refreshToken": session.RefreshToken,
		"adminId":      session.AdminID,
		"email":        session.Email,
		"displayName":  session.DisplayName,
		"role":         session.Role,
		"expiresAt":    session.ExpiresAt.Unix(),
	}
}

func editPayload(svc *content.Service) map[string]any {
	target, form := svc.Current()
	payload := map[string]any{
		"kind": target.Kind(),
		"id":   content.TargetID(target),
		"form": form,
	}
	if item, ok := target.(content.SkillItemTarget); ok {
		payload["index"] = item.Index
	}
	return payload
}

func updatedNotice(target content.Target) string {
	switch target.(type) {
	case content.ProjectTarget:
		return "Project updated successfully!"
	case content.LogTarget:
		return "Log entry updated successfully!"
	case content.SkillCategoryTarget:
		return "Skill category updated successfully!"
	case content.SkillItemTarget:
		return "Skill item updated successfully!"
	default:
		return "Entry updated successfully!"
	}
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var writeErr *content.WriteError
	if errors.As(err, &writeErr) {
		return http.StatusBadGateway, "WRITE_FAILED", writeErr.Notice(), map[string]any{"op": writeErr.Op, "collection": writeErr.Collection}
	}
	switch {
	case errors.Is(err, content.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error(), nil
	case errors.Is(err, content.ErrIncompleteForm):
		return http.StatusUnprocessableEntity, "INCOMPLETE_FORM", "Please fill in every field.", nil
	case errors.Is(err, content.ErrNoEditSession):
		return http.StatusConflict, "NO_EDIT_SESSION", "Nothing is being edited.", nil
	case errors.Is(err, content.ErrInvalidTarget):
		return http.StatusBadRequest, "INVALID_TARGET", err.Error(), nil
	case errors.Is(err, authpw.ErrInvalidEmail), errors.Is(err, authpw.ErrWeakPassword):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return errBadLogin.Status, errBadLogin.Code, errBadLogin.Message, nil
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, sessionstore.ErrSessionNotFound):
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	case errors.Is(err, media.ErrEmpty), errors.Is(err, media.ErrUnsupportedType):
		return http.StatusBadRequest, "INVALID_UPLOAD", err.Error(), nil
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", err.Error(), nil
	case errors.Is(err, export.ErrContentUnavailable):
		return http.StatusNotFound, "NOT_FOUND", "Nothing to export yet", nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export requires Chromium", nil
	case errors.Is(err, archive.ErrRevisionNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Revision not found", nil
	case errors.Is(err, ErrFeatureDisabled):
		return http.StatusServiceUnavailable, "FEATURE_DISABLED", "This feature is not configured", nil
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
