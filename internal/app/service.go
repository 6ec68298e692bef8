package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"portfolio/api/internal/archive"
	"portfolio/api/internal/auth"
	"portfolio/api/internal/config"
	"portfolio/api/internal/content"
	"portfolio/api/internal/email"
	"portfolio/api/internal/export"
	"portfolio/api/internal/media"
	"portfolio/api/internal/rbac"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	AdminID      string
	Email        string
	DisplayName  string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

// SignInMeta is request information included in sign-in alerts.
type SignInMeta struct {
	RemoteAddr string
	UserAgent  string
}

type adminStore interface {
	GetAdminByID(ctx context.Context, id string) (store.Admin, error)
	Ping(ctx context.Context) error
}

// SessionStore keeps refresh sessions and revoked access tokens.
// *store.PostgresStore and *session.RedisStore satisfy it.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, adminID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type authenticator interface {
	SignIn(ctx context.Context, email, password string) (store.Admin, error)
	SetPassword(ctx context.Context, email, displayName, password string, role rbac.Role) (store.Admin, error)
}

type pageRenderer interface {
	Public() []byte
	Admin(adminEmail string) ([]byte, error)
}

type searcher interface {
	Search(q search.Query) search.Response
}

type exporter interface {
	ExportPDF(ctx context.Context) (*export.Result, error)
}

type historyReader interface {
	History(limit int) ([]archive.Entry, error)
	Snapshot(hash string) (content.Snapshot, []archive.Change, error)
}

type uploader interface {
	UploadImage(ctx context.Context, contentType string, size int64, body io.Reader) (media.Upload, error)
}

type mailer interface {
	IsConfigured() bool
	SendSignInAlert(to string, alert email.SignInAlert) error
	SendSaveSummary(to string, summary email.SaveSummary) error
}

// Deps are the collaborators of Service. Admins, Sessions, Auth and Content
// are required; the rest switch their endpoints off when nil.
type Deps struct {
	Admins   adminStore
	Sessions SessionStore
	Auth     authenticator
	Content  *content.Service
	Pages    pageRenderer
	Search   searcher
	Export   exporter
	History  historyReader
	Media    uploader
	Mailer   mailer
}

type Service struct {
	cfg      config.Config
	admins   adminStore
	sessions SessionStore
	auth     authenticator
	content  *content.Service
	pages    pageRenderer
	search   searcher
	export   exporter
	history  historyReader
	media    uploader
	mailer   mailer
	now      func() time.Time
	spawn    func(func())
}

var ErrFeatureDisabled = errors.New("feature not configured")

func New(cfg config.Config, deps Deps) *Service {
	return &Service{
		cfg:      cfg,
		admins:   deps.Admins,
		sessions: deps.Sessions,
		auth:     deps.Auth,
		content:  deps.Content,
		pages:    deps.Pages,
		search:   deps.Search,
		export:   deps.Export,
		history:  deps.History,
		media:    deps.Media,
		mailer:   deps.Mailer,
		now:      time.Now,
		spawn:    func(f func()) { go f() },
	}
}

func (s *Service) Content() *content.Service {
	return s.content
}

// SignIn checks the credentials and opens a session. A sign-in alert is
// mailed in the background when SMTP is configured.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string, meta SignInMeta) (Session, error) {
	admin, err := s.auth.SignIn(ctx, emailAddr, password)
	if err != nil {
		return Session{}, err
	}
	session, err := s.issueSession(ctx, admin)
	if err != nil {
		return Session{}, err
	}
	log.Printf("auth: admin %s signed in from %s", admin.ID, meta.RemoteAddr)
	s.notify(func(m mailer) error {
		return m.SendSignInAlert(admin.Email, email.SignInAlert{
			SiteTitle:  s.cfg.SiteTitle,
			AdminName:  displayName(admin),
			At:         s.now(),
			RemoteAddr: meta.RemoteAddr,
			UserAgent:  meta.UserAgent,
		})
	})
	return session, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token required", nil)
	}
	tokenHash := auth.HashToken(refreshToken)
	adminID, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	admin, err := s.admins.GetAdminByID(ctx, adminID)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, admin)
}

func (s *Service) issueSession(ctx context.Context, admin store.Admin) (Session, error) {
	now := s.now()
	claims := auth.NewClaims(admin.ID, admin.Email, admin.Role, s.cfg.AccessTTL, now)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), claims)
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewToken()
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), admin.ID, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		AdminID:      admin.ID,
		Email:        admin.Email,
		DisplayName:  displayName(admin),
		Role:         admin.Role,
		JTI:          claims.JTI,
		ExpiresAt:    claims.ExpiresAt(),
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	admin, err := s.admins.GetAdminByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, fmt.Errorf("load admin %s: %w", claims.Sub, err)
	}
	return Session{
		Token:       token,
		AdminID:     admin.ID,
		Email:       admin.Email,
		DisplayName: displayName(admin),
		Role:        admin.Role,
		JTI:         claims.JTI,
		ExpiresAt:   claims.ExpiresAt(),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		if err := s.sessions.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			log.Printf("auth: revoke access token: %v", err)
		}
	}
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			log.Printf("auth: revoke refresh session: %v", err)
		}
	}
	return nil
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// ProvisionAdmin creates an admin account or replaces the password and role
// of an existing one. Callers check rbac.ActionManage first.
func (s *Service) ProvisionAdmin(ctx context.Context, actor Session, email, displayName, password string, role rbac.Role) (store.Admin, error) {
	admin, err := s.auth.SetPassword(ctx, email, displayName, password, role)
	if err != nil {
		return store.Admin{}, err
	}
	log.Printf("auth: %s provisioned admin %s (%s)", actor.Email, admin.Email, admin.Role)
	return admin, nil
}

// IsAdmin reports whether session may use the admin panel.
func (s *Service) IsAdmin(session Session) bool {
	return session.AdminID != "" && s.Can(session.Role, rbac.ActionEdit)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.admins.Ping(ctx)
}

// SaveAll writes every entity and mails a summary to the admin who saved.
func (s *Service) SaveAll(ctx context.Context, session Session) (int, error) {
	written, err := s.content.SaveAll(ctx, session.Email)
	if err != nil {
		return written, err
	}
	summary := email.SaveSummary{
		SiteTitle: s.cfg.SiteTitle,
		AdminName: session.DisplayName,
		Written:   written,
		At:        s.now(),
	}
	if s.history != nil {
		if entries, err := s.history.History(1); err == nil && len(entries) > 0 {
			summary.Revision = entries[0].Hash
		}
	}
	s.notify(func(m mailer) error { return m.SendSaveSummary(session.Email, summary) })
	return written, nil
}

func (s *Service) PublicPage() ([]byte, error) {
	if s.pages == nil {
		return nil, ErrFeatureDisabled
	}
	return s.pages.Public(), nil
}

func (s *Service) AdminPage(session Session) ([]byte, error) {
	if s.pages == nil {
		return nil, ErrFeatureDisabled
	}
	return s.pages.Admin(session.Email)
}

func (s *Service) Search(q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, ErrFeatureDisabled
	}
	return s.search.Search(q), nil
}

func (s *Service) ExportPDF(ctx context.Context) (*export.Result, error) {
	if s.export == nil {
		return nil, ErrFeatureDisabled
	}
	return s.export.ExportPDF(ctx)
}

func (s *Service) History(limit int) ([]archive.Entry, error) {
	if s.history == nil {
		return nil, ErrFeatureDisabled
	}
	return s.history.History(limit)
}

func (s *Service) Revision(hash string) (content.Snapshot, []archive.Change, error) {
	if s.history == nil {
		return content.Snapshot{}, nil, ErrFeatureDisabled
	}
	return s.history.Snapshot(hash)
}

func (s *Service) UploadImage(ctx context.Context, contentType string, size int64, body io.Reader) (media.Upload, error) {
	if s.media == nil {
		return media.Upload{}, ErrFeatureDisabled
	}
	upload, err := s.media.UploadImage(ctx, contentType, size, body)
	if err != nil {
		return media.Upload{}, err
	}
	log.Printf("media: stored %s (%d bytes)", upload.Key, upload.Size)
	return upload, nil
}

func (s *Service) notify(send func(mailer) error) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}
	m := s.mailer
	s.spawn(func() {
		if err := send(m); err != nil {
			log.Printf("email: %v", err)
		}
	})
}

func displayName(admin store.Admin) string {
	if strings.TrimSpace(admin.DisplayName) != "" {
		return admin.DisplayName
	}
	name, _, _ := strings.Cut(admin.Email, "@")
	return name
}
