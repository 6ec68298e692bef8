// Package email sends admin notifications over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("email not configured")

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

func NewService(config Config) *Service {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

// SignInAlert describes one successful admin sign-in.
type SignInAlert struct {
	SiteTitle  string
	AdminName  string
	At         time.Time
	RemoteAddr string
	UserAgent  string
}

// SaveSummary describes a completed bulk save.
type SaveSummary struct {
	SiteTitle string
	AdminName string
	Written   int
	Revision  string
	At        time.Time
}

func (s *Service) SendSignInAlert(to string, alert SignInAlert) error {
	body, err := render(signInTemplate, alert)
	if err != nil {
		return fmt.Errorf("render sign-in alert: %w", err)
	}
	return s.SendHTMLEmail([]string{to}, fmt.Sprintf("New sign-in to %s", alert.SiteTitle), body)
}

func (s *Service) SendSaveSummary(to string, summary SaveSummary) error {
	body, err := render(saveTemplate, summary)
	if err != nil {
		return fmt.Errorf("render save summary: %w", err)
	}
	return s.SendHTMLEmail([]string{to}, fmt.Sprintf("%s content saved", summary.SiteTitle), body)
}

func (s *Service) SendHTMLEmail(to []string, subject, htmlBody string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	msg := buildMessage(s.fromHeader(), to, subject, htmlBody)
	if err := s.send(s.server, s.auth, s.config.From, to, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (s *Service) fromHeader() string {
	if s.config.FromName == "" {
		return s.config.From
	}
	return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
}

const boundary = "portfolio-boundary"

func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "Please view this email in an HTML-capable email client.\r\n\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", htmlBody)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"stamp": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04 MST") },
}

var signInTemplate = template.Must(template.New("signin").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>New sign-in to {{.SiteTitle}}</title></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>{{.SiteTitle}}</h1>
    <p>Hi {{.AdminName}},</p>
    <p>Your admin account signed in on {{stamp .At}}.</p>
    <ul>
        <li>Address: {{.RemoteAddr}}</li>
        {{if .UserAgent}}<li>Browser: {{.UserAgent}}</li>{{end}}
    </ul>
    <p>If this wasn't you, change your password with <code>admin set-password</code>.</p>
</body>
</html>`))

var saveTemplate = template.Must(template.New("save").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.SiteTitle}} content saved</title></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>{{.SiteTitle}}</h1>
    <p>{{.AdminName}} saved {{.Written}} entries on {{stamp .At}}.</p>
    {{if .Revision}}<p>Archive revision: <code>{{.Revision}}</code></p>{{end}}
</body>
</html>`))
