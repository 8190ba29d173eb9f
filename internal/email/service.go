// Package email sends space membership notifications over SMTP.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

const appName = "Study Hub"

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	// PublicURL is the web client base used for links in messages.
	PublicURL string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service provides email sending
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

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s != nil && s.config.Host != "" && s.config.Port != "" && s.config.From != ""
}

func (s *Service) fromHeader() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	return s.config.From
}

// SendHTMLEmail sends a multipart/alternative message with a plain-text part.
func (s *Service) SendHTMLEmail(to []string, subject, textBody, htmlBody string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	msg := buildMessage(s.fromHeader(), to, subject, textBody, htmlBody)
	if err := s.send(s.server, s.auth, s.config.From, to, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, subject, textBody, htmlBody string) []byte {
	const boundary = "studyhub-alternative"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", textBody)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n")
	fmt.Fprintf(&msg, "%s\r\n\r\n", htmlBody)
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)
	return msg.Bytes()
}

// JoinRequestData fills the mail sent to a space admin.
type JoinRequestData struct {
	AppName       string
	AdminName     string
	RequesterName string
	SpaceTitle    string
	SpaceURL      string
}

// JoinDecisionData fills the mail sent to a requester.
type JoinDecisionData struct {
	AppName    string
	UserName   string
	SpaceTitle string
	SpaceURL   string
	Approved   bool
}

func (s *Service) spaceURL(spaceID string) string {
	return strings.TrimRight(s.config.PublicURL, "/") + "/spaces/" + spaceID
}

// SendJoinRequest tells the admin someone asked to join their space.
func (s *Service) SendJoinRequest(to, adminName, requesterName, spaceID, spaceTitle string) error {
	data := JoinRequestData{
		AppName:       appName,
		AdminName:     adminName,
		RequesterName: requesterName,
		SpaceTitle:    spaceTitle,
		SpaceURL:      s.spaceURL(spaceID),
	}
	html, err := render(joinRequestTemplate, data)
	if err != nil {
		return fmt.Errorf("render join request template: %w", err)
	}
	text := fmt.Sprintf("%s asked to join %q. Review the request at %s", requesterName, spaceTitle, data.SpaceURL)
	return s.SendHTMLEmail([]string{to}, fmt.Sprintf("New join request for %s", spaceTitle), text, html)
}

// SendJoinDecision tells a requester whether they were let in.
func (s *Service) SendJoinDecision(to, userName, spaceID, spaceTitle string, approved bool) error {
	data := JoinDecisionData{
		AppName:    appName,
		UserName:   userName,
		SpaceTitle: spaceTitle,
		SpaceURL:   s.spaceURL(spaceID),
		Approved:   approved,
	}
	html, err := render(joinDecisionTemplate, data)
	if err != nil {
		return fmt.Errorf("render join decision template: %w", err)
	}

	subject := fmt.Sprintf("Your request to join %s was declined", spaceTitle)
	text := fmt.Sprintf("Your request to join %q was declined.", spaceTitle)
	if approved {
		subject = fmt.Sprintf("You're in: %s", spaceTitle)
		text = fmt.Sprintf("Your request to join %q was approved. Open the space at %s", spaceTitle, data.SpaceURL)
	}
	return s.SendHTMLEmail([]string{to}, subject, text, html)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const layoutStyle = `body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #2f855a; padding-bottom: 10px; margin-bottom: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #2f855a; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee; font-size: 12px; color: #666; }`

var joinRequestTemplate = template.Must(template.New("join_request").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New join request</title>
    <style>` + layoutStyle + `</style>
</head>
<body>
    <div class="header"><h1>{{.AppName}}</h1></div>
    <p>Hi {{.AdminName}},</p>
    <p><strong>{{.RequesterName}}</strong> asked to join <strong>{{.SpaceTitle}}</strong>.</p>
    <p><a href="{{.SpaceURL}}" class="button">Review request</a></p>
    <div class="footer"><p>You receive this because you administer this space.</p></div>
</body>
</html>`))

var joinDecisionTemplate = template.Must(template.New("join_decision").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Join request {{if .Approved}}approved{{else}}declined{{end}}</title>
    <style>` + layoutStyle + `</style>
</head>
<body>
    <div class="header"><h1>{{.AppName}}</h1></div>
    <p>Hi {{.UserName}},</p>
    {{if .Approved}}
    <p>Your request to join <strong>{{.SpaceTitle}}</strong> was approved.</p>
    <p><a href="{{.SpaceURL}}" class="button">Open space</a></p>
    {{else}}
    <p>Your request to join <strong>{{.SpaceTitle}}</strong> was declined by the space admin.</p>
    {{end}}
    <div class="footer"><p>Sent by {{.AppName}}.</p></div>
</body>
</html>`))
