// Package mailer sends transactional emails over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Message is a rendered email ready to send.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(msg Message) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SMTP is a Sender backed by gomail.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(cfg SMTPConfig) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTP) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", msg.Subject, msg.To, err)
	}
	return nil
}

const layout = `<!DOCTYPE html>
<html>
<head>
	<title>{{.Title}}</title>
	<style>
		body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
		.container { background-color: #ffffff; margin: 20px auto; padding: 20px; border-radius: 8px; max-width: 600px; }
		h1 { color: #333333; }
		p { color: #666666; }
		.code { font-weight: bold; color: #007bff; }
	</style>
</head>
<body>
	<div class="container">
		<h1>{{.Title}}</h1>
		{{range .Lines}}<p>{{.}}</p>{{end}}
		{{if .Code}}<p class="code">{{.Code}}</p>{{end}}
	</div>
</body>
</html>`

var page = template.Must(template.New("page").Parse(layout))

type pageData struct {
	Title string
	Lines []string
	Code  string
}

func render(to, title, code string, lines ...string) (Message, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, pageData{Title: title, Lines: lines, Code: code}); err != nil {
		return Message{}, err
	}
	text := title + "\n\n"
	for _, l := range lines {
		text += l + "\n"
	}
	if code != "" {
		text += "\n" + code + "\n"
	}
	return Message{To: to, Subject: title, Text: text, HTML: buf.String()}, nil
}

// ResetCodeMessage builds the password reset code email.
func ResetCodeMessage(to, code string) (Message, error) {
	return render(to, "Password Reset Code", code,
		"Your password reset code is below. It expires in 15 minutes.",
		"If you did not request a password reset, please ignore this email.")
}

// WelcomeMessage is sent after a practice registers.
func WelcomeMessage(to, name, practice string) (Message, error) {
	return render(to, "Welcome to PracticeManager", "",
		fmt.Sprintf("Hi %s,", name),
		fmt.Sprintf("%s is registered and your administrator account is ready.", practice),
		"Sign in to add your team, patients and files.")
}

// InvitationMessage is sent when an administrator adds a user.
func InvitationMessage(to, name, practice, username string) (Message, error) {
	return render(to, "You have been added to "+practice, "",
		fmt.Sprintf("Hi %s,", name),
		fmt.Sprintf("An administrator of %s created an account for you with the username %s.", practice, username),
		"Use the password reset option on the sign in page to choose your password.")
}
