package utils

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"gopkg.in/gomail.v2"
)

// Mailer delivers transactional mail. Transport errors are returned to the caller.
type Mailer interface {
	SendPasswordResetEmail(to, token string) error
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	ClientURL string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reset your password</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Password Reset Request</h2>
    <p>We received a request to reset the password of your LeadCatcher account.</p>
    <p><a href="{{.ResetLink}}" style="display: inline-block; padding: 10px 20px; background-color: #0f172a; color: white; text-decoration: none; border-radius: 4px;">Reset password</a></p>
    <p>This link expires in one hour. If you didn't request it, you can ignore this email.</p>
    <p style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">&copy; {{.Year}} LeadCatcher</p>
</body>
</html>`))

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) SendPasswordResetEmail(to, token string) error {
	if m.cfg.Host == "" {
		return errors.New("email configuration not initialized")
	}
	if err := checkmail.ValidateFormat(to); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}

	body, err := RenderPasswordResetEmail(ResetLink(m.cfg.ClientURL, token))
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Reset your LeadCatcher password")
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

// ResetLink points at the client's reset page with the token in the query.
func ResetLink(clientURL, token string) string {
	return strings.TrimRight(clientURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func RenderPasswordResetEmail(resetLink string) (string, error) {
	var body bytes.Buffer
	err := passwordResetTemplate.Execute(&body, struct {
		ResetLink string
		Year      int
	}{
		ResetLink: resetLink,
		Year:      time.Now().Year(),
	})
	if err != nil {
		return "", fmt.Errorf("error executing template: %w", err)
	}
	return body.String(), nil
}
