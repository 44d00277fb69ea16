package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/warestock/order-service/internal/notification"
)

// Mailer renders a template and delivers the message.
type Mailer interface {
	Send(template, recipient string, templateCtx map[string]string) error
}

var templates = map[string]*template.Template{
	notification.TemplateVerification: template.Must(template.New("verification").Parse(
		"Subject: Confirm your email address\r\n\r\n" +
			"Follow this link to confirm your email: {{.verification_url}}\r\n")),
	notification.TemplateOrderConfirmation: template.Must(template.New("order_confirmation").Parse(
		"Subject: Order confirmation\r\n\r\n" +
			"Your order {{.order_id}} has been created.\r\n{{.line_summary}}\r\n")),
	notification.TemplateVerificationReminder: template.Must(template.New("verification_reminder").Parse(
		"Subject: Reminder: confirm your email address\r\n\r\n" +
			"Please confirm your email by following this link: {{.verification_url}}\r\n")),
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type smtpMailer struct {
	cfg *SMTPConfig
}

func NewSMTPMailer(cfg *SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(tmplName, recipient string, templateCtx map[string]string) error {
	tmpl, ok := templates[tmplName]
	if !ok {
		return fmt.Errorf("unknown email template %q", tmplName)
	}

	var body bytes.Buffer
	fmt.Fprintf(&body, "From: %s\r\nTo: %s\r\n", m.cfg.From, recipient)
	if err := tmpl.Execute(&body, templateCtx); err != nil {
		return fmt.Errorf("render template %q: %w", tmplName, err)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	return smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, body.Bytes())
}
