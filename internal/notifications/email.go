package notifications

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"

	"festreg/internal/shared/config"
)

// EmailSender delivers a notification to the participant's mailbox.
type EmailSender interface {
	Send(ctx context.Context, message *Message) error
}

const bookingEmailTemplate = `Subject: {{.Subject}}
From: {{.From}}
To: {{.To}}

Hello,

Your registration for {{.EventName}} ({{.SlotLabel}}) is now {{.Status}}.

See you at the festival!
`

type emailTemplateData struct {
	Subject   string
	From      string
	To        string
	EventName string
	SlotLabel string
	Status    string
}

// SMTPEmailSender sends plain-text booking emails over SMTP.
type SMTPEmailSender struct {
	cfg      config.EmailConfig
	template *template.Template
}

func NewSMTPEmailSender(cfg config.EmailConfig) (*SMTPEmailSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is not configured")
	}

	tmpl, err := template.New("booking").Parse(bookingEmailTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	return &SMTPEmailSender{cfg: cfg, template: tmpl}, nil
}

func (s *SMTPEmailSender) Send(ctx context.Context, message *Message) error {
	data := emailTemplateData{
		Subject:   fmt.Sprintf("Registration %s: %s", message.Status, message.EventName),
		From:      s.cfg.FromEmail,
		To:        message.Email,
		EventName: message.EventName,
		SlotLabel: message.SlotLabel,
		Status:    message.Status,
	}

	var body bytes.Buffer
	if err := s.template.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{message.Email}, body.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", message.Email, err)
	}

	return nil
}
