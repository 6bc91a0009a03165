package services

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendInviteEmail(email, name, tempPassword string) error
	SendAnalysisShareEmail(email, documentName, link string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
}

// NewEmailService returns a sender that only logs when smtpHost is empty.
func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail, frontendURL string) EmailService {
	s := &emailService{from: fromEmail, frontendURL: frontendURL}
	if smtpHost != "" {
		s.dialer = gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	}
	return s
}

func (s *emailService) send(to, subject, body string) error {
	if s.dialer == nil {
		slog.Warn("smtp not configured, email skipped", "to", to, "subject", subject)
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendInviteEmail(email, name, tempPassword string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to Metrika, %s!</h2>
		<p>You have been invited to join the team.</p>
		<p>Sign in at <a href="%s/login">%s/login</a> with your email and this temporary password:</p>
		<p><strong>%s</strong></p>
		<p>Please change it after the first sign in.</p>
	`, name, s.frontendURL, s.frontendURL, tempPassword)

	if err := s.send(email, "You are invited to Metrika", body); err != nil {
		return fmt.Errorf("failed to send invite email: %w", err)
	}
	return nil
}

func (s *emailService) SendAnalysisShareEmail(email, documentName, link string) error {
	body := fmt.Sprintf(`
		<h3>An analysis was shared with you</h3>
		<p>Document: <strong>%s</strong></p>
		<p>Open it here: <a href="%s">%s</a></p>
	`, documentName, link, link)

	if err := s.send(email, "Document analysis shared with you", body); err != nil {
		return fmt.Errorf("failed to send analysis share email: %w", err)
	}
	return nil
}
