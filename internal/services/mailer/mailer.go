package mailer

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Mailer is the outbound email contract. Callers treat sends as best-effort;
// the onboarding service never blocks on delivery.
type Mailer interface {
	SendOnboardingInvite(toEmail, candidateName, organizationName, token, baseURL string) error
}

// SMTPMailer delivers through a plain SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     getenv("SMTP_PORT", "587"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     getenv("SMTP_FROM", "onboarding@localhost"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func OnboardingURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/onboard/" + token
}

func (m *SMTPMailer) SendOnboardingInvite(toEmail, candidateName, organizationName, token, baseURL string) error {
	link := OnboardingURL(baseURL, token)

	subject := fmt.Sprintf("Welcome to %s — complete your onboarding", organizationName)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"%s has started your onboarding. Use the link below to complete it:\r\n\r\n"+
			"%s\r\n\r\n"+
			"This link expires, so please finish as soon as you can.\r\n",
		candidateName, organizationName, link,
	)

	msg := []byte(
		"From: " + m.From + "\r\n" +
			"To: " + toEmail + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n" +
			"\r\n" + body,
	)

	addr := m.Host + ":" + m.Port
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	return smtp.SendMail(addr, auth, m.From, []string{toEmail}, msg)
}

// LogMailer is the dev fallback when no SMTP relay is configured. It just
// logs the invite so the link is still reachable from the console.
type LogMailer struct{}

func (LogMailer) SendOnboardingInvite(toEmail, candidateName, organizationName, token, baseURL string) error {
	log.Printf("[mailer] onboarding invite for %s <%s> (org: %s): %s",
		candidateName, toEmail, organizationName, OnboardingURL(baseURL, token))
	return nil
}

// FromEnv picks the SMTP mailer when SMTP_HOST is set, the log mailer
// otherwise.
func FromEnv() Mailer {
	if os.Getenv("SMTP_HOST") == "" {
		return LogMailer{}
	}
	return NewSMTPMailer()
}
