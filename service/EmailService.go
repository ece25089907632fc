package service

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Notifier delivers a plaintext message to one address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailService is the SMTP Notifier
type EmailService struct {
	dialer *gomail.Dialer
	sender string
}

func NewEmailService(host string, port int, user, pass, senderName string) *EmailService {
	dialer := gomail.NewDialer(host, port, user, pass)
	dialer.TLSConfig = &tls.Config{ServerName: host}

	return &EmailService{
		dialer: dialer,
		sender: senderName,
	}
}

func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.buildMessage(to, subject, body)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *EmailService) buildMessage(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()

	// Example: "Account Service <sender@yahoo.com>"
	m.SetAddressHeader("From", s.dialer.Username, s.sender)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}
