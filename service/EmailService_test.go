package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailService_BuildMessage(t *testing.T) {
	s := NewEmailService("smtp.mail.yahoo.com", 587, "sender@yahoo.com", "secret", "Account Service")

	m := s.buildMessage("a@x.com", "Your OTP for Signup/Login", "Your OTP is 123456.")

	assert.Equal(t, []string{"a@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Your OTP for Signup/Login"}, m.GetHeader("Subject"))
	from := m.GetHeader("From")
	if assert.Len(t, from, 1) {
		assert.Contains(t, from[0], "sender@yahoo.com")
		assert.Contains(t, from[0], "Account Service")
	}
	assert.Equal(t, "smtp.mail.yahoo.com", s.dialer.TLSConfig.ServerName)
}

func TestEmailService_HonoursCancelledContext(t *testing.T) {
	s := NewEmailService("127.0.0.1", 1, "u", "p", "n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, "a@x.com", "s", "b"), context.Canceled)
}
