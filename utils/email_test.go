package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPasswordResetEmailRequiresConfig(t *testing.T) {
	err := NewSMTPMailer(SMTPConfig{}).SendPasswordResetEmail("user@example.com", "tok")
	require.Error(t, err)
	assert.Equal(t, "email configuration not initialized", err.Error())
}

func TestSendPasswordResetEmailRejectsBadRecipient(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "smtp.invalid", Port: 587, From: "noreply@example.com"})

	err := mailer.SendPasswordResetEmail("not an address", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestResetLink(t *testing.T) {
	assert.Equal(t,
		"http://localhost:3000/reset-password?token=a.b.c",
		ResetLink("http://localhost:3000/", "a.b.c"),
	)
	assert.Equal(t,
		"https://app.example.com/reset-password?token=a%2Bb%26c",
		ResetLink("https://app.example.com", "a+b&c"),
	)
}

func TestRenderPasswordResetEmail(t *testing.T) {
	body, err := RenderPasswordResetEmail(`https://app.example.com/reset-password?token=x"><script>`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "Reset password")
	assert.NotContains(t, body, "<script>")
}
