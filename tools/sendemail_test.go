package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	m := NewMailer("smtp.example.com", 587, "ops@example.com", "Settle Ops", "secret")
	assert.Equal(t, "smtp.example.com:587", m.smtpServerURL)

	e := m.NewEmail([]string{"oncall@example.com"}, nil, "subject", "content")
	assert.Equal(t, "Settle Ops <ops@example.com>", e.From)
	assert.Equal(t, []string{"oncall@example.com"}, e.To)

	raw, err := e.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Subject: subject")

	m = NewMailer("smtp.example.com", 25, "ops@example.com", "", "")
	assert.Equal(t, "ops@example.com", m.fromWithName)
}
