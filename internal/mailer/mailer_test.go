package mailer

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/dienstwunsch/backend/internal/domain"
)

func encode(t *testing.T, msg domain.MailMessage) []byte {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return body
}

func render(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestBuildShiftRequestSubmitted(t *testing.T) {
	body := encode(t, domain.MailMessage{
		Type: domain.MailTypeShiftRequestSubmitted,
		To:   "leitung@example.org",
		Data: domain.ShiftRequestMailData{UserName: "Anna", Date: "2026-10-20", ShiftType: "Nacht"},
	})

	msg, err := Build(body, "noreply@example.org")
	require.NoError(t, err)

	assert.Equal(t, []string{"Dienstwunsch - Neuer Wunsch eingereicht"}, msg.GetGenHeader(mail.HeaderSubject))
	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"leitung@example.org"}, recipients)

	out := render(t, msg)
	assert.Contains(t, out, "Anna")
	assert.Contains(t, out, "2026-10-20")
}

func TestBuildPendingDigest(t *testing.T) {
	body := encode(t, domain.MailMessage{
		Type: domain.MailTypePendingDigest,
		To:   "leitung@example.org",
		Data: domain.PendingDigestMailData{
			Count: 2,
			Requests: []domain.ShiftRequestMailData{
				{UserName: "Anna", Date: "2026-10-20", ShiftType: "Nacht"},
				{UserName: "Jonas", Date: "2026-10-21", ShiftType: "Nacht"},
			},
		},
	})

	msg, err := Build(body, "noreply@example.org")
	require.NoError(t, err)

	out := render(t, msg)
	assert.Contains(t, out, "Anna")
	assert.Contains(t, out, "Jonas")
}

func TestBuildUnsupportedType(t *testing.T) {
	body := encode(t, domain.MailMessage{Type: "reset_password", To: "a@example.org"})

	_, err := Build(body, "noreply@example.org")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestBuildInvalidInput(t *testing.T) {
	_, err := Build([]byte("not json"), "noreply@example.org")
	require.Error(t, err)

	body := encode(t, domain.MailMessage{Type: domain.MailTypeShiftRequestWithdrawn, To: "kein-empfaenger"})
	_, err = Build(body, "noreply@example.org")
	require.Error(t, err)
}

func TestTemplatesParsed(t *testing.T) {
	for mailType, kind := range kinds {
		assert.NotNil(t, templates.Lookup(kind.template), mailType)
	}
}
