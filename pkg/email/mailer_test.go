package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/duebook/pkg/email"
)

func TestMessage_Validate(t *testing.T) {
	t.Parallel()

	valid := email.Message{To: "owner@example.com", Subject: "Referral reward", HTMLBody: "<p>hi</p>"}

	tests := []struct {
		name   string
		mutate func(*email.Message)
		errMsg string
	}{
		{"valid", func(*email.Message) {}, ""},
		{"text only", func(m *email.Message) {
			m.HTMLBody = ""
			m.TextBody = "hi"
		}, ""},
		{"missing recipient", func(m *email.Message) { m.To = "  " }, "recipient is required"},
		{"bad recipient", func(m *email.Message) { m.To = "owner@" }, "not a valid address"},
		{"display name", func(m *email.Message) { m.To = "Owner <owner@example.com>" }, "not a valid address"},
		{"missing subject", func(m *email.Message) { m.Subject = "" }, "subject is required"},
		{"missing body", func(m *email.Message) { m.HTMLBody = "" }, "body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := valid
			tt.mutate(&msg)
			err := msg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, email.ErrInvalidMessage)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sender := email.NewDevSender(dir)

	err := sender.Send(context.Background(), email.Message{
		To:       "owner@example.com",
		Subject:  "3 invoices are overdue",
		HTMLBody: "<p>digest</p>",
		Tag:      "overdue-digest",
	})
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "*_overdue-digest.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "owner@example.com", got["to"])
	assert.Equal(t, "3 invoices are overdue", got["subject"])

	err = sender.Send(context.Background(), email.Message{To: "nope"})
	assert.ErrorIs(t, err, email.ErrInvalidMessage)
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	s, err := email.NewSender(email.Config{DevOutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &email.DevSender{}, s)

	_, err = email.NewSender(email.Config{PostmarkServerToken: "tok", SenderEmail: "not-an-address"})
	assert.ErrorIs(t, err, email.ErrInvalidConfig)

	s, err = email.NewSender(email.Config{PostmarkServerToken: "tok", SenderEmail: "billing@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
