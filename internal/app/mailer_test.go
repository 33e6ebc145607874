package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goliatone/go-iam/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailerOmitsBody(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	body := `<a href="https://app.test/auth/magic?token=eyJhbGciOiJIUzUxMiJ9.secret">sign in</a>`
	err := logMailer(logger).SendEmail(context.Background(), "Your sign in link", body,
		mailer.MailUser{Name: "Jane Doe", Email: "jane@example.com"}, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "jane@example.com")
	assert.Contains(t, out, "Your sign in link")
	assert.NotContains(t, out, "token=")
	assert.NotContains(t, out, "secret")
}
