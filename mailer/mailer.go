// Package mailer holds the mail transport used by notifications: the
// Mailer contract, an SMTP implementation and an in-memory Recorder.
package mailer

import (
	"context"
	"fmt"
	"strings"
)

// MailUser is a mail identity
type MailUser struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// String renders the identity as "Name <email>", or "<email>" when there is no name
func (u MailUser) String() string {
	name := strings.TrimSpace(u.Name)
	if name == "" {
		return fmt.Sprintf("<%s>", u.Email)
	}
	return fmt.Sprintf("%s <%s>", name, u.Email)
}

// Mailer sends an html message. A nil from uses the mailer default sender.
type Mailer interface {
	SendEmail(ctx context.Context, subject, body string, to MailUser, from *MailUser) error
}

// MailerFunc adapts a function to Mailer
type MailerFunc func(ctx context.Context, subject, body string, to MailUser, from *MailUser) error

// SendEmail implements Mailer
func (f MailerFunc) SendEmail(ctx context.Context, subject, body string, to MailUser, from *MailUser) error {
	return f(ctx, subject, body, to, from)
}
