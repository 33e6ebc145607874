package iam

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/goliatone/go-iam/mailer"
	"github.com/goliatone/go-iam/notification"
	"github.com/goliatone/go-iam/token"
	"github.com/google/uuid"
)

const (
	// NotificationLoginLink is the magic link notification id
	NotificationLoginLink = "login_link"
	// NotificationVerificationLink is the email verification notification id
	NotificationVerificationLink = "verification_link"
)

// SendLoginLink emails a magic link to an active user. An unknown email
// returns nil like a known one so callers cannot probe for accounts.
func (s *Service) SendLoginLink(ctx context.Context, email string) error {
	if err := s.requireMode(LoginModeMagicLink); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("login link requested for unknown email")
			return nil
		}
		return s.internal("send login link: lookup", err)
	}

	return s.sendLink(ctx, user, NotificationLoginLink, LinkPurposeLogin, s.cfg.MagicLinkBaseURL)
}

// SendVerificationLink emails a verification link to an active user.
// Unlike SendLoginLink an unknown email returns ErrNotFound.
func (s *Service) SendVerificationLink(ctx context.Context, email string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		return s.lookupError("send verification link: lookup", err)
	}

	return s.sendLink(ctx, user, NotificationVerificationLink, LinkPurposeVerification, s.cfg.VerifyURL)
}

func (s *Service) sendLink(ctx context.Context, user *User, id, purpose, base string) error {
	claims := LinkClaims{
		ID:      uuid.NewString(),
		PID:     user.PID.String(),
		Purpose: purpose,
	}
	raw, err := token.Sign(s.codec, claims, durationSeconds(s.cfg.MagicLinkDuration), s.cfg.MagicLinkKey)
	if err != nil {
		return s.signError("sign "+id, err)
	}

	link, err := buildLink(base, raw)
	if err != nil {
		return s.internal("build "+id, err)
	}

	_, err = s.notifier.Trigger(ctx, id, notification.TriggerSettings{
		Email: &mailer.MailUser{
			Name:  strings.TrimSpace(user.FirstName + " " + user.LastName),
			Email: user.Email,
		},
		UserID: user.PID.String(),
		Params: map[string]string{
			"link":       link,
			"first_name": user.FirstName,
			"email":      user.Email,
		},
	})
	if err != nil {
		return s.internal("trigger "+id, err)
	}

	return nil
}

func buildLink(base, raw string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RegisterDefaultNotifications registers the login and verification link
// descriptors on d
func RegisterDefaultNotifications(d *notification.Dispatcher, cfg Config) error {
	descriptors := []struct {
		id       string
		category notification.Category
		link     string
	}{
		{id: NotificationLoginLink, category: notification.CategoryLoginLink, link: cfg.MagicLinkBaseURL},
		{id: NotificationVerificationLink, category: notification.CategoryVerificationLink, link: cfg.VerifyURL},
	}

	for _, desc := range descriptors {
		render, subject := notification.TemplatePaths(desc.id)
		nc, err := notification.NewConfig(notification.ConfigOptions{
			ID:              desc.id,
			Channel:         notification.ChannelEmail,
			Category:        desc.category,
			SubjectTemplate: subject,
			RenderTemplate:  render,
			Params: map[string]notification.ParamDefault{
				"link":       {Example: desc.link},
				"first_name": {Example: "there", UseAsDefault: true},
				"email":      {Example: "user@example.com"},
			},
		})
		if err != nil {
			return err
		}
		d.Register(nc)
	}

	return nil
}
