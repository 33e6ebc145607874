package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTP delivers messages through an SMTP relay
type SMTP struct {
	cfg     Config
	client  *mail.Client
	replyTo MailUser
}

// NewSMTP builds an SMTP mailer. Credentials embedded in the url are only
// used when the config runs in production.
func NewSMTP(cfg Config) (*SMTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ep, err := parseSMTPURL(cfg.SMTPURL)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithPort(ep.port),
	}

	if ep.ssl {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	}

	if cfg.IsProduction() && ep.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(ep.username),
			mail.WithPassword(ep.password),
		)
	}

	client, err := mail.NewClient(ep.host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: smtp client: %w", err)
	}

	return &SMTP{
		cfg:     cfg,
		client:  client,
		replyTo: cfg.DefaultReplyTo(),
	}, nil
}

func (s *SMTP) SendEmail(ctx context.Context, subject, body string, to MailUser, from *MailUser) error {
	msg, err := s.message(subject, body, to, from)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTP) message(subject, body string, to MailUser, from *MailUser) (*mail.Msg, error) {
	sender := s.cfg.DefaultFrom()
	if from != nil && from.Email != "" {
		sender = *from
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(sender.Name, sender.Email); err != nil {
		return nil, fmt.Errorf("invalid sender %s: %w", sender, err)
	}

	if err := msg.AddToFormat(to.Name, to.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient %s: %w", to, err)
	}

	if err := msg.ReplyToFormat(s.replyTo.Name, s.replyTo.Email); err != nil {
		return nil, fmt.Errorf("invalid reply-to %s: %w", s.replyTo, err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	return msg, nil
}
