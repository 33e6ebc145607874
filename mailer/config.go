package mailer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// RunEnvProduction enables SMTP credentials
const RunEnvProduction = "PRODUCTION"

// Config holds SMTP transport settings
type Config struct {
	SMTPURL  string `env:"SMTP_URL" validate:"required,url"`
	From     string `env:"MAIL_FROM" validate:"required,email"`
	FromName string `env:"MAIL_FROM_NAME"`
	ReplyTo  string `env:"MAIL_REPLY_TO" validate:"omitempty,email"`
	RunEnv   string `env:"RUN_ENV" envDefault:"DEVELOPMENT"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads the mail transport configuration from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("mailer: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks required fields and address formats
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("mailer: invalid config: %w", err)
	}
	return nil
}

// IsProduction reports whether credentials should be sent to the server
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.RunEnv, RunEnvProduction)
}

// DefaultFrom is the sender used when a send has no override
func (c Config) DefaultFrom() MailUser {
	return MailUser{Name: c.FromName, Email: c.From}
}

// DefaultReplyTo falls back to From
func (c Config) DefaultReplyTo() MailUser {
	if c.ReplyTo == "" {
		return c.DefaultFrom()
	}
	return MailUser{Email: c.ReplyTo}
}

type endpoint struct {
	host     string
	port     int
	ssl      bool
	username string
	password string
}

func parseSMTPURL(raw string) (endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return endpoint{}, fmt.Errorf("mailer: parse smtp url: %w", err)
	}

	ep := endpoint{host: u.Hostname()}
	switch u.Scheme {
	case "smtp":
		ep.port = 587
	case "smtps":
		ep.port = 465
		ep.ssl = true
	default:
		return endpoint{}, fmt.Errorf("mailer: unsupported smtp scheme %q", u.Scheme)
	}

	if ep.host == "" {
		return endpoint{}, fmt.Errorf("mailer: smtp url has no host")
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return endpoint{}, fmt.Errorf("mailer: invalid smtp port %q", p)
		}
		ep.port = port
	}

	if u.User != nil {
		ep.username = u.User.Username()
		ep.password, _ = u.User.Password()
	}

	return ep, nil
}
