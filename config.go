package iam

import (
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/kelseyhightower/envconfig"
)

// LoginMode selects the credential model of a deployment
type LoginMode string

const (
	// LoginModePassword logs users in with a bcrypt checked password
	LoginModePassword LoginMode = "password"
	// LoginModeMagicLink logs users in with a short lived emailed token
	LoginModeMagicLink LoginMode = "magic_link"
)

// Config holds service options
type Config struct {
	LoginMode         LoginMode     `envconfig:"IAM_LOGIN_MODE" default:"magic_link"`
	JWTKey            string        `envconfig:"IAM_JWT_KEY" default:"IAM_JWT_SECRET"`
	MagicLinkKey      string        `envconfig:"IAM_MAGIC_LINK_KEY" default:"IAM_MAGIC_LINK_SECRET"`
	LoginDuration     time.Duration `envconfig:"IAM_LOGIN_DURATION" default:"168h"`
	MagicLinkDuration time.Duration `envconfig:"IAM_MAGIC_LINK_DURATION" default:"15m"`
	MagicLinkBaseURL  string        `envconfig:"IAM_MAGIC_LINK_BASE_URL" default:"http://localhost:8080/auth/magic"`
	VerifyURL         string        `envconfig:"IAM_VERIFY_URL" default:"http://localhost:8080/auth/verify"`
	StrictSessions    bool          `envconfig:"IAM_STRICT_SESSIONS" default:"false"`
	OperationTimeout  time.Duration `envconfig:"IAM_OPERATION_TIMEOUT" default:"10s"`
	PasswordCost      int           `envconfig:"IAM_PASSWORD_COST" default:"12"`

	DatabaseDriver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURL    string `envconfig:"DATABASE_URL" default:"file:iam.db?cache=shared"`
	AutoMigrate    bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`

	LogFormat    string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	TemplatesDir string `envconfig:"TEMPLATES_DIR" default:"templates"`
}

// LoadConfig reads configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the defaults LoadConfig applies to an empty environment
func DefaultConfig() Config {
	return Config{
		LoginMode:         LoginModeMagicLink,
		JWTKey:            "IAM_JWT_SECRET",
		MagicLinkKey:      "IAM_MAGIC_LINK_SECRET",
		LoginDuration:     168 * time.Hour,
		MagicLinkDuration: 15 * time.Minute,
		MagicLinkBaseURL:  "http://localhost:8080/auth/magic",
		VerifyURL:         "http://localhost:8080/auth/verify",
		OperationTimeout:  10 * time.Second,
		PasswordCost:      12,
		DatabaseDriver:    "sqlite",
		DatabaseURL:       "file:iam.db?cache=shared",
		LogFormat:         "text",
		LogLevel:          "info",
		TemplatesDir:      "templates",
	}
}

// Validate checks the options that would otherwise fail at request time
func (c Config) Validate() error {
	switch c.LoginMode {
	case LoginModePassword, LoginModeMagicLink:
	default:
		return configError("IAM_LOGIN_MODE", fmt.Sprintf("unknown login mode %q", c.LoginMode))
	}

	if c.JWTKey == "" {
		return configError("IAM_JWT_KEY", "key name is required")
	}

	if c.MagicLinkKey == "" {
		return configError("IAM_MAGIC_LINK_KEY", "key name is required")
	}

	if c.LoginDuration <= 0 {
		return configError("IAM_LOGIN_DURATION", "must be positive")
	}

	if c.MagicLinkDuration <= 0 {
		return configError("IAM_MAGIC_LINK_DURATION", "must be positive")
	}

	return nil
}

func configError(field, msg string) error {
	return goerrors.New("invalid configuration", goerrors.CategoryValidation).
		WithTextCode("INVALID_CONFIG").
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{
			"field":  field,
			"reason": msg,
		})
}
