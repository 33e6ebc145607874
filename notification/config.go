package notification

import (
	"maps"
	"strings"
)

// ChannelType is the delivery channel of a notification
type ChannelType string

const (
	ChannelEmail     ChannelType = "email"
	ChannelWebsocket ChannelType = "websocket"
)

// Category describes what a notification is for
type Category string

const (
	CategoryLoginLink        Category = "login_link"
	CategoryVerificationLink Category = "verification_link"
)

// ParamDefault is the default policy for one template parameter. Example is
// substituted when the trigger omits the parameter and UseAsDefault is set.
type ParamDefault struct {
	Example      string
	UseAsDefault bool
}

// ConfigOptions are the inputs to NewConfig
type ConfigOptions struct {
	ID              string
	Channel         ChannelType
	Category        Category
	SubjectTemplate string
	RenderTemplate  string
	Params          map[string]ParamDefault
}

// Config is a validated, immutable notification descriptor
type Config struct {
	id              string
	channel         ChannelType
	category        Category
	subjectTemplate string
	renderTemplate  string
	params          map[string]ParamDefault
}

// NewConfig validates opts and returns a descriptor.
// Validation order: subject template (email only), render template, category.
func NewConfig(opts ConfigOptions) (*Config, error) {
	channel := opts.Channel
	if channel == "" {
		channel = ChannelEmail
	}

	if channel == ChannelEmail && strings.TrimSpace(opts.SubjectTemplate) == "" {
		return nil, ErrSubjectTemplateMissing
	}

	if strings.TrimSpace(opts.RenderTemplate) == "" {
		return nil, ErrRenderTemplateMissing
	}

	if strings.TrimSpace(string(opts.Category)) == "" {
		return nil, ErrCategoryMissing
	}

	params := make(map[string]ParamDefault, len(opts.Params))
	maps.Copy(params, opts.Params)

	return &Config{
		id:              opts.ID,
		channel:         channel,
		category:        opts.Category,
		subjectTemplate: opts.SubjectTemplate,
		renderTemplate:  opts.RenderTemplate,
		params:          params,
	}, nil
}

// MustConfig panics when opts are invalid. Use it for start-up registration.
func MustConfig(opts ConfigOptions) *Config {
	cfg, err := NewConfig(opts)
	if err != nil {
		panic(err)
	}
	return cfg
}

func (c *Config) ID() string              { return c.id }
func (c *Config) Channel() ChannelType    { return c.channel }
func (c *Config) Category() Category      { return c.category }
func (c *Config) SubjectTemplate() string { return c.subjectTemplate }
func (c *Config) RenderTemplate() string  { return c.renderTemplate }

// Params returns a copy of the parameter defaults
func (c *Config) Params() map[string]ParamDefault {
	out := make(map[string]ParamDefault, len(c.params))
	maps.Copy(out, c.params)
	return out
}

// TemplatePaths returns the conventional body and subject paths for name
func TemplatePaths(name string) (render, subject string) {
	return name + ".html", name + "_subject.html"
}
