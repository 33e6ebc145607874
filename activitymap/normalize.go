// Package activitymap flattens iam activity events into audit records
// that log sinks and downstream consumers can store without importing iam.
package activitymap

import (
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/goliatone/go-iam"
)

const (
	// MetadataKeyActorType holds iam.ActorRef.Type
	MetadataKeyActorType = "actor_type"
	// MetadataKeyFromStatus holds the status before a transition
	MetadataKeyFromStatus = "from_status"
	// MetadataKeyToStatus holds the status after a transition
	MetadataKeyToStatus = "to_status"
)

const (
	defaultChannel    = "iam"
	defaultObjectType = "user"
	defaultActorID    = "system"
)

// Record is the flattened audit shape of an iam.ActivityEvent
type Record struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes Normalize
type Option func(*options)

type options struct {
	channel       string
	objectType    string
	actorFallback string
	now           func() time.Time
}

// WithChannel overrides the "iam" channel
func WithChannel(channel string) Option {
	return func(o *options) {
		o.channel = strings.TrimSpace(channel)
	}
}

// WithObjectType overrides the "user" object type
func WithObjectType(objectType string) Option {
	return func(o *options) {
		o.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback is used when neither the actor nor the user is known,
// as for a failed login with an unknown email
func WithActorFallback(actorID string) Option {
	return func(o *options) {
		o.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock stamps events that carry no OccurredAt
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Normalize converts event into a Record. The event metadata is copied.
func Normalize(event iam.ActivityEvent, opts ...Option) Record {
	o := options{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = o.now()
	}

	return Record{
		ActorID: firstNonEmpty(
			strings.TrimSpace(event.Actor.ID),
			strings.TrimSpace(event.UserID),
			o.actorFallback,
		),
		Verb:       string(event.EventType),
		ObjectType: o.objectType,
		ObjectID:   strings.TrimSpace(event.UserID),
		Channel:    o.channel,
		Metadata:   metadata(event),
		OccurredAt: occurredAt.UTC(),
	}
}

// Attrs returns the record as slog attributes
func (r Record) Attrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("actor_id", r.ActorID),
		slog.String("verb", r.Verb),
		slog.String("channel", r.Channel),
		slog.Time("occurred_at", r.OccurredAt),
	}
	if r.ObjectID != "" {
		attrs = append(attrs, slog.String("object_type", r.ObjectType), slog.String("object_id", r.ObjectID))
	}
	if len(r.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", r.Metadata))
	}
	return attrs
}

func metadata(event iam.ActivityEvent) map[string]any {
	out := map[string]any{}
	maps.Copy(out, event.Metadata)

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if _, exists := out[MetadataKeyActorType]; !exists {
			out[MetadataKeyActorType] = actorType
		}
	}

	if event.FromStatus != "" {
		out[MetadataKeyFromStatus] = string(event.FromStatus)
	}

	if event.ToStatus != "" {
		out[MetadataKeyToStatus] = string(event.ToStatus)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
