package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces session keys
	DefaultPrefix = "iam:session:"
	// DefaultTTL bounds how long a positive entry is trusted
	DefaultTTL = 10 * time.Minute
)

// Redis remembers live session ids. Only positive entries are stored, so a
// miss always falls through to the database.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures the cache
type Option func(*Redis)

// WithPrefix overrides DefaultPrefix
func WithPrefix(prefix string) Option {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// New wraps an existing client
func New(client redis.UniversalClient, opts ...Option) *Redis {
	r := &Redis{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dial connects to addr and pings it
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sessioncache: ping: %w", err)
	}

	return client, nil
}

func (r *Redis) Add(ctx context.Context, sessionID string) error {
	return r.client.Set(ctx, r.key(sessionID), 1, r.ttl).Err()
}

func (r *Redis) Contains(ctx context.Context, sessionID string) (bool, error) {
	err := r.client.Get(ctx, r.key(sessionID)).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Redis) Remove(ctx context.Context, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		keys = append(keys, r.key(id))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + sessionID
}
