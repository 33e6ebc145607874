package token

import (
	"errors"
	"math"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

var signingMethod = jwt.SigningMethodHS512

// Codec signs and verifies Claims with HMAC secrets resolved from a Keyring
type Codec struct {
	keys       Keyring
	defaultKey string
	now        func() time.Time
}

// Option configures a Codec
type Option func(*Codec)

// WithClock overrides the time source used for exp computation and validation
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDefaultKey changes the key name used when callers do not pass one
func WithDefaultKey(name string) Option {
	return func(c *Codec) {
		if name != "" {
			c.defaultKey = name
		}
	}
}

// NewCodec creates a Codec using keys to resolve secrets
func NewCodec(keys Keyring, opts ...Option) *Codec {
	c := &Codec{
		keys:       keys,
		defaultKey: DefaultKeyName,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func (c *Codec) secret(keyName ...string) ([]byte, error) {
	name := c.defaultKey
	if len(keyName) > 0 && keyName[0] != "" {
		name = keyName[0]
	}

	if c.keys == nil {
		return nil, missingSecret(name)
	}

	return c.keys.Secret(name)
}

// Sign produces an HS512 token embedding payload and an exp of
// now + durationSeconds. A negative duration yields an already expired token.
func Sign[T any](c *Codec, payload T, durationSeconds int64, keyName ...string) (string, error) {
	exp, ok := addSeconds(c.now().Unix(), durationSeconds)
	if !ok {
		return "", ErrDurationOverflow
	}

	secret, err := c.secret(keyName...)
	if err != nil {
		return "", err
	}

	tkn := jwt.NewWithClaims(signingMethod, &Claims[T]{
		Payload: payload,
		Exp:     exp,
	})

	signed, err := tkn.SignedString(secret)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, ErrSign.Message).
			WithTextCode(TextCodeSignError).
			WithCode(goerrors.CodeInternal)
	}

	return signed, nil
}

// Verify validates signature and expiry of raw and returns its payload.
// Any failure other than expiry is reported as ErrVerification.
func Verify[T any](c *Codec, raw string, keyName ...string) (T, error) {
	var zero T

	secret, err := c.secret(keyName...)
	if err != nil {
		return zero, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims[T]{}
	_, err = parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return zero, ErrExpired
		}
		return zero, ErrVerification
	}

	return claims.Payload, nil
}

func addSeconds(now, d int64) (int64, bool) {
	if d > 0 && now > math.MaxInt64-d {
		return 0, false
	}
	if d < 0 && now < math.MinInt64-d {
		return 0, false
	}
	return now + d, true
}
