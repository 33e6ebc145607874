package token

import (
	"os"
)

// DefaultKeyName is the keyring entry used when no key name is given
const DefaultKeyName = "IAM_JWT_SECRET"

// Keyring resolves a signing secret by name.
// Implementations must return ErrSecretNotConfigured instead of a fallback
// when the name is unknown.
type Keyring interface {
	Secret(name string) ([]byte, error)
}

// KeyringFunc adapts a function to the Keyring interface
type KeyringFunc func(name string) ([]byte, error)

// Secret implements Keyring
func (f KeyringFunc) Secret(name string) ([]byte, error) {
	return f(name)
}

// EnvKeyring reads secrets from environment variables, one variable per key name
type EnvKeyring struct {
	lookup func(string) (string, bool)
}

// NewEnvKeyring returns a keyring backed by os.LookupEnv
func NewEnvKeyring() *EnvKeyring {
	return &EnvKeyring{lookup: os.LookupEnv}
}

func (k *EnvKeyring) Secret(name string) ([]byte, error) {
	lookup := k.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	val, ok := lookup(name)
	if !ok || val == "" {
		return nil, missingSecret(name)
	}
	return []byte(val), nil
}

// StaticKeyring is an in-memory keyring
type StaticKeyring map[string]string

func (k StaticKeyring) Secret(name string) ([]byte, error) {
	val, ok := k[name]
	if !ok || val == "" {
		return nil, missingSecret(name)
	}
	return []byte(val), nil
}

func missingSecret(name string) error {
	return ErrSecretNotConfigured.Clone().WithMetadata(map[string]any{
		"key": name,
	})
}
