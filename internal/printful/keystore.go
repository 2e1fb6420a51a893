package printful

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/designcraft/designcraft-backend/pkg/errors"
	"github.com/designcraft/designcraft-backend/pkg/storage"
)

// APIKeyStorageKey is the durable key holding the credential.
const APIKeyStorageKey = "printful_api_key"

// ErrNoAPIKey means neither a stored nor a configured key exists.
var ErrNoAPIKey = errors.New("printful api key not found")

// Key sources reported by Status.
const (
	SourceStored     = "stored"
	SourceConfigured = "configured"
	SourceNone       = "none"
)

type KeyStatus struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source"`
	Preview    string `json:"preview,omitempty"`
}

// KeyValidator checks a credential against the API.
type KeyValidator interface {
	ValidateKey(ctx context.Context, key string) error
}

// KeyStore resolves the credential from storage first, then from config.
type KeyStore struct {
	kv       storage.KV
	fallback string
}

func NewKeyStore(kv storage.KV, fallback string) (*KeyStore, error) {
	if kv == nil {
		return nil, errors.New("kv store required")
	}
	return &KeyStore{kv: kv, fallback: strings.TrimSpace(fallback)}, nil
}

func (k *KeyStore) Get(ctx context.Context) (string, error) {
	key, _, err := k.resolve(ctx)
	return key, err
}

func (k *KeyStore) resolve(ctx context.Context) (string, string, error) {
	stored, err := k.kv.Get(ctx, APIKeyStorageKey)
	switch {
	case err == nil && strings.TrimSpace(stored) != "":
		return strings.TrimSpace(stored), SourceStored, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return "", SourceNone, err
	}
	if k.fallback != "" {
		return k.fallback, SourceConfigured, nil
	}
	return "", SourceNone, ErrNoAPIKey
}

// Set trims the key, checks it with validator and persists it only when valid.
func (k *KeyStore) Set(ctx context.Context, key string, validator KeyValidator) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "api key is required")
	}
	if validator == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "key validator required")
	}
	if err := validator.ValidateKey(ctx, key); err != nil {
		return err
	}
	if err := k.kv.Set(ctx, APIKeyStorageKey, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store printful api key")
	}
	return nil
}

// Clear removes the stored key; a configured fallback still applies.
func (k *KeyStore) Clear(ctx context.Context) error {
	if err := k.kv.Delete(ctx, APIKeyStorageKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete printful api key")
	}
	return nil
}

func (k *KeyStore) Status(ctx context.Context) (KeyStatus, error) {
	key, source, err := k.resolve(ctx)
	if errors.Is(err, ErrNoAPIKey) {
		return KeyStatus{Source: SourceNone}, nil
	}
	if err != nil {
		return KeyStatus{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load printful api key")
	}
	return KeyStatus{Configured: true, Source: source, Preview: preview(key)}, nil
}

// HasKey reports whether any credential is available.
func (k *KeyStore) HasKey(ctx context.Context) bool {
	_, err := k.Get(ctx)
	return err == nil
}

func preview(key string) string {
	if len(key) <= 5 {
		return strings.Repeat("*", len(key))
	}
	return key[:5] + "..."
}
