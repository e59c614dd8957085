package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-scoopit/core"
)

// KeyRotationWindow gates when a key version is allowed to encrypt or decrypt.
type KeyRotationWindow struct {
	NotBefore time.Time
	NotAfter  time.Time
}

func (w KeyRotationWindow) Allows(at time.Time) bool {
	ts := at.UTC()
	if !w.NotBefore.IsZero() && ts.Before(w.NotBefore.UTC()) {
		return false
	}
	if !w.NotAfter.IsZero() && ts.After(w.NotAfter.UTC()) {
		return false
	}
	return true
}

// KeyRingDiagnostic is emitted when a token record is opened with a retired
// key, so the caller can persist it again under the active key.
type KeyRingDiagnostic struct {
	OccurredAt time.Time
	KeyID      string
	Version    int
}

type KeyRingOption func(*KeyRing)

// KeyRing encrypts with one active application key and decrypts records
// sealed by any registered key, routed by the envelope key id and version.
type KeyRing struct {
	active   *AppKeySecretProvider
	windows  map[string]KeyRotationWindow
	onRetire func(KeyRingDiagnostic)
	now      func() time.Time

	mu   sync.RWMutex
	keys map[string]*AppKeySecretProvider
}

func WithRetiredKey(provider *AppKeySecretProvider, window KeyRotationWindow) KeyRingOption {
	return func(r *KeyRing) {
		if provider == nil {
			return
		}
		ref := keyRef(provider.KeyID(), provider.Version())
		r.keys[ref] = provider
		r.windows[ref] = window
	}
}

func WithActiveKeyWindow(window KeyRotationWindow) KeyRingOption {
	return func(r *KeyRing) {
		r.windows[keyRef(r.active.KeyID(), r.active.Version())] = window
	}
}

func WithRetiredKeyHook(hook func(KeyRingDiagnostic)) KeyRingOption {
	return func(r *KeyRing) {
		r.onRetire = hook
	}
}

func WithKeyRingClock(now func() time.Time) KeyRingOption {
	return func(r *KeyRing) {
		if now != nil {
			r.now = now
		}
	}
}

func NewKeyRing(active *AppKeySecretProvider, opts ...KeyRingOption) (*KeyRing, error) {
	if active == nil {
		return nil, fmt.Errorf("security: active key is required")
	}
	ring := &KeyRing{
		active:  active,
		windows: map[string]KeyRotationWindow{},
		keys:    map[string]*AppKeySecretProvider{},
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(ring)
	}
	activeRef := keyRef(active.KeyID(), active.Version())
	if _, exists := ring.keys[activeRef]; exists {
		return nil, fmt.Errorf("security: retired key %s collides with the active key", activeRef)
	}
	ring.keys[activeRef] = active
	return ring, nil
}

func (r *KeyRing) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("security: key ring is nil")
	}
	ref := keyRef(r.active.KeyID(), r.active.Version())
	if !r.window(ref).Allows(r.now()) {
		return nil, fmt.Errorf("security: active key %s is outside its rotation window", ref)
	}
	return r.active.Encrypt(ctx, plaintext)
}

func (r *KeyRing) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("security: key ring is nil")
	}
	meta, err := ParseEnvelopeMetadata(ciphertext, false)
	if err != nil {
		return nil, err
	}
	ref := keyRef(meta.KeyID, meta.Version)
	r.mu.RLock()
	provider, ok := r.keys[ref]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("security: no key registered for %s", ref)
	}
	now := r.now()
	if !r.window(ref).Allows(now) {
		return nil, fmt.Errorf("security: key %s is outside its rotation window", ref)
	}
	plaintext, err := provider.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, err
	}
	if provider != r.active && r.onRetire != nil {
		r.onRetire(KeyRingDiagnostic{OccurredAt: now.UTC(), KeyID: meta.KeyID, Version: meta.Version})
	}
	return plaintext, nil
}

// Metadata reports the active key identity.
func (r *KeyRing) Metadata() (string, int) {
	if r == nil {
		return "", 0
	}
	return r.active.Metadata()
}

func (r *KeyRing) window(ref string) KeyRotationWindow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.windows[ref]
}

func keyRef(keyID string, version int) string {
	return fmt.Sprintf("%s@%d", keyID, version)
}

var _ core.SecretProvider = (*KeyRing)(nil)
