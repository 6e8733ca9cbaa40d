// Package identity issues anonymous principals and manages the client-local
// display handle. A principal is minted idempotently from an Ed25519 public
// key: the same key always resolves to the same stable UID, which is what
// makes anonymous sign-in survive reloads.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Priyan-git/rait-rooms/internal/crypto"
	"github.com/Priyan-git/rait-rooms/internal/models"
	"github.com/Priyan-git/rait-rooms/internal/store"
)

const keyFile = "private.key"

// Provider mints and resolves anonymous principals.
type Provider struct {
	store  store.RoomStore
	logger zerolog.Logger

	mu        sync.Mutex
	current   *models.Principal
	listeners []func(*models.Principal)
}

// NewProvider creates a provider over the principal registry.
func NewProvider(st store.RoomStore, logger zerolog.Logger) *Provider {
	return &Provider{
		store:  st,
		logger: logger.With().Str("component", "identity").Logger(),
	}
}

// Register resolves a public key to its principal, creating one on first
// sight. Idempotent: re-registering an existing key returns the existing
// principal.
func (p *Provider) Register(ctx context.Context, publicKeyB64 string) (*models.Principal, error) {
	if _, err := crypto.ValidatePublicKey(publicKeyB64); err != nil {
		return nil, &models.ValidationError{Field: "public_key", Reason: err.Error()}
	}

	existing, err := p.store.GetPrincipalByPublicKey(ctx, publicKeyB64)
	if err != nil {
		return nil, &models.TransportError{Op: "register", Err: err}
	}
	if existing != nil {
		return existing, nil
	}

	created, err := p.store.CreatePrincipal(ctx, publicKeyB64)
	if err != nil {
		// Lost a creation race; the winner's row is authoritative.
		if again, gerr := p.store.GetPrincipalByPublicKey(ctx, publicKeyB64); gerr == nil && again != nil {
			return again, nil
		}
		return nil, &models.TransportError{Op: "register", Err: err}
	}
	return created, nil
}

// SignInAnonymously establishes the process-wide anonymous principal: it
// loads (or generates and persists) an Ed25519 keypair under configDir and
// registers the public key. Idempotent if already signed in.
func (p *Provider) SignInAnonymously(ctx context.Context, configDir string) (*models.Principal, error) {
	p.mu.Lock()
	if p.current != nil {
		cur := p.current
		p.mu.Unlock()
		return cur, nil
	}
	p.mu.Unlock()

	priv, err := loadOrCreateKeypair(configDir)
	if err != nil {
		return nil, err
	}
	pubB64 := base64.StdEncoding.EncodeToString(priv.Public().(ed25519.PublicKey))

	principal, err := p.Register(ctx, pubB64)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.current = principal
	listeners := append([]func(*models.Principal){}, p.listeners...)
	p.mu.Unlock()

	p.logger.Info().Str("uid", principal.ID.String()).Msg("anonymous principal established")
	for _, cb := range listeners {
		cb(principal)
	}
	return principal, nil
}

// Current returns the established principal, or nil before sign-in.
func (p *Provider) Current() *models.Principal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// OnPrincipalChanged registers a callback fired with the current principal
// (possibly nil) immediately, then again whenever it changes.
func (p *Provider) OnPrincipalChanged(cb func(*models.Principal)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, cb)
	cur := p.current
	p.mu.Unlock()
	cb(cur)
}

// loadOrCreateKeypair reads the persisted private key, generating and
// saving one on first use.
func loadOrCreateKeypair(configDir string) (ed25519.PrivateKey, error) {
	path := filepath.Join(configDir, keyFile)

	if data, err := os.ReadFile(path); err == nil {
		seed, derr := base64.StdEncoding.DecodeString(string(data))
		if derr == nil && len(seed) == ed25519.SeedSize {
			return ed25519.NewKeyFromSeed(seed), nil
		}
		// Corrupt key file: fall through and mint a fresh identity.
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(priv.Seed())
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, err
	}
	return priv, nil
}
