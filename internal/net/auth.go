package net

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/visuscript/liveviz/internal/action"
	"github.com/visuscript/liveviz/internal/config"
)

// ErrUnauthorized is returned for a missing or wrong bearer token. On the
// wire it is a protocol error.
var ErrUnauthorized = fmt.Errorf("%w: unauthorized", action.ErrProtocol)

// Authenticator checks bearer tokens against a bcrypt hash. A nil
// Authenticator accepts everything.
type Authenticator struct {
	hash     []byte
	accepted sync.Map // sha256(token) -> struct{}; skips bcrypt on repeat callers
}

// NewAuthenticator returns nil when auth is disabled.
func NewAuthenticator(cfg config.AuthConfig) (*Authenticator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	hash := []byte(cfg.TokenHash)
	if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("auth.token_hash: %w", err)
	}
	return &Authenticator{hash: hash}, nil
}

// Check returns ErrUnauthorized unless token matches.
func (a *Authenticator) Check(token string) error {
	if a == nil {
		return nil
	}
	if token == "" {
		return ErrUnauthorized
	}
	key := sha256.Sum256([]byte(token))
	if _, ok := a.accepted.Load(key); ok {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(token)); err != nil {
		return ErrUnauthorized
	}
	a.accepted.Store(key, struct{}{})
	return nil
}

// Enabled reports whether tokens are checked.
func (a *Authenticator) Enabled() bool { return a != nil }

// HashToken produces a value for auth.token_hash.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
