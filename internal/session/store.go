// Package session holds the auth credential shared by every outgoing
// request. The store is an explicit dependency of the API client rather
// than process-global state, so callers own the credential's lifetime.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry reports a token without a readable expiry claim.
var ErrNoExpiry = errors.New("token carries no expiry")

// MemoryStore keeps the token in memory for the lifetime of the process.
// It implements the api.TokenStore contract.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token returns the stored credential and whether one is set.
func (store *MemoryStore) Token() (string, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.token, store.token != ""
}

// SetToken replaces the stored credential.
func (store *MemoryStore) SetToken(token string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = token
	return nil
}

// ClearToken forgets the stored credential.
func (store *MemoryStore) ClearToken() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.token = ""
	return nil
}

// TokenExpiry extracts the expiry of a JWT-shaped token without verifying
// its signature. Opaque backend tokens (the common case) return ErrNoExpiry;
// callers use the result only to treat a locally expired credential as
// logged-out before issuing a request.
func TokenExpiry(token string) (time.Time, error) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, ErrNoExpiry
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrNoExpiry, err)
	}
	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return time.Time{}, ErrNoExpiry
	}
	return expiry.Time, nil
}

// Expired reports whether a JWT-shaped token is past its expiry. Tokens
// without a readable expiry are never considered expired locally.
func Expired(token string, now time.Time) bool {
	expiry, err := TokenExpiry(token)
	if err != nil {
		return false
	}
	return now.After(expiry)
}
