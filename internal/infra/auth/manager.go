package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// expiryLeeway treats a token that expires within the next minute as already
// expired, so a cycle is not started with a token that dies mid-flight.
const expiryLeeway = time.Minute

// Manager holds the current bearer token and coordinates refresh and
// persistence. Current is safe to call concurrently (the client and the
// digest job both read it); Refresh is only ever called from the poll loop.
type Manager struct {
	store     *FileStore
	refresher Refresher
	logger    *logrus.Entry

	mu      sync.RWMutex
	current string
}

// NewManager wires the store and refresher together.
func NewManager(store *FileStore, refresher Refresher, log *logrus.Logger) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		logger:    log.WithField("component", "auth"),
	}
}

// Bootstrap loads the persisted token, refreshing when none exists or the
// persisted one has already expired.
func (m *Manager) Bootstrap(ctx context.Context) error {
	token, err := m.store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		m.logger.Info("No persisted token found, running login helper")
		return m.Refresh(ctx)
	case err != nil:
		return err
	}

	if exp, err := TokenExpiry(token); err == nil && time.Now().After(exp.Add(-expiryLeeway)) {
		m.logger.WithField("expired_at", exp).Info("Persisted token expired, running login helper")
		return m.Refresh(ctx)
	}

	m.mu.Lock()
	m.current = token
	m.mu.Unlock()
	return nil
}

// Current returns the token in use, or "" before Bootstrap.
func (m *Manager) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Expired reports whether the current token is (about to be) expired
// according to its JWT exp claim. Tokens that cannot be parsed are assumed
// still valid; a real rejection will surface as an AuthError instead.
func (m *Manager) Expired(now time.Time) bool {
	exp, err := TokenExpiry(m.Current())
	if err != nil {
		return false
	}
	return now.After(exp.Add(-expiryLeeway))
}

// Refresh obtains a fresh token through the login helper and persists it.
func (m *Manager) Refresh(ctx context.Context) error {
	token, err := m.refresher.FetchToken(ctx)
	if err != nil {
		return err
	}

	if err := m.store.Save(token); err != nil {
		// The token still works for this process lifetime; only durability
		// is lost.
		m.logger.WithError(err).Warn("Obtained fresh token but could not persist it")
	}

	m.mu.Lock()
	m.current = token
	m.mu.Unlock()

	if exp, err := TokenExpiry(token); err == nil {
		m.logger.WithField("expires_at", exp).Info("Token refreshed")
	} else {
		m.logger.Info("Token refreshed (expiry not parseable)")
	}
	return nil
}

// TokenExpiry extracts the exp claim from the bearer token without verifying
// the signature. The monitor only consumes the token, it never vouches for it.
func TokenExpiry(token string) (time.Time, error) {
	raw := strings.TrimPrefix(token, "Bearer ")
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("auth: parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("auth: token has no exp claim")
	}
	return exp.Time, nil
}
