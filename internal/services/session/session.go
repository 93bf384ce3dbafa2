// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues the signed cookie that ties a browser to its scan session.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/assettag/internal/config"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

// Data is the content of a scan session cookie.
type Data struct {
	ExpiresAt time.Time `json:"exp"`
	ID        string    `json:"sid"`
}

// Manager encodes and decodes scan session cookies. Cookies that have used
// up half of their lifetime are renewed on the next request.
type Manager struct {
	codec  *securecookie.SecureCookie
	now    func() time.Time
	name   string
	ttl    time.Duration
	secure bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager from cfg. Without a hash key a random one is
// generated and sessions end with the process.
func NewManager(cfg *config.SessionConfig, secure bool, opts ...Option) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		slog.Warn("no session hash key configured, generating a random one")
		hashKey = securecookie.GenerateRandomKey(32)
	}
	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	// Expiry is checked against Data.ExpiresAt with the injectable clock.
	codec.MaxAge(0)

	m := &Manager{
		codec:  codec,
		now:    time.Now,
		name:   cfg.CookieName,
		ttl:    time.Duration(cfg.MaxAge) * time.Second,
		secure: secure,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func decodeKey(value, kind string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid session %s key: %w", kind, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid session %s key: must be 32 bytes, got %d", kind, len(key))
	}
	return key, nil
}

func (m *Manager) Name() string {
	return m.name
}

// Parse returns the session in r, or nil if there is none, it was tampered
// with or it has expired.
func (m *Manager) Parse(r *http.Request) (*Data, error) {
	c, err := r.Cookie(m.name)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data Data
	if err := m.codec.Decode(m.name, c.Value, &data); err != nil {
		return nil, nil //nolint:nilerr // invalid cookies are treated as absent
	}
	if data.ID == "" || !m.now().Before(data.ExpiresAt) {
		return nil, nil
	}
	return &data, nil
}

// Issue writes a cookie for the session id and returns its content.
func (m *Manager) Issue(w http.ResponseWriter, id string) (*Data, error) {
	data := &Data{ID: id, ExpiresAt: m.now().Add(m.ttl)}
	value, err := m.codec.Encode(m.name, data)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	http.SetCookie(w, m.cookie(value, int(m.ttl/time.Second)))
	return data, nil
}

// Ensure returns the session of the request. A missing or invalid cookie
// starts a new session; an ageing one is reissued under the same id.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) (*Data, error) {
	data, err := m.Parse(r)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return m.Issue(w, uuid.NewString())
	}
	if data.ExpiresAt.Sub(m.now()) < m.ttl/2 {
		return m.Issue(w, data.ID)
	}
	return data, nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
