// Package session persists Superset authentication state between CLI
// invocations.
//
// A [Session] holds the token pair issued by a Superset host for one
// named profile. The [Store] interface has implementations for
// different backends:
//   - memory: In-memory storage for development/testing
//   - file: File-based storage for CLI applications
//   - redis: Redis-backed storage for shared environments
//
// # Usage
//
// Create a session store:
//
//	// CLI
//	store, err := session.NewFileStore("")  // Uses ~/.config/supergrid/sessions/
//
//	// Development
//	store := session.NewMemoryStore()
//
//	// Shared
//	store := session.NewRedisStore(redisClient)
//
// Manage sessions:
//
//	sess := session.New("prod", host, username, access, refresh, session.DefaultTTL)
//	store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, "prod")
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // Not logged in on this profile
//	}
//
// Sessions expire with the refresh token, after which a fresh login is
// required. Expired sessions read as missing.
package session

import (
	"context"
	"time"
)

// Session stores the authentication state of one profile.
type Session struct {
	// Profile names the configuration profile this session belongs to.
	// It doubles as the storage key.
	Profile string `json:"profile"`

	Host     string `json:"host"`
	Username string `json:"username"`

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is when the refresh token stops working and a new
	// login is needed. The shorter-lived access token is renewed
	// transparently by the client.
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by profile name.
	// Returns nil, nil if no usable session exists.
	Get(ctx context.Context, profile string) (*Session, error)

	// Set stores a session under its profile name.
	Set(ctx context.Context, session *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, profile string) error

	// Cleanup removes expired sessions (may be a no-op for backends
	// with native expiry).
	Cleanup(ctx context.Context) error
}

// DefaultTTL is the default session duration, matching Superset's
// refresh token lifetime.
const DefaultTTL = 30 * 24 * time.Hour

// New creates a session for a profile with the given token pair.
func New(profile, host, username, accessToken, refreshToken string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		Profile:      profile,
		Host:         host,
		Username:     username,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
	}
}
