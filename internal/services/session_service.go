// Package services – SessionService
//
// Sessions replace the practice of sending identity:secret pairs on every
// request. Login runs the credential gate once and issues an opaque random
// token; only its SHA-256 digest is stored, mapped to the identity with an
// expiry. Protected requests present the token and are resolved back to the
// identity server-side.
package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/tbourn/go-gift-exchange/internal/domain"
	"github.com/tbourn/go-gift-exchange/internal/repo"
)

// sessionTokenBytes is the entropy of an issued token.
const sessionTokenBytes = 32

// Authenticator is the credential gate consumed by SessionService.
type Authenticator interface {
	Authenticate(ctx context.Context, identity, credential string) (*domain.Participant, error)
}

// IssuedSession is returned to the client after a successful login.
type IssuedSession struct {
	Token     string
	Identity  string
	ExpiresAt time.Time
}

// SessionService issues, resolves, and revokes login sessions.
type SessionService struct {
	DB   *gorm.DB
	Auth Authenticator
	TTL  time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// NewSessionService constructs a SessionService with the given TTL.
func NewSessionService(db *gorm.DB, auth Authenticator, ttl time.Duration) *SessionService {
	return &SessionService{DB: db, Auth: auth, TTL: ttl, Now: time.Now}
}

func (s *SessionService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Login verifies the credential and issues a new session token.
func (s *SessionService) Login(ctx context.Context, identity, credential string) (*IssuedSession, error) {
	p, err := s.Auth.Authenticate(ctx, identity, credential)
	if err != nil {
		return nil, err
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, err
	}

	row := &domain.Session{
		ID:        id.String(),
		TokenHash: HashToken(token),
		Identity:  p.Identity,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}
	if err := repo.CreateSession(ctx, s.DB, row); err != nil {
		return nil, err
	}
	return &IssuedSession{Token: token, Identity: p.Identity, ExpiresAt: row.ExpiresAt}, nil
}

// Resolve maps a presented token to its identity. Unknown, revoked, and
// expired tokens all yield ErrUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}
	row, err := repo.GetSessionByTokenHash(ctx, s.DB, HashToken(token))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if row.RevokedAt != nil || !row.ExpiresAt.After(s.now()) {
		return "", ErrUnauthorized
	}
	return row.Identity, nil
}

// Logout revokes the session for token. Unknown tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	return repo.RevokeSession(ctx, s.DB, HashToken(strings.TrimSpace(token)), s.now())
}

// PurgeExpired deletes sessions past their expiry.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return repo.DeleteExpiredSessions(ctx, s.DB, s.now())
}

// HashToken returns the hex SHA-256 digest stored in place of a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
