// Package handlers provides HTTP handler implementations for the public API.
//
// Handlers are transport-thin: they bind and validate input, call the
// services, and translate results into HTTP responses. Identity for the
// /me routes comes from middleware.RequireSession, never from the request
// body or a header the client controls.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-gift-exchange/internal/domain"
	"github.com/tbourn/go-gift-exchange/internal/http/middleware"
	"github.com/tbourn/go-gift-exchange/internal/services"
)

//
// Service contracts (context-aware)
//

// ParticipantService is the registry consumed by the participant handlers.
type ParticipantService interface {
	Register(ctx context.Context, identity, credential string) (*domain.Participant, error)
	Profile(ctx context.Context, identity string) (*domain.Participant, error)
	UpdateWishes(ctx context.Context, identity, text string) error
	UpdateContact(ctx context.Context, identity, text string) error
	GetAssignment(ctx context.Context, identity string) (string, error)
}

// SessionService issues and revokes login sessions.
type SessionService interface {
	Login(ctx context.Context, identity, credential string) (*services.IssuedSession, error)
	Logout(ctx context.Context, token string) error
}

// DrawService reports the state of the assignment job.
type DrawService interface {
	Status(ctx context.Context) (*services.SchedulerStatus, error)
}

//
// Handler wiring
//

// Options carries settings the handlers need from configuration.
type Options struct {
	// Deadline is echoed to participants whose assignment is not ready.
	Deadline time.Time
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	participants ParticipantService
	sessions     SessionService
	draw         DrawService
	opts         Options
}

// New constructs a Handlers instance bound to the given services.
func New(participants ParticipantService, sessions SessionService, draw DrawService, opts Options) *Handlers {
	return &Handlers{participants: participants, sessions: sessions, draw: draw, opts: opts}
}

// userID returns the identity resolved by RequireSession.
func userID(c *gin.Context) string {
	return middleware.UserID(c)
}
