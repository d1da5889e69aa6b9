// Package services defines the business logic for the gift exchange:
// registration and profile edits, credential checks and sessions, and the
// deadline scheduler that draws assignments exactly once. This file
// centralizes service-level error values so that they can be consistently
// returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/go-gift-exchange/internal/derangement"
)

// Participant-related errors.
var (
	// ErrAlreadyExists is returned when registering an identity that is taken.
	ErrAlreadyExists = errors.New("identity already registered")

	// ErrNotFound indicates that the participant does not exist.
	ErrNotFound = errors.New("participant not found")

	// ErrInvalidIdentity is returned for an empty or over-long identity.
	ErrInvalidIdentity = errors.New("identity must be 1-50 characters")

	// ErrInvalidCredential is returned when a new credential violates the
	// length policy.
	ErrInvalidCredential = errors.New("credential must be 6-128 characters")

	// ErrTooLong is returned when wishes or contact text exceed their limit.
	ErrTooLong = errors.New("text too long")

	// ErrNotYetAssigned is returned by GetAssignment before the draw has
	// written the participant's record. It is a normal transient state.
	ErrNotYetAssigned = errors.New("assignment not yet available")
)

// Authentication errors.
var (
	// ErrUnauthorized is returned for an unknown identity, a wrong credential,
	// or an invalid, expired, or revoked session token.
	ErrUnauthorized = errors.New("unauthorized")
)

// Scheduler errors.
var (
	// ErrInsufficientParticipants aliases the generator's error so callers
	// can match it without importing the derangement package.
	ErrInsufficientParticipants = derangement.ErrInsufficientParticipants

	// ErrNotDue is returned when a run is requested before the deadline.
	ErrNotDue = errors.New("deadline not reached")
)
