// Package services – ParticipantService
//
// This file implements the participant-facing operations: registration,
// profile edits, the credential check used to gate reads, and retrieval of
// the participant's own assignment record. Identities are trimmed and
// NFC-normalized so visually identical handles map to the same row.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-gift-exchange/internal/domain"
	"github.com/tbourn/go-gift-exchange/internal/repo"
	"github.com/tbourn/go-gift-exchange/internal/security/password"
)

// Field limits, in runes.
const (
	MaxIdentityRunes = 50
	MaxContactRunes  = 255
	MaxWishesRunes   = 4000
)

// CredentialHasher hashes new credentials and verifies presented ones.
// password.Config satisfies it.
type CredentialHasher interface {
	Hash(secret string) (string, error)
	Verify(encoded, secret string) (bool, error)
}

// ParticipantService owns the participant registry operations.
type ParticipantService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Hasher hashes and verifies credentials.
	Hasher CredentialHasher
}

// NewParticipantService constructs a ParticipantService.
func NewParticipantService(db *gorm.DB, hasher CredentialHasher) *ParticipantService {
	return &ParticipantService{DB: db, Hasher: hasher}
}

// NormalizeIdentity trims surrounding whitespace and applies NFC.
func NormalizeIdentity(identity string) string {
	return norm.NFC.String(strings.TrimSpace(identity))
}

// Register creates a participant with the given identity and credential.
func (s *ParticipantService) Register(ctx context.Context, identity, credential string) (*domain.Participant, error) {
	ctx, span := otel.Tracer("services/ParticipantService").Start(ctx, "Register")
	defer span.End()

	identity = NormalizeIdentity(identity)
	if identity == "" || utf8.RuneCountInString(identity) > MaxIdentityRunes {
		return nil, ErrInvalidIdentity
	}
	span.SetAttributes(attribute.String("participant.identity", identity))

	hash, err := s.Hasher.Hash(credential)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	p, err := repo.CreateParticipant(ctx, s.DB, identity, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return p, nil
}

// Authenticate is the credential gate: it returns the participant when the
// credential matches the stored one, and ErrUnauthorized otherwise. An
// unknown identity and a wrong credential are indistinguishable to callers.
func (s *ParticipantService) Authenticate(ctx context.Context, identity, credential string) (*domain.Participant, error) {
	ctx, span := otel.Tracer("services/ParticipantService").Start(ctx, "Authenticate")
	defer span.End()

	p, err := repo.GetParticipant(ctx, s.DB, NormalizeIdentity(identity))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	ok, err := s.Hasher.Verify(p.CredentialHash, credential)
	if err != nil || !ok {
		return nil, ErrUnauthorized
	}
	return p, nil
}

// Profile returns the participant's own row.
func (s *ParticipantService) Profile(ctx context.Context, identity string) (*domain.Participant, error) {
	p, err := repo.GetParticipant(ctx, s.DB, identity)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// UpdateWishes overwrites the participant's wish list. Records already written
// for other participants keep the wishes captured at draw time.
func (s *ParticipantService) UpdateWishes(ctx context.Context, identity, text string) error {
	return s.updateText(ctx, "UpdateWishes", identity, text, MaxWishesRunes, repo.UpdateWishes)
}

// UpdateContact overwrites the participant's contact details.
func (s *ParticipantService) UpdateContact(ctx context.Context, identity, text string) error {
	return s.updateText(ctx, "UpdateContact", identity, text, MaxContactRunes, repo.UpdateContact)
}

// GetAssignment returns the formatted record naming who identity gifts to.
// Before the draw it returns ErrNotYetAssigned.
func (s *ParticipantService) GetAssignment(ctx context.Context, identity string) (string, error) {
	ctx, span := otel.Tracer("services/ParticipantService").Start(ctx, "GetAssignment",
		trace.WithAttributes(attribute.String("participant.identity", identity)),
	)
	defer span.End()

	p, err := s.Profile(ctx, identity)
	if err != nil {
		return "", err
	}
	if !p.HasAssignment() {
		return "", ErrNotYetAssigned
	}
	return *p.AssignmentRecord, nil
}

func (s *ParticipantService) updateText(
	ctx context.Context,
	op, identity, text string,
	maxRunes int,
	write func(context.Context, *gorm.DB, string, string) error,
) error {
	ctx, span := otel.Tracer("services/ParticipantService").Start(ctx, op,
		trace.WithAttributes(attribute.String("participant.identity", identity)),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > maxRunes {
		return ErrTooLong
	}
	if err := write(ctx, s.DB, identity, text); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
