// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Participant model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a participant is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - Creating an identity that already exists returns ErrDuplicate.
//   - Other DB errors are propagated unchanged.
//
// Field-level writes: profile edits and the draw each update only their own
// columns, so an owner editing wishes never races the draw's record write.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-gift-exchange/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that a row with the same unique key already exists.
var ErrDuplicate = errors.New("duplicate")

// CreateParticipant inserts a participant with empty profile fields.
// It returns ErrDuplicate when identity is already registered.
func CreateParticipant(ctx context.Context, db *gorm.DB, identity, credentialHash string) (*domain.Participant, error) {
	now := time.Now().UTC()
	p := &domain.Participant{
		Identity:       identity,
		CredentialHash: credentialHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// GetParticipant fetches a participant by identity, or ErrNotFound.
func GetParticipant(ctx context.Context, db *gorm.DB, identity string) (*domain.Participant, error) {
	var p domain.Participant
	err := db.WithContext(ctx).
		Where("identity = ?", identity).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListParticipants returns every participant in registration order.
// Identity breaks ties between rows created in the same instant.
func ListParticipants(ctx context.Context, db *gorm.DB) ([]domain.Participant, error) {
	var out []domain.Participant
	err := db.WithContext(ctx).
		Order("created_at asc").
		Order("identity asc").
		Find(&out).Error
	return out, err
}

// CountParticipants returns the number of registered participants.
func CountParticipants(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Participant{}).Count(&total).Error
	return total, err
}

// UpdateWishes overwrites the wishes column only.
func UpdateWishes(ctx context.Context, db *gorm.DB, identity, text string) error {
	return updateColumn(ctx, db, identity, "wishes", text)
}

// UpdateContact overwrites the contact_info column only.
func UpdateContact(ctx context.Context, db *gorm.DB, identity, text string) error {
	return updateColumn(ctx, db, identity, "contact_info", text)
}

// RecordAssignment writes the draw result for one participant: the recipient
// identity, the formatted record, and the time it was written. Only those
// columns are touched. Returns ErrNotFound when the participant is gone.
func RecordAssignment(ctx context.Context, db *gorm.DB, identity, recipient, record string, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("identity = ?", identity).
		UpdateColumns(map[string]any{
			"assigned_to":       recipient,
			"assignment_record": record,
			"assigned_at":       at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func updateColumn(ctx context.Context, db *gorm.DB, identity, column, value string) error {
	res := db.WithContext(ctx).
		Model(&domain.Participant{}).
		Where("identity = ?", identity).
		UpdateColumns(map[string]any{
			column:       value,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects unique-constraint errors across drivers.
// glebarez/sqlite often returns plain-text errors that do not map to
// gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
