// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for login sessions.
// Tokens never reach this layer in plaintext; callers pass their digest.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-gift-exchange/internal/domain"
)

// CreateSession inserts a session row.
func CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetSessionByTokenHash returns the session with the given token digest,
// or ErrNotFound. Expiry and revocation are left to the caller.
func GetSessionByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("token_hash = ?", tokenHash).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RevokeSession marks the session revoked. Revoking twice keeps the first
// timestamp; a missing session is not an error.
func RevokeSession(ctx context.Context, db *gorm.DB, tokenHash string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		UpdateColumn("revoked_at", at).Error
}

// DeleteExpiredSessions removes sessions that expired before now and
// returns how many rows were deleted.
func DeleteExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
