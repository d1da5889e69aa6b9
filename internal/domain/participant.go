// Package domain defines the persistence models for the gift exchange:
// participants, their login sessions, and the singleton scheduled job that
// draws the assignments. These types are mapped with GORM and shared across
// the repository and service layers.
package domain

import "time"

// Participant is one registered member of the exchange.
//
// Fields:
//   - Identity: human-chosen handle; primary key, immutable after creation.
//   - CredentialHash: argon2id-encoded secret; never serialized.
//   - ContactInfo / Wishes: free text, editable by the owner at any time.
//   - AssignedTo: identity of the recipient; NULL until the draw runs.
//   - AssignmentRecord: formatted recipient summary written by the draw.
//   - AssignedAt: when the draw wrote the record.
//   - CreatedAt: registration time; defines snapshot ordering.
type Participant struct {
	Identity         string     `json:"identity"                    gorm:"type:varchar(50);primaryKey"`
	CredentialHash   string     `json:"-"                           gorm:"type:varchar(255);not null"`
	ContactInfo      string     `json:"contact_info"                gorm:"type:varchar(255);not null;default:''"`
	Wishes           string     `json:"wishes"                      gorm:"type:text;not null;default:''"`
	AssignedTo       *string    `json:"-"                           gorm:"type:varchar(50)"`
	AssignmentRecord *string    `json:"-"                           gorm:"type:text"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"                  gorm:"not null;index:idx_participants_created"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Sessions []Session `json:"-" gorm:"foreignKey:Identity;references:Identity;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Participant.
func (Participant) TableName() string { return "participants" }

// HasAssignment reports whether the draw has written a record for p.
func (p *Participant) HasAssignment() bool {
	return p.AssignmentRecord != nil && *p.AssignmentRecord != ""
}

// Session maps an opaque bearer token to a participant. Only the SHA-256
// digest of the token is stored.
type Session struct {
	ID        string    `gorm:"type:char(26);primaryKey"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex:ux_sessions_token"`
	Identity  string    `gorm:"type:varchar(50);not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	RevokedAt *time.Time
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }
