package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email string    `gorm:"uniqueIndex;not null" json:"email"`
	Name  string    `gorm:"not null;default:''" json:"name"`

	// Empty for OAuth-only accounts.
	PasswordHash string `gorm:"not null;default:''" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Session is one issued token set. The session id doubles as the JWT jti, so
// sign-out can revoke a token before it expires.
type Session struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s *Session) Revoked() bool { return s.RevokedAt != nil }
