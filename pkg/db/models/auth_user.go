package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthUser holds credentials; the matching Profile shares its id.
type AuthUser struct {
	ID               uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string     `gorm:"column:email;type:text;not null;uniqueIndex:auth_users_email_key"`
	PasswordHash     string     `gorm:"column:password_hash;not null"`
	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at"`
	LastSignInAt     *time.Time `gorm:"column:last_sign_in_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (AuthUser) TableName() string { return "auth_users" }

func (u *AuthUser) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Confirmed reports whether the email address has been verified.
func (u AuthUser) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}
