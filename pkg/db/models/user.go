package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

// DefaultAvatar is the photo every account starts with.
const DefaultAvatar = "default-avatar.png"

// NotificationPrefs controls which channels a user accepts.
type NotificationPrefs struct {
	Enabled bool `json:"enabled"`
	Email   bool `json:"email"`
	Push    bool `json:"push"`
}

// DefaultNotificationPrefs enables every channel.
func DefaultNotificationPrefs() NotificationPrefs {
	return NotificationPrefs{Enabled: true, Email: true, Push: true}
}

// User represents an account. PasswordHash is empty for social-only accounts.
type User struct {
	ID                         uuid.UUID                            `gorm:"column:id;type:uuid;primaryKey"`
	Name                       string                               `gorm:"column:name;not null"`
	Email                      string                               `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	PasswordHash               string                               `gorm:"column:password_hash"`
	Phone                      string                               `gorm:"column:phone"`
	Photo                      string                               `gorm:"column:photo;not null"`
	Address                    string                               `gorm:"column:address"`
	Bio                        string                               `gorm:"column:bio"`
	Role                       enums.UserRole                       `gorm:"column:role;not null"`
	IsActive                   bool                                 `gorm:"column:is_active;not null"`
	EmailVerified              bool                                 `gorm:"column:email_verified;not null"`
	EmailVerificationCodeHash  *string                              `gorm:"column:email_verification_code_hash"`
	EmailVerificationExpiresAt *time.Time                           `gorm:"column:email_verification_expires_at"`
	ResetCodeHash              *string                              `gorm:"column:reset_code_hash"`
	ResetCodeExpiresAt         *time.Time                           `gorm:"column:reset_code_expires_at"`
	GoogleID                   *string                              `gorm:"column:google_id;uniqueIndex:users_google_id_key"`
	FacebookID                 *string                              `gorm:"column:facebook_id;uniqueIndex:users_facebook_id_key"`
	OAuthProvider              enums.OAuthProvider                  `gorm:"column:oauth_provider;not null"`
	Notifications              datatypes.JSONType[NotificationPrefs] `gorm:"column:notifications;type:jsonb;not null"`
	Language                   enums.Language                       `gorm:"column:language;not null"`
	CreatedAt                  time.Time                            `gorm:"column:created_at;not null"`
	UpdatedAt                  time.Time                            `gorm:"column:updated_at;not null"`
}

// NewUser builds a user with the account defaults applied. The caller owns
// hashing the password before it reaches the row.
func NewUser(name, email, passwordHash string, provider enums.OAuthProvider, now time.Time) *User {
	return &User{
		ID:            uuid.New(),
		Name:          name,
		Email:         email,
		PasswordHash:  passwordHash,
		Photo:         DefaultAvatar,
		Role:          enums.UserRoleUser,
		IsActive:      true,
		OAuthProvider: provider,
		Notifications: datatypes.NewJSONType(DefaultNotificationPrefs()),
		Language:      enums.LanguageEnglish,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
