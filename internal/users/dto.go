package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
)

// UserDTO is the transport shape of an account. Credentials and pending
// codes never leave the service.
type UserDTO struct {
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"name"`
	Email         string                   `json:"email"`
	Phone         string                   `json:"phone"`
	Photo         string                   `json:"photo"`
	Address       string                   `json:"address"`
	Bio           string                   `json:"bio"`
	Role          enums.UserRole           `json:"role"`
	IsActive      bool                     `json:"isActive"`
	EmailVerified bool                     `json:"isEmailVerified"`
	OAuthProvider enums.OAuthProvider      `json:"oauthProvider"`
	Notifications models.NotificationPrefs `json:"notifications"`
	Language      enums.Language           `json:"language"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// Summary is the display slice of a user embedded in other resources.
type Summary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Photo string    `json:"photo"`
	Phone string    `json:"phone,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Photo:         u.Photo,
		Address:       u.Address,
		Bio:           u.Bio,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		OAuthProvider: u.OAuthProvider,
		Notifications: u.Notifications.Data(),
		Language:      u.Language,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// SummaryFromModel returns nil for an unloaded association.
func SummaryFromModel(u *models.User) *Summary {
	if u == nil || u.ID == uuid.Nil {
		return nil
	}
	return &Summary{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Phone: u.Phone}
}

type UpdateProfileRequest struct {
	Name    string `json:"name" validate:"required,max=50"`
	Phone   string `json:"phone" validate:"max=30"`
	Address string `json:"address" validate:"max=200"`
	Bio     string `json:"bio" validate:"max=500"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// UpdateSettingsRequest only touches the fields that are present.
type UpdateSettingsRequest struct {
	Email         *string                   `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string                   `json:"phone,omitempty" validate:"omitempty,max=30"`
	Notifications *models.NotificationPrefs `json:"notifications,omitempty"`
	Language      *string                   `json:"language,omitempty"`
}
