package auth

import (
	"github.com/angelmondragon/estatehub-backend/internal/users"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"max=30"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// GoogleMobileRequest carries the id token obtained by the mobile Google SDK.
type GoogleMobileRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// FacebookMobileRequest carries the access token obtained by the mobile
// Facebook SDK.
type FacebookMobileRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// AuthResponse is returned by every flow that signs a user in.
type AuthResponse struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}
