package auth

import (
	"net/http"

	"github.com/angelmondragon/estatehub-backend/api/responses"
	"github.com/angelmondragon/estatehub-backend/api/validators"
	"github.com/angelmondragon/estatehub-backend/internal/auth"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/types"
)

const resetRequestedMessage = "If that email is registered, a reset code has been sent"

func SendVerification(svc auth.EmailService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SendVerification(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Verification code sent to your email")
	}
}

// ResendVerification is refused with 429 while the current code is valid.
func ResendVerification(svc auth.EmailService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResendVerification(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Verification code resent to your email")
	}
}

func VerifyEmail(svc auth.EmailService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body auth.VerifyEmailRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.VerifyEmail(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, types.SuccessEnvelope{
			Success: true,
			Message: "Email verified successfully",
			Data:    user,
		})
	}
}

// RequestReset answers the same way whether or not the email exists.
func RequestReset(svc auth.EmailService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.RequestResetRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RequestReset(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, resetRequestedMessage)
	}
}

func ResetPassword(svc auth.EmailService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.ResetPasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ResetPassword(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Password reset successfully")
	}
}
