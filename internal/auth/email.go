package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/internal/mail"
	"github.com/angelmondragon/estatehub-backend/internal/users"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/security"
)

// EmailService runs the code based email verification and password reset
// flows. Each flow keeps at most one active code per user; issuing a new
// code overwrites the previous one and consuming it clears it.
type EmailService interface {
	SendVerification(ctx context.Context, userID uuid.UUID) error
	ResendVerification(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, userID uuid.UUID, req VerifyEmailRequest) (*users.UserDTO, error)
	RequestReset(ctx context.Context, req RequestResetRequest) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
}

type EmailServiceParams struct {
	UserRepo       userRepository
	Mailer         mail.Sender
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
	Now            func() time.Time
}

type emailService struct {
	users       userRepository
	mailer      mail.Sender
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

func NewEmailService(params EmailServiceParams) (EmailService, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	return &emailService{
		users:       params.UserRepo,
		mailer:      params.Mailer,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         nowFunc(params.Now),
	}, nil
}

func (s *emailService) SendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.unverifiedUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.issueVerification(ctx, user)
}

// ResendVerification refuses while the current code is still valid.
func (s *emailService) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	user, err := s.unverifiedUser(ctx, userID)
	if err != nil {
		return err
	}
	now := s.now()
	if exp := user.EmailVerificationExpiresAt; exp != nil && exp.After(now) {
		minutes := int(math.Ceil(exp.Sub(now).Minutes()))
		return pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("Please wait %d minutes before requesting a new code", minutes))
	}
	return s.issueVerification(ctx, user)
}

func (s *emailService) VerifyEmail(ctx context.Context, userID uuid.UUID, req VerifyEmailRequest) (*users.UserDTO, error) {
	user, err := s.unverifiedUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EmailVerificationCodeHash == nil || !security.CodeMatches(req.Code, *user.EmailVerificationCodeHash) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid verification code")
	}
	if user.EmailVerificationExpiresAt == nil || !user.EmailVerificationExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Verification code has expired")
	}

	if err := s.users.Update(ctx, user.ID, db.WithUpdatedTimestamp(map[string]any{
		"email_verified":                true,
		"email_verification_code_hash":  nil,
		"email_verification_expires_at": nil,
	}, s.now())); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark email verified")
	}

	if err := s.mailer.Send(ctx, mail.Message{Kind: mail.KindWelcome, To: user.Email, Name: user.Name}); err != nil {
		s.logError(ctx, user.ID, "auth.verify.welcome_mail_failed", err)
	}

	user.EmailVerified = true
	user.EmailVerificationCodeHash = nil
	user.EmailVerificationExpiresAt = nil
	return users.FromModel(user), nil
}

// RequestReset mails a reset code. Unknown addresses succeed silently.
func (s *emailService) RequestReset(ctx context.Context, req RequestResetRequest) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	code, err := security.GenerateNumericCode(security.CodeLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset code")
	}
	now := s.now()
	if err := s.users.Update(ctx, user.ID, db.WithUpdatedTimestamp(map[string]any{
		"reset_code_hash":       security.HashCode(code),
		"reset_code_expires_at": now.Add(ResetCodeTTL),
	}, now)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store reset code")
	}

	if err := s.mailer.Send(ctx, mail.Message{
		Kind: mail.KindResetCode,
		To:   user.Email,
		Name: user.Name,
		Data: map[string]string{"code": code},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to send reset email")
	}
	return nil
}

func (s *emailService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Invalid reset code or email")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	if user.ResetCodeHash == nil || !security.CodeMatches(req.Code, *user.ResetCodeHash) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid reset code or email")
	}
	if user.ResetCodeExpiresAt == nil || !user.ResetCodeExpiresAt.After(s.now()) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Reset code has expired")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid new password")
	}
	if err := s.users.Update(ctx, user.ID, db.WithUpdatedTimestamp(map[string]any{
		"password_hash":         hash,
		"reset_code_hash":       nil,
		"reset_code_expires_at": nil,
	}, s.now())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}

	if err := s.mailer.Send(ctx, mail.Message{Kind: mail.KindPasswordChanged, To: user.Email, Name: user.Name}); err != nil {
		s.logError(ctx, user.ID, "auth.reset.confirmation_mail_failed", err)
	}
	return nil
}

func (s *emailService) unverifiedUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.EmailVerified {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email already verified")
	}
	return user, nil
}

func (s *emailService) issueVerification(ctx context.Context, user *models.User) error {
	code, err := security.GenerateNumericCode(security.CodeLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}
	now := s.now()
	if err := s.users.Update(ctx, user.ID, db.WithUpdatedTimestamp(map[string]any{
		"email_verification_code_hash":  security.HashCode(code),
		"email_verification_expires_at": now.Add(VerificationCodeTTL),
	}, now)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store verification code")
	}

	if err := s.mailer.Send(ctx, mail.Message{
		Kind: mail.KindVerificationCode,
		To:   user.Email,
		Name: user.Name,
		Data: map[string]string{"code": code},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to send verification email")
	}
	return nil
}

func (s *emailService) logError(ctx context.Context, userID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithUserID(ctx, userID.String()), msg, err)
}
