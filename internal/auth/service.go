package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/internal/mail"
	"github.com/angelmondragon/estatehub-backend/internal/users"
	pkgAuth "github.com/angelmondragon/estatehub-backend/pkg/auth"
	"github.com/angelmondragon/estatehub-backend/pkg/auth/session"
	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/oauth"
	"github.com/angelmondragon/estatehub-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "Invalid credentials"
	emailUniqueConstraint     = "users_email_key"
	tempPasswordLength        = 12

	// VerificationCodeTTL bounds how long an emailed verification code works.
	VerificationCodeTTL = 10 * time.Minute
	// ResetCodeTTL bounds how long an emailed password reset code works.
	ResetCodeTTL = time.Hour
)

// Service signs users in with a password or a social identity.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error
	OAuthRedirectURL(ctx context.Context, provider string) (string, error)
	OAuthCallback(ctx context.Context, provider, state, code string) (*AuthResponse, error)
	GoogleMobile(ctx context.Context, req GoogleMobileRequest) (*AuthResponse, error)
	FacebookMobile(ctx context.Context, req FacebookMobileRequest) (*AuthResponse, error)
}

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByProviderID(ctx context.Context, provider enums.OAuthProvider, providerID string) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
}

type stateStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	GetDel(ctx context.Context, key string) (string, error)
	OAuthStateKey(state string) string
}

type providerRegistry interface {
	Get(name enums.OAuthProvider) (oauth.Provider, error)
}

type googleVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (oauth.Profile, error)
}

type facebookVerifier interface {
	VerifyAccessToken(ctx context.Context, accessToken string) (oauth.Profile, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	Mailer         mail.Sender
	StateStore     stateStore
	Providers      providerRegistry
	Google         googleVerifier
	Facebook       facebookVerifier
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	OAuthStateTTL  time.Duration
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	users       userRepository
	session     sessionManager
	mailer      mail.Sender
	states      stateStore
	providers   providerRegistry
	google      googleVerifier
	facebook    facebookVerifier
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	stateTTL    time.Duration
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs the auth service. The OAuth collaborators are
// optional; flows that need a missing one fail with a validation error.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	return &service{
		users:       params.UserRepo,
		session:     params.SessionManager,
		mailer:      params.Mailer,
		states:      params.StateStore,
		providers:   params.Providers,
		google:      params.Google,
		facebook:    params.Facebook,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		stateTTL:    params.OAuthStateTTL,
		logg:        params.Logger,
		now:         nowFunc(params.Now),
	}, nil
}

func nowFunc(now func() time.Time) func() time.Time {
	if now != nil {
		return now
	}
	return func() time.Time { return time.Now().UTC() }
}

// Register creates a local account and mails a verification code. A mail
// failure is logged and does not fail the registration.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and email are required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "User already exists with this email")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	code, err := security.GenerateNumericCode(security.CodeLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}

	now := s.now()
	user := models.NewUser(name, email, hash, enums.OAuthProviderLocal, now)
	user.Phone = strings.TrimSpace(req.Phone)
	codeHash := security.HashCode(code)
	expires := now.Add(VerificationCodeTTL)
	user.EmailVerificationCodeHash = &codeHash
	user.EmailVerificationExpiresAt = &expires

	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, emailUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "User already exists with this email")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if err := s.mailer.Send(ctx, mail.Message{
		Kind: mail.KindVerificationCode,
		To:   user.Email,
		Name: user.Name,
		Data: map[string]string{"code": code},
	}); err != nil {
		s.logError(ctx, user.ID, "auth.register.verification_mail_failed", err)
	}

	return s.issue(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please provide email and password")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return s.issue(ctx, user)
}

// ForgotPassword mails a freshly generated password and stores only its hash.
// Unknown addresses get the same outcome as known ones. The mail goes out
// before the hash is written so a delivery failure leaves the old password
// working.
func (s *service) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	password, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if err := s.mailer.Send(ctx, mail.Message{
		Kind: mail.KindTemporaryPassword,
		To:   user.Email,
		Name: user.Name,
		Data: map[string]string{"password": password},
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Email could not be sent")
	}

	if err := s.users.Update(ctx, user.ID, db.WithUpdatedTimestamp(map[string]any{"password_hash": hash}, s.now())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store password")
	}
	return nil
}

func (s *service) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &AuthResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}

func (s *service) logError(ctx context.Context, userID uuid.UUID, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithUserID(ctx, userID.String()), msg, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
