package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	"github.com/angelmondragon/estatehub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/security"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

const emailUniqueConstraint = "users_email_key"

// Service manages account profiles and settings.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
	UploadPhoto(ctx context.Context, userID uuid.UUID, photo storage.Upload) (*UserDTO, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*UserDTO, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	OwnedImages(ctx context.Context, ownerID uuid.UUID) ([]string, error)
}

// ServiceParams bundles the dependencies of the users service.
type ServiceParams struct {
	Repo           userRepository
	Storage        storage.Store
	PasswordConfig config.PasswordConfig
	MaxUploadBytes int64
	Logger         *logger.Logger
	Now            func() time.Time
}

type service struct {
	repo        userRepository
	store       storage.Store
	passwordCfg config.PasswordConfig
	maxUpload   int64
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("file storage is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:        params.Repo,
		store:       params.Storage,
		passwordCfg: params.PasswordConfig,
		maxUpload:   params.MaxUploadBytes,
		logg:        params.Logger,
		now:         now,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	updates := db.WithUpdatedTimestamp(map[string]any{
		"name":    name,
		"phone":   strings.TrimSpace(req.Phone),
		"address": strings.TrimSpace(req.Address),
		"bio":     strings.TrimSpace(req.Bio),
	}, s.now())
	if err := s.update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// UploadPhoto replaces the profile photo. The previous file is removed
// unless it is the shared default avatar.
func (s *service) UploadPhoto(ctx context.Context, userID uuid.UUID, photo storage.Upload) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	name, err := storage.SaveImage(ctx, s.store, "user", photo, s.maxUpload)
	if err != nil {
		return nil, err
	}
	if err := s.update(ctx, userID, db.WithUpdatedTimestamp(map[string]any{"photo": name}, s.now())); err != nil {
		_ = s.store.Delete(ctx, name)
		return nil, err
	}

	if previous := user.Photo; previous != "" && previous != models.DefaultAvatar {
		if err := s.store.Delete(ctx, previous); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "photo", previous), "users.photo.cleanup_failed")
		}
	}
	return s.Get(ctx, userID)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "Current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid new password")
	}
	return s.update(ctx, userID, db.WithUpdatedTimestamp(map[string]any{"password_hash": hash}, s.now()))
}

// UpdateSettings changes only the provided fields. A new email address has to
// be verified again.
func (s *service) UpdateSettings(ctx context.Context, userID uuid.UUID, req UpdateSettingsRequest) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		if email != user.Email {
			updates["email"] = email
			updates["email_verified"] = false
			updates["email_verification_code_hash"] = nil
			updates["email_verification_expires_at"] = nil
		}
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Notifications != nil {
		updates["notifications"] = datatypes.NewJSONType(*req.Notifications)
	}
	if req.Language != nil {
		lang := enums.Language(strings.TrimSpace(*req.Language))
		if !lang.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported language")
		}
		updates["language"] = lang
	}
	if len(updates) == 0 {
		return FromModel(user), nil
	}

	if err := s.update(ctx, userID, db.WithUpdatedTimestamp(updates, s.now())); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// DeleteAccount removes the user and every row they own, then the files
// those rows referenced.
func (s *service) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	images, err := s.repo.OwnedImages(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list owned images")
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}

	if user.Photo != "" && user.Photo != models.DefaultAvatar {
		images = append(images, user.Photo)
	}
	for _, name := range images {
		if err := s.store.Delete(ctx, name); err != nil && s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "file", name), "users.delete.file_cleanup_failed", err)
		}
	}
	return nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) update(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		case db.IsUniqueViolation(err, emailUniqueConstraint):
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "Email already in use")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return nil
}
