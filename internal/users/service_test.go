package users

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/estatehub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
	"github.com/angelmondragon/estatehub-backend/pkg/security"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

type memoryStore struct {
	files   map[string]bool
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: map[string]bool{}}
}

func (m *memoryStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	m.files[name] = true
	return name, nil
}

func (m *memoryStore) Delete(ctx context.Context, name string) error {
	delete(m.files, name)
	m.deleted = append(m.deleted, name)
	return nil
}

func newTestService(t *testing.T) (Service, *Repository, *memoryStore) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	store := newMemoryStore()
	svc, err := NewService(ServiceParams{Repo: repo, Storage: store})
	require.NoError(t, err)
	return svc, repo, store
}

func TestUpdateProfile(t *testing.T) {
	svc, repo, _ := newTestService(t)
	user := dbtest.SeedUser(t, repo.db, "Amal", "amal@example.com")

	dto, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileRequest{
		Name:  "  Amal B ",
		Phone: "0600000000",
		Bio:   "Agent in Rabat",
	})
	require.NoError(t, err)
	assert.Equal(t, "Amal B", dto.Name)
	assert.Equal(t, "0600000000", dto.Phone)
	assert.Equal(t, "Agent in Rabat", dto.Bio)

	_, err = svc.UpdateProfile(context.Background(), uuid.New(), UpdateProfileRequest{Name: "ghost"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestUploadPhotoReplacesPrevious(t *testing.T) {
	svc, repo, store := newTestService(t)
	user := dbtest.SeedUser(t, repo.db, "Omar", "omar@example.com")
	ctx := context.Background()

	first, err := svc.UploadPhoto(ctx, user.ID, storage.Upload{Filename: "a.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("abc")})
	require.NoError(t, err)
	assert.NotEqual(t, models.DefaultAvatar, first.Photo)
	assert.Empty(t, store.deleted, "default avatar is never deleted")

	second, err := svc.UploadPhoto(ctx, user.ID, storage.Upload{Filename: "b.jpg", ContentType: "image/jpeg", Size: 3, Body: strings.NewReader("def")})
	require.NoError(t, err)
	assert.Equal(t, []string{first.Photo}, store.deleted)
	assert.True(t, store.files[second.Photo])

	_, err = svc.UploadPhoto(ctx, user.ID, storage.Upload{Filename: "c.txt", ContentType: "text/plain", Body: strings.NewReader("x")})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestChangePassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	hash, err := security.HashPassword("old-secret", config.PasswordConfig{})
	require.NoError(t, err)
	user := models.NewUser("Sara", "sara@example.com", hash, "local", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, user))

	err = svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "new-secret"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, ChangePasswordRequest{CurrentPassword: "old-secret", NewPassword: "new-secret"}))
	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := security.VerifyPassword("new-secret", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateSettingsEmailChangeResetsVerification(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := dbtest.SeedUser(t, repo.db, "Yassine", "yassine@example.com")
	require.NoError(t, repo.Update(ctx, user.ID, map[string]any{"email_verified": true}))
	dbtest.SeedUser(t, repo.db, "Taken", "taken@example.com")

	email := "New@Example.com"
	lang := "Français"
	prefs := models.NotificationPrefs{Enabled: true, Email: false, Push: true}
	dto, err := svc.UpdateSettings(ctx, user.ID, UpdateSettingsRequest{Email: &email, Language: &lang, Notifications: &prefs})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", dto.Email)
	assert.False(t, dto.EmailVerified)
	assert.Equal(t, "Français", dto.Language.String())
	assert.Equal(t, prefs, dto.Notifications)

	taken := "taken@example.com"
	_, err = svc.UpdateSettings(ctx, user.ID, UpdateSettingsRequest{Email: &taken})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	bad := "Klingon"
	_, err = svc.UpdateSettings(ctx, user.ID, UpdateSettingsRequest{Language: &bad})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDeleteAccountCascadesAndCleansFiles(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()
	owner := dbtest.SeedUser(t, repo.db, "Owner", "owner@example.com")
	property := dbtest.SeedProperty(t, repo.db, owner.ID, func(p *models.Property) {
		p.Images = datatypes.JSONSlice[string]{"property-1.jpg", "property-2.jpg"}
	})

	require.NoError(t, svc.DeleteAccount(ctx, owner.ID))

	var count int64
	require.NoError(t, repo.db.Model(&models.Property{}).Where("id = ?", property.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.ElementsMatch(t, []string{"property-1.jpg", "property-2.jpg"}, store.deleted)

	err := svc.DeleteAccount(ctx, owner.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
