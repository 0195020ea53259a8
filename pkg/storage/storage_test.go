package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage("image/png", 1024, 0))
	assert.NoError(t, ValidateImage("IMAGE/JPEG; charset=binary", 1024, 0))

	err := ValidateImage("application/pdf", 10, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	err = ValidateImage("image/gif", MaxFileBytes+1, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.NoError(t, ValidateImage("image/gif", MaxFileBytes+1, 10<<20))
}

func TestObjectName(t *testing.T) {
	name := ObjectName("property", "house.JPG", "image/jpeg")
	assert.True(t, strings.HasPrefix(name, "property-"))
	assert.True(t, strings.HasSuffix(name, ".jpg"))

	assert.True(t, strings.HasSuffix(ObjectName("", "blob", "image/webp"), ".webp"))
	assert.NotEqual(t, ObjectName("user", "a.png", "image/png"), ObjectName("user", "a.png", "image/png"))
	assert.True(t, SafeName(name))
	assert.False(t, SafeName("../x"))
	assert.False(t, SafeName(""))
}

type recordingStore struct {
	saved map[string]string
	err   error
}

func (s *recordingStore) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	b, _ := io.ReadAll(r)
	s.saved[name] = string(b)
	return name, nil
}

func (s *recordingStore) Delete(ctx context.Context, name string) error {
	delete(s.saved, name)
	return nil
}

func TestSaveImage(t *testing.T) {
	store := &recordingStore{saved: map[string]string{}}
	up := Upload{Filename: "front.PNG", ContentType: "image/png", Size: 4, Body: strings.NewReader("data")}

	name, err := SaveImage(context.Background(), store, "property", up, 0)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "property-"))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Equal(t, "data", store.saved[name])

	_, err = SaveImage(context.Background(), store, "property", Upload{ContentType: "text/plain", Body: strings.NewReader("x")}, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	store.err = errors.New("disk full")
	_, err = SaveImage(context.Background(), store, "property", up, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}
