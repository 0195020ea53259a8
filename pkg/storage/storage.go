// Package storage defines the file store used for property images and
// profile photos. Entities keep only the returned object name.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/estatehub-backend/pkg/errors"
)

// MaxFileBytes is the default per-file upload cap.
const MaxFileBytes = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store persists uploaded files.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// ValidateImage rejects content types other than jpeg, png, webp and gif, and
// files larger than maxBytes.
func ValidateImage(contentType string, size, maxBytes int64) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := allowedImageTypes[ct]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "Only image files are allowed (jpeg, png, webp, gif)")
	}
	if maxBytes <= 0 {
		maxBytes = MaxFileBytes
	}
	if size > maxBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("File too large (max %d MB)", maxBytes>>20))
	}
	return nil
}

// ObjectName builds a unique object name under prefix, keeping an extension
// that matches the content type.
func ObjectName(prefix, original, contentType string) string {
	ext := strings.ToLower(path.Ext(original))
	if want, ok := allowedImageTypes[strings.ToLower(contentType)]; ok && ext == "" {
		ext = want
	}
	name := uuid.NewString() + ext
	if prefix = strings.Trim(prefix, "/ "); prefix != "" {
		return prefix + "-" + name
	}
	return name
}

// SafeName reports whether name is a bare object name without path segments.
func SafeName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SaveImage validates the upload and stores it under a fresh object name.
func SaveImage(ctx context.Context, store Store, prefix string, up Upload, maxBytes int64) (string, error) {
	if store == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "file storage not configured")
	}
	if err := ValidateImage(up.ContentType, up.Size, maxBytes); err != nil {
		return "", err
	}
	name, err := store.Save(ctx, ObjectName(prefix, up.Filename, up.ContentType), up.ContentType, up.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}
	return name, nil
}
