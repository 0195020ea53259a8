package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"

	"github.com/angelmondragon/estatehub-backend/pkg/config"
	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

const pingTimeout = 5 * time.Second

// Client stores objects in a single Cloud Storage bucket.
type Client struct {
	svc    *storagev1.Service
	bucket string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(storagev1.DevstorageReadWriteScope)}
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

// NewClient builds the bucket client and verifies the bucket is reachable.
// When override options are given they replace the credential options.
func NewClient(ctx context.Context, cfg config.StorageConfig, gcp config.GCPConfig, logg *logger.Logger, override ...option.ClientOption) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	opts := clientOptions(gcp)
	if len(override) > 0 {
		opts = override
	}
	svc, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}

	client := &Client{svc: svc, bucket: cfg.BucketName}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "storage.gcs.ready")
	}
	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	_, err := c.svc.Buckets.Get(c.bucket).Context(ctx).Do()
	return err
}

func (c *Client) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if !storage.SafeName(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	obj := &storagev1.Object{Name: name, ContentType: contentType}
	if _, err := c.svc.Objects.Insert(c.bucket, obj).Media(r).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("upload %q: %w", name, err)
	}
	return name, nil
}

// Delete removes the object; a missing object is not an error.
func (c *Client) Delete(ctx context.Context, name string) error {
	err := c.svc.Objects.Delete(c.bucket, name).Context(ctx).Do()
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}
