// Package storage keeps generated lead documents.
//
// LocalStorage writes to the filesystem and is served by the app itself in
// development. R2Storage talks to Cloudflare R2 through the S3 API.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for object storage operations.
type Storage interface {
	// Put stores data at key. Fails with ErrKeyExists unless opts.Overwrite.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object body (caller closes) and its metadata.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link to the object. A zero expires asks for a permanent
	// public link where the provider has one.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string
	MaxSize     int64 // 0 means no limit
	Overwrite   bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration
// =============================================================================

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	Local    LocalConfig
	R2       R2Config
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	BasePath string // e.g. "./storage"
	BaseURL  string // e.g. "http://localhost:8080/files"
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom domain. Without it every URL is presigned.
	PublicURL string

	// Endpoint overrides https://{AccountID}.r2.cloudflarestorage.com.
	Endpoint string

	// Region defaults to "auto".
	Region string
}

// New creates the configured provider.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderLocal, "":
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
