// Package storage provides an S3-compatible object store for call
// recordings and transcript files.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service defines the object storage operations the calls module needs.
type Service interface {
	// Upload stores a file under the given key prefix and returns the
	// full file key.
	Upload(ctx context.Context, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// Download streams a stored file. The caller closes the reader.
	Download(ctx context.Context, fileKey string) (io.ReadCloser, error)

	// DownloadURL creates a presigned URL for fetching a stored file.
	DownloadURL(ctx context.Context, fileKey string) (*PresignedURL, error)

	// Delete removes a stored file.
	Delete(ctx context.Context, fileKey string) error

	// EnsureBucket creates the backing bucket if it does not exist.
	EnsureBucket(ctx context.Context) error

	// ValidateUpload checks the file name against the upload allowlist
	// and the size against the configured limit.
	ValidateUpload(fileName string, sizeBytes int64) error

	// MaxUploadBytes returns the configured upload size limit.
	MaxUploadBytes() int64
}

// Config is the slice of application configuration the store needs.
type Config interface {
	GetMinioEndpoint() string
	GetMinioAccessKey() string
	GetMinioSecretKey() string
	GetMinioUseSSL() bool
	GetMinioBucket() string
	GetMaxUploadBytes() int64
	IsMinioEnabled() bool
}
