// Package storage abstracts the object stores the upload tool and the
// Parquet export write to.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/caseybackes/galvanize-capstone-one/internal/storage/gcs"
	"github.com/caseybackes/galvanize-capstone-one/internal/storage/local"
)

// Executor defines the object operations every backend supports
type Executor interface {
	// Upload stores data as bucket/objectName
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download returns a reader the caller must close
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object under prefix
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes an object; removing a missing object is not an error
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// Connection is an open storage backend
type Connection interface {
	Executor
	Close() error
	Type() string
	Name() string
}

// Config holds the settings of one storage connection
type Config struct {
	Type            string `yaml:"type" mapstructure:"type"` // "local" or "gcs"
	BucketName      string `yaml:"bucket_name" mapstructure:"bucket_name"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	BaseDir         string `yaml:"base_dir" mapstructure:"base_dir"`
}

var (
	_ Connection = (*local.Adapter)(nil)
	_ Connection = (*gcs.Adapter)(nil)
)

// Open creates the connection described by cfg
func Open(ctx context.Context, name string, cfg Config) (Connection, error) {
	switch cfg.Type {
	case local.ProviderType, "":
		return local.New(cfg.BaseDir, cfg.BucketName, name)
	case gcs.ProviderType:
		return gcs.New(ctx, cfg.CredentialsFile, cfg.BucketName, name)
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
}
