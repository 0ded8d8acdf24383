// Package local stores objects as files below a base directory. Buckets
// are subdirectories.
package local

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ProviderType is the storage type served by this adapter
const ProviderType = "local"

// Adapter implements the storage connection on the local file system
type Adapter struct {
	baseDir       string
	defaultBucket string
	name          string
}

// New validates baseDir, creating it when missing
func New(baseDir, defaultBucket, name string) (*Adapter, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage %s: base directory must be set", name)
	}
	info, err := os.Stat(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("local storage %s: failed to stat %s: %w", name, baseDir, err)
		}
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("local storage %s: failed to create %s: %w", name, baseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage %s: %s is not a directory", name, baseDir)
	}

	return &Adapter{baseDir: baseDir, defaultBucket: defaultBucket, name: name}, nil
}

// Close releases nothing; files are closed per operation
func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) Type() string {
	return ProviderType
}

func (a *Adapter) Name() string {
	return a.name
}

// Upload writes data to baseDir/bucket/objectName
func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return fmt.Errorf("failed to resolve path for upload: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", fullPath, err)
	}
	return file.Close()
}

// Download opens baseDir/bucket/objectName
func (a *Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path for download: %w", err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", fullPath, err)
	}
	return file, nil
}

// ListObjects walks the bucket directory in lexical order. Object names
// use forward slashes.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	basePath, err := a.resolvePath(bucket, "")
	if err != nil {
		return fmt.Errorf("failed to resolve base path for listing: %w", err)
	}
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		return nil
	}

	err = filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		objectName, err := filepath.Rel(basePath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		objectName = filepath.ToSlash(objectName)
		if !strings.HasPrefix(objectName, prefix) {
			return nil
		}
		return fn(objectName)
	})
	if err != nil {
		return fmt.Errorf("failed to list objects in %s with prefix %q: %w", basePath, prefix, err)
	}
	return nil
}

// DeleteObject removes a file; a missing file only logs a warning
func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return fmt.Errorf("failed to resolve path for delete: %w", err)
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: tried to delete missing object %s", fullPath)
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", fullPath, err)
	}
	return nil
}

// resolvePath maps bucket/objectName below baseDir and rejects paths that
// would escape it
func (a *Adapter) resolvePath(bucket, objectName string) (string, error) {
	if bucket == "" {
		bucket = a.defaultBucket
	}
	fullPath := filepath.Join(a.baseDir, bucket, objectName)

	absBase, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", a.baseDir, err)
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", fullPath, err)
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside of %s", fullPath, a.baseDir)
	}
	return fullPath, nil
}
