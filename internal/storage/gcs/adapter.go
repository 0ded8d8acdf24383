// Package gcs stores objects in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ProviderType is the storage type served by this adapter
const ProviderType = "gcs"

// Adapter implements the storage connection on a GCS client
type Adapter struct {
	client        *storage.Client
	defaultBucket string
	name          string
}

// New creates a GCS client. An empty credentialsFile uses application
// default credentials.
func New(ctx context.Context, credentialsFile, defaultBucket, name string) (*Adapter, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage %s: failed to create client: %w", name, err)
	}
	return &Adapter{client: client, defaultBucket: defaultBucket, name: name}, nil
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) Type() string {
	return ProviderType
}

func (a *Adapter) Name() string {
	return a.name
}

func (a *Adapter) bucket(name string) (*storage.BucketHandle, error) {
	if name == "" {
		name = a.defaultBucket
	}
	if name == "" {
		return nil, fmt.Errorf("gcs storage %s: no bucket given", a.name)
	}
	return a.client.Bucket(name), nil
}

// Upload streams data into bucket/objectName
func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	b, err := a.bucket(bucket)
	if err != nil {
		return err
	}

	w := b.Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload gs://%s/%s: %w", w.Bucket, objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", w.Bucket, objectName, err)
	}
	return nil
}

func (a *Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	b, err := a.bucket(bucket)
	if err != nil {
		return nil, err
	}

	r, err := b.Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", objectName, err)
	}
	return r, nil
}

func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	b, err := a.bucket(bucket)
	if err != nil {
		return err
	}

	it := b.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to list objects with prefix %q: %w", prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

// DeleteObject removes an object; a missing object only logs a warning
func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	b, err := a.bucket(bucket)
	if err != nil {
		return err
	}

	if err := b.Object(objectName).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			log.Printf("Warning: tried to delete missing object %s", objectName)
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", objectName, err)
	}
	return nil
}
