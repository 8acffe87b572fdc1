// Package core defines the blob storage contract shared by the infra
// drivers and the blob facade.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory tree
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // process memory (tests, dry runs)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string // small, flat key-value pairs
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a create-only, S3-like object store.
type Store interface {
	// Put stores a new blob and fails with ErrExists if key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns ErrNotFound for a missing key. Callers close the reader.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns blobs under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

var (
	// ErrExists is returned by Put when the key is already stored.
	ErrExists = errors.New("blob: key already exists")
	// ErrNotFound is returned by Get and Head for a missing key.
	ErrNotFound = errors.New("blob: not found")
	// ErrInvalidKey rejects empty, absolute or escaping keys.
	ErrInvalidKey = errors.New("blob: invalid key")
)

// CloneMetadata copies a metadata map; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
