// Package blob is the only entry point to the blob drivers; other packages
// depend on the Store interface re-exported here.
package blob

import (
	"context"
	"fmt"

	"bestiary/internal/blob/core"
	"bestiary/internal/config"
	"bestiary/internal/infra/blob/fs"
	"bestiary/internal/infra/blob/memory"
	infraS3 "bestiary/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3 driver.
	S3Config = infraS3.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrExists     = core.ErrExists
	ErrNotFound   = core.ErrNotFound
	ErrInvalidKey = core.ErrInvalidKey
)

// Open builds the store named by cfg.Driver. It returns a nil Store and no
// error when the driver is "none" or empty.
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	switch cfg.Driver {
	case "", config.BlobNone:
		return nil, nil
	case config.BlobFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case config.BlobMemory:
		return NewMemory(), nil
	case config.BlobS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// NewFilesystem returns a filesystem store rooted at root.
func NewFilesystem(root string) (Store, error) { return fs.New(root) }

// NewMemory returns an in-process store.
func NewMemory() Store { return memory.New() }

// NewS3 returns an S3-backed store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return infraS3.New(ctx, cfg) }

// NewMockS3ForTests exposes the fake-bucket S3 store to other packages' tests.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
