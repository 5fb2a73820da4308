// Package blob re-exports the blob abstractions and selects a driver.
package blob

import (
	"context"
	"fmt"

	"studiostock/internal/blob/core"
	infrafs "studiostock/internal/infra/blob/fs"
	inframemory "studiostock/internal/infra/blob/memory"
	infras3 "studiostock/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the s3 driver.
	S3Config = infras3.Config
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrNotFound is returned (wrapped) when a key is missing.
var ErrNotFound = core.ErrNotFound

// Config selects and configures a driver.
type Config struct {
	Driver Driver
	FSRoot string
	S3     S3Config
}

// Open constructs the configured Store. An empty driver means fs.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return infrafs.New(cfg.FSRoot)
	case DriverS3:
		return infras3.New(ctx, cfg.S3)
	case DriverMemory:
		return inframemory.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
