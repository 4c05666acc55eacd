package queue

import (
	"errors"
	"fmt"

	"fwea/internal/services"
)

var (
	// ErrJobNotFound is returned when no job matches the requested ID.
	ErrJobNotFound = fmt.Errorf("%w: job", services.ErrNotFound)
	// ErrJobFinalized is returned when a save would overwrite a job that
	// already reached a terminal status, typically one ReclaimStale failed.
	ErrJobFinalized = errors.New("job already finalized")
	// ErrSchemaMismatch indicates the database schema version doesn't match
	// the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)
