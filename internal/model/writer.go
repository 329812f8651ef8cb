package model

import (
	"context"

	core "FlowSpectra/internal/core/model"
)

// Writer defines a generic interface for persisting feature records.
// Writers are driven by a single goroutine and need no locking.
type Writer interface {
	// Write persists one record. Failed records are never passed in.
	Write(ctx context.Context, rec *core.FeatureRecord) error

	// Close flushes buffered output and releases the underlying resource.
	Close() error

	// Name returns the writer type, used in logs.
	Name() string
}
