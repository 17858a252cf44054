package targets

import (
	"context"

	"github.com/otterbrix/pgchurn/pkg/data"
)

// Processor is a type that writes the work of one iteration to a store
type Processor interface {
	// ProcessBatch writes a single batch as one unit. It returns the number
	// of rows the batch touched. When doLoad is false nothing is written.
	ProcessBatch(ctx context.Context, b *data.Batch, doLoad bool) (rowCount uint64, err error)
}

// ProcessorCloser is a Processor that also needs to close or cleanup afterwards
type ProcessorCloser interface {
	Processor
	// Close cleans up after a Processor
	Close(doLoad bool) error
}
