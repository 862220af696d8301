package pipeline

import "errors"

// ErrBatchTooLarge is returned by ProcessBatch when the batch exceeds the
// configured maximum. Nothing in the batch is executed.
var ErrBatchTooLarge = errors.New("pipeline: batch too large")
