package common

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueClosed is returned to producers enqueueing after shutdown began.
	ErrQueueClosed = errors.New("queue closed")

	// ErrQueueDrained signals the writer that the queue is closed and empty.
	// It is the normal termination signal, not a failure.
	ErrQueueDrained = errors.New("queue drained")

	// ErrEnqueueTimeout is returned when a bounded enqueue wait expires. The
	// message was never admitted.
	ErrEnqueueTimeout = errors.New("enqueue timed out")

	// ErrBlobReleased is the panic value for use of a blob after release.
	ErrBlobReleased = errors.New("blob used after release")

	// ErrFatal marks unrecoverable storage engine failures. Engines wrap it
	// (see Fatal) to stop the writer.
	ErrFatal = errors.New("fatal engine error")

	ErrEmptyKey      = errors.New("key must be non-empty")
	ErrKeyTooLarge   = errors.New("key too large")
	ErrValueTooLarge = errors.New("value too large")
	ErrKeyNotFound   = errors.New("key not found")
)

// Fatal wraps err so that IsFatal reports true for it.
func Fatal(err error) error {
	if err == nil || errors.Is(err, ErrFatal) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsFatal reports whether err is an unrecoverable engine failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// EngineError describes a single mutation the storage engine rejected.
type EngineError struct {
	Action Action
	Key    []byte
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Action, e.Key, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
