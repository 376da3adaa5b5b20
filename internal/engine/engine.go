package engine

import (
	"finedb/internal/common"
)

// Engine is the mutating half of a storage backend. The writer is the only
// caller of these methods, so implementations need no write-side locking
// against each other. Implementations must not retain key or value after
// returning.
//
// Errors wrapping common.ErrFatal stop the writer; any other error rejects
// just that mutation.
type Engine interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Reader serves point lookups. It may be called concurrently with the writer.
// A missing key yields common.ErrKeyNotFound.
type Reader interface {
	Get(key []byte) ([]byte, error)
}

// Backend is a complete storage engine as plugged under a store.
type Backend interface {
	Engine
	Reader
	Close() error
}

// Limits bounds what an engine accepts. Violations are recoverable errors.
type Limits struct {
	MaxKeySize   int
	MaxValueSize int
	// StrictDelete reports deletes of missing keys as common.ErrKeyNotFound
	// instead of treating them as no-ops.
	StrictDelete bool
}

var DefaultLimits = Limits{
	MaxKeySize:   64 << 10,
	MaxValueSize: 16 << 20,
}

// CheckPut validates a put against the limits. Zero limits are unbounded.
func (l Limits) CheckPut(key, value []byte) error {
	if err := l.CheckKey(key); err != nil {
		return err
	}
	if l.MaxValueSize > 0 && len(value) > l.MaxValueSize {
		return common.ErrValueTooLarge
	}
	return nil
}

// CheckKey validates a key against the limits.
func (l Limits) CheckKey(key []byte) error {
	if len(key) == 0 {
		return common.ErrEmptyKey
	}
	if l.MaxKeySize > 0 && len(key) > l.MaxKeySize {
		return common.ErrKeyTooLarge
	}
	return nil
}
