package wal

import (
	"bytes"
	"context"
	"errors"

	"finedb/internal/common"
)

// ErrCorrupted is returned when a record fails its checksum or carries an
// impossible length.
var ErrCorrupted = errors.New("wal: corrupted record")

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("wal: log is closed")

// Entry is the durable form of one applied mutation.
type Entry struct {
	Action common.Action
	Seq    uint64
	Key    []byte
	Value  []byte
}

// Equal compares two entries using slice content rather than pointer identity.
func (e Entry) Equal(other Entry) bool {
	return e.Action == other.Action && e.Seq == other.Seq && bytes.Equal(e.Key, other.Key) && bytes.Equal(e.Value, other.Value)
}

// WAL defines the minimal contract required by the memory engine to persist
// and recover write operations.
type WAL interface {
	Append(ctx context.Context, batch []Entry) error
	Iterator(ctx context.Context) (Iterator, error)
	// Recover replays the intact prefix of the log and discards a torn tail.
	Recover(ctx context.Context, fn func(Entry) error) (int, error)
	Close() error
}

// Iterator walks entries recovered from the log.
// Next returns false when EOF is reached.
type Iterator interface {
	Next() (Entry, bool, error)
	Close() error
}
