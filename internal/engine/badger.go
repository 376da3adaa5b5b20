package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v2"

	"finedb/internal/common"
)

// badgerMaxKeySize is the largest key a badger v2 transaction accepts.
const badgerMaxKeySize = 65000

// Badger stores data in a BadgerDB instance.
type Badger struct {
	db     *badger.DB
	limits Limits
}

// OpenBadger opens (or creates) a badger database under opts.Dir.
func OpenBadger(opts Options) (*Badger, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("badger: data directory required")
		}
		dir := common.BadgerDir(opts.Dir)
		// badger v2 does not create parent directories
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts = bopts.WithSyncWrites(!opts.NoSync).WithLogger(badgerLogger{})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	limits := opts.Limits
	if limits.MaxKeySize <= 0 || limits.MaxKeySize > badgerMaxKeySize {
		limits.MaxKeySize = badgerMaxKeySize
	}
	return &Badger{db: db, limits: limits}, nil
}

func (b *Badger) Put(key, value []byte) error {
	if err := b.limits.CheckPut(key, value); err != nil {
		return err
	}
	return classify(b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	}))
}

func (b *Badger) Delete(key []byte) error {
	if err := b.limits.CheckKey(key); err != nil {
		return err
	}
	return classify(b.db.Update(func(txn *badger.Txn) error {
		if b.limits.StrictDelete {
			if _, err := txn.Get(key); err != nil {
				return err
			}
		}
		return txn.Delete(key)
	}))
}

func (b *Badger) Get(key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) || errors.Is(err, badger.ErrEmptyKey) {
		return nil, common.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// classify maps badger errors onto the writer's taxonomy: request-level
// rejections stay recoverable, everything else (I/O, closed DB, corruption)
// is fatal.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return common.ErrKeyNotFound
	case errors.Is(err, badger.ErrEmptyKey):
		return common.ErrEmptyKey
	case errors.Is(err, badger.ErrInvalidKey),
		errors.Is(err, badger.ErrTxnTooBig),
		errors.Is(err, badger.ErrConflict),
		errors.Is(err, badger.ErrInvalidRequest):
		return err
	case isSizeError(err, "Key"):
		return fmt.Errorf("%w: %s", common.ErrKeyTooLarge, firstLine(err.Error()))
	case isSizeError(err, "Value"):
		return fmt.Errorf("%w: %s", common.ErrValueTooLarge, firstLine(err.Error()))
	default:
		return common.Fatal(err)
	}
}

// isSizeError matches the unnamed errors badger returns for oversize keys and
// values, e.g. "Key with size 65100 exceeded 65000 limit. Key:\n<hex dump>".
func isSizeError(err error, prefix string) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, prefix+" with size ") && strings.Contains(msg, " limit.")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// badgerLogger routes badger's internal logging to the common logger.
// Info and debug chatter is dropped.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	common.Errorf("badger: "+trimNewline(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	common.Warnf("badger: "+trimNewline(format), args...)
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}
