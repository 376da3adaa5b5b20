package db

import (
	"bytes"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"finedb/internal/common"
	"finedb/internal/engine"
	"finedb/internal/queue"
	"finedb/internal/writer"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = common.ErrKeyNotFound

// DB funnels every mutation through one writer goroutine while serving
// reads directly from the backend.
type DB struct {
	backend engine.Backend
	queue   *queue.Queue
	writer  *writer.Writer
	Opts    Options

	// cacheMu orders cache fills against writer invalidations.
	cacheMu sync.Mutex
	cache   *lru.Cache

	closeOnce sync.Once
	result    writer.Result
	closeErr  error
}

func Open(optFns ...Option) (*DB, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	backend, err := openBackend(opts)
	if err != nil {
		return nil, err
	}

	d := &DB{
		backend: backend,
		queue:   queue.New(opts.QueueCapacity),
		Opts:    opts,
	}
	if opts.CacheSize > 0 {
		d.cache, err = lru.New(opts.CacheSize)
		if err != nil {
			backend.Close()
			return nil, fmt.Errorf("failed to create read cache: %w", err)
		}
	}

	d.writer = writer.Start(d.queue, backend,
		writer.WithErrorSink(opts.Sink),
		writer.WithObserver(d.observe),
	)

	common.Logf("opened %s engine: queue=%d cache=%d\n", backendName(opts), opts.QueueCapacity, opts.CacheSize)
	return d, nil
}

func openBackend(opts Options) (engine.Backend, error) {
	if opts.Backend != nil {
		return opts.Backend, nil
	}

	eopts := engine.Options{
		Dir:    opts.Dir,
		NoSync: opts.NoSync,
		Limits: opts.Limits,
	}
	switch opts.Engine {
	case EngineMemory, "":
		return engine.OpenMemory(eopts)
	case EngineBadger:
		eopts.InMemory = opts.Dir == ""
		return engine.OpenBadger(eopts)
	default:
		return nil, fmt.Errorf("unknown engine %q", opts.Engine)
	}
}

func backendName(opts Options) string {
	if opts.Backend != nil {
		return fmt.Sprintf("%T", opts.Backend)
	}
	return string(opts.Engine)
}

// Get returns the current value of key. Writes still in the queue are not
// visible.
func (d *DB) Get(key []byte) ([]byte, error) {
	if d.cache == nil {
		return d.backend.Get(key)
	}

	d.cacheMu.Lock()
	defer d.cacheMu.Unlock()

	if v, ok := d.cache.Get(string(key)); ok {
		return bytes.Clone(v.([]byte)), nil
	}
	value, err := d.backend.Get(key)
	if err != nil {
		return nil, err
	}
	d.cache.Add(string(key), bytes.Clone(value))
	return value, nil
}

// Done is closed when the writer stops, either after Close or on a fatal
// engine error.
func (d *DB) Done() <-chan struct{} {
	return d.writer.Done()
}

// Shutdown stops admitting writes, waits for the writer to drain the queue
// and closes the backend. It is safe to call more than once.
func (d *DB) Shutdown() writer.Result {
	d.closeOnce.Do(func() {
		d.result = d.writer.Shutdown()
		if d.cache != nil {
			d.cache.Purge()
		}
		d.closeErr = d.backend.Close()

		if !d.result.Clean() {
			common.Errorf("db: %s", d.result)
		}
	})
	return d.result
}

// Close is Shutdown reduced to an error: the fatal engine error if the
// writer aborted, otherwise any error closing the backend.
func (d *DB) Close() error {
	result := d.Shutdown()
	if !result.Clean() {
		return fmt.Errorf("writer aborted with %d writes abandoned: %w", result.Abandoned, result.Fatal)
	}
	return d.closeErr
}

// Backend returns the storage engine under the DB.
func (d *DB) Backend() engine.Backend {
	return d.backend
}

// Stats aggregates queue, writer and cache counters.
type Stats struct {
	Queue    queue.Stats
	Writer   writer.Stats
	CacheLen int
}

func (d *DB) Stats() Stats {
	s := Stats{
		Queue:  d.queue.Stats(),
		Writer: d.writer.Stats(),
	}
	if d.cache != nil {
		s.CacheLen = d.cache.Len()
	}
	return s
}
