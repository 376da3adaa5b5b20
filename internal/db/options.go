package db

import (
	"time"

	"finedb/internal/engine"
	"finedb/internal/writer"
)

// EngineKind selects the storage backend Open creates.
type EngineKind string

const (
	EngineMemory EngineKind = "memory"
	EngineBadger EngineKind = "badger"
)

type Options struct {
	Engine EngineKind
	// Dir is the data root; empty keeps the memory engine volatile.
	Dir string
	// Backend, when set, is used instead of opening Engine. The DB takes
	// ownership and closes it.
	Backend engine.Backend
	// QueueCapacity bounds the write queue; 0 leaves it unbounded.
	QueueCapacity int
	// EnqueueTimeout bounds how long Put and Delete wait for queue space.
	// 0 waits until the caller's context ends.
	EnqueueTimeout time.Duration
	// CacheSize is the number of values kept in the read cache; 0 disables it.
	CacheSize int
	Sink      writer.ErrorSink
	Limits    engine.Limits
	NoSync    bool
}

var DefaultOptions = Options{
	Engine:        EngineMemory,
	QueueCapacity: 1024,
	CacheSize:     1024,
	Sink:          writer.LogSink{},
	Limits:        engine.DefaultLimits,
}

type Option func(*Options)

func WithEngine(kind EngineKind) Option {
	return func(o *Options) {
		o.Engine = kind
	}
}

func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

func WithBackend(b engine.Backend) Option {
	return func(o *Options) {
		o.Backend = b
	}
}

func WithQueueCapacity(n int) Option {
	return func(o *Options) {
		o.QueueCapacity = n
	}
}

func WithEnqueueTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.EnqueueTimeout = d
	}
}

func WithCacheSize(n int) Option {
	return func(o *Options) {
		o.CacheSize = n
	}
}

func WithErrorSink(sink writer.ErrorSink) Option {
	return func(o *Options) {
		o.Sink = sink
	}
}

func WithLimits(l engine.Limits) Option {
	return func(o *Options) {
		o.Limits = l
	}
}

func WithNoSync(noSync bool) Option {
	return func(o *Options) {
		o.NoSync = noSync
	}
}
