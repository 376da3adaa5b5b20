package writer

import "finedb/internal/common"

type Options struct {
	Sink ErrorSink
	// Observer runs on the writer goroutine after each engine call, before
	// the message's blobs are released.
	Observer func(msg common.Message, err error)
	// StateObserver runs on every state transition.
	StateObserver func(State)
}

var DefaultOptions = Options{
	Sink: LogSink{},
}

type Option func(*Options)

func WithErrorSink(sink ErrorSink) Option {
	return func(o *Options) {
		o.Sink = sink
	}
}

func WithObserver(fn func(msg common.Message, err error)) Option {
	return func(o *Options) {
		o.Observer = fn
	}
}

func WithStateObserver(fn func(State)) Option {
	return func(o *Options) {
		o.StateObserver = fn
	}
}
