package writer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"finedb/internal/common"
	"finedb/internal/engine"
	"finedb/internal/queue"
)

// Result is what Join reports once the writer has stopped.
type Result struct {
	Applied   uint64
	Failed    uint64
	Abandoned uint64
	// Fatal is the engine error that stopped the writer, nil after a clean drain.
	Fatal error
}

// Clean reports whether the writer drained the queue without a fatal error.
func (r Result) Clean() bool {
	return r.Fatal == nil
}

func (r Result) String() string {
	if r.Clean() {
		return fmt.Sprintf("clean shutdown: applied=%d failed=%d", r.Applied, r.Failed)
	}
	return fmt.Sprintf("fatal shutdown: applied=%d failed=%d abandoned=%d: %v", r.Applied, r.Failed, r.Abandoned, r.Fatal)
}

// Writer is the single goroutine allowed to mutate the storage engine. It
// applies queued messages strictly in queue order.
type Writer struct {
	queue  *queue.Queue
	engine engine.Engine
	opts   Options

	state   atomic.Int32
	applied atomic.Uint64
	failed  atomic.Uint64

	done   chan struct{}
	result Result
}

// Start launches the writer goroutine consuming q and applying to e.
func Start(q *queue.Queue, e engine.Engine, optFns ...Option) *Writer {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Sink == nil {
		opts.Sink = LogSink{}
	}

	w := &Writer{
		queue:  q,
		engine: e,
		opts:   opts,
		done:   make(chan struct{}),
	}
	w.state.Store(int32(Starting))

	go w.loop()

	return w
}

func (w *Writer) loop() {
	defer close(w.done)

	start := time.Now()
	ctx := context.Background()
	w.transition(Running)

	for {
		msg, err := w.queue.Dequeue(ctx)
		// Checked after Dequeue so a message taken after Close is applied
		// while Draining.
		if w.State() == Running && w.queue.Closed() {
			w.transition(Draining)
		}
		if errors.Is(err, common.ErrQueueDrained) {
			w.finish(nil, 0)
			common.LogDuration(start, "writer stopped: %s", w.result)
			return
		}
		if err != nil {
			// Dequeue only fails on drain or context errors and ours never ends.
			w.abort(fmt.Errorf("writer: dequeue: %w", err))
			return
		}

		if err := w.apply(msg); err != nil {
			w.abort(err)
			return
		}
	}
}

// apply hands msg to the engine and releases it. Only fatal errors are
// returned; recoverable ones go to the sink.
func (w *Writer) apply(msg common.Message) error {
	defer msg.Release()

	var err error
	switch m := msg.(type) {
	case *common.Put:
		err = w.engine.Put(m.Key().Bytes(), m.Value().Bytes())
	case *common.Delete:
		err = w.engine.Delete(m.Key().Bytes())
	default:
		err = fmt.Errorf("unsupported message %T", msg)
	}

	if w.opts.Observer != nil {
		w.opts.Observer(msg, err)
	}

	switch {
	case err == nil:
		w.applied.Add(1)
		return nil
	case common.IsFatal(err):
		return err
	default:
		w.failed.Add(1)
		w.opts.Sink.ReportError(&common.EngineError{
			Action: msg.Action(),
			Key:    bytes.Clone(msg.Key().Bytes()),
			Err:    err,
		})
		return nil
	}
}

// abort stops the writer after a fatal error. The queue is closed so that
// producers are turned away, and whatever it still holds is released without
// being applied.
func (w *Writer) abort(fatal error) {
	abandoned := w.queue.Discard()
	for _, msg := range abandoned {
		msg.Release()
	}

	w.finish(fatal, uint64(len(abandoned)))
	w.opts.Sink.ReportFatal(fatal)
}

func (w *Writer) finish(fatal error, abandoned uint64) {
	w.result = Result{
		Applied:   w.applied.Load(),
		Failed:    w.failed.Load(),
		Abandoned: abandoned,
		Fatal:     fatal,
	}
	w.transition(Stopped)
}

func (w *Writer) transition(s State) {
	w.state.Store(int32(s))
	if w.opts.StateObserver != nil {
		w.opts.StateObserver(s)
	}
}

// State returns the current lifecycle state.
func (w *Writer) State() State {
	return State(w.state.Load())
}

// Done is closed once the writer reaches Stopped.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// Join blocks until the writer has stopped and returns how it ended.
func (w *Writer) Join() Result {
	<-w.done
	return w.result
}

// Shutdown closes the queue and waits for the writer to drain it.
func (w *Writer) Shutdown() Result {
	w.queue.Close()
	return w.Join()
}

// Stats is a live view of writer progress.
type Stats struct {
	State   State
	Applied uint64
	Failed  uint64
}

func (w *Writer) Stats() Stats {
	return Stats{
		State:   w.State(),
		Applied: w.applied.Load(),
		Failed:  w.failed.Load(),
	}
}
