package db

import (
	"context"

	"finedb/internal/common"
)

// Put queues an insert-or-update of key. The bytes are copied, so the caller
// may reuse them immediately. A nil error means the write was admitted, not
// that it has been applied: engine failures are reported to the error sink.
func (d *DB) Put(ctx context.Context, key, value []byte) error {
	msg := common.MakePut(common.NewBlob(key), common.NewBlob(value))
	return d.enqueue(ctx, msg)
}

// Delete queues removal of key.
func (d *DB) Delete(ctx context.Context, key []byte) error {
	msg := common.MakeDelete(common.NewBlob(key))
	return d.enqueue(ctx, msg)
}

func (d *DB) enqueue(ctx context.Context, msg common.Message) error {
	if d.Opts.EnqueueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Opts.EnqueueTimeout)
		defer cancel()
	}

	if err := d.queue.Enqueue(ctx, msg); err != nil {
		// Not admitted: ownership never left the caller.
		msg.Release()
		return err
	}
	return nil
}

// observe keeps the read cache coherent. It runs on the writer goroutine
// after every engine call.
func (d *DB) observe(msg common.Message, _ error) {
	if d.cache == nil {
		return
	}
	d.cacheMu.Lock()
	d.cache.Remove(string(msg.Key().Bytes()))
	d.cacheMu.Unlock()
}
