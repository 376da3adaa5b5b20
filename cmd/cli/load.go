package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"finedb/internal/common"
	"finedb/internal/db"
)

// loadReport is what one load run did to the write queue.
type loadReport struct {
	Admitted  uint64
	TimedOut  uint64
	Enqueued  uint64
	Blocked   uint64
	BlockedIn time.Duration
	MaxDepth  uint64
	Err       error
}

// runLoad has producers write concurrently, each doing perProducer
// mutations. Every fifth mutation deletes the key written just before it.
// Producers stop at the first error other than an enqueue timeout.
func runLoad(ctx context.Context, d *db.DB, producers, perProducer int) loadReport {
	before := d.Stats().Queue

	var admitted, timedOut atomic.Uint64
	var g errgroup.Group
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for i := 0; i < perProducer; i++ {
				var err error
				if i%5 == 4 {
					err = d.Delete(ctx, loadKey(p, i-1))
				} else {
					err = d.Put(ctx, loadKey(p, i), []byte(strconv.Itoa(i)))
				}

				switch {
				case err == nil:
					admitted.Add(1)
				case errors.Is(err, common.ErrEnqueueTimeout):
					timedOut.Add(1)
				default:
					return fmt.Errorf("producer %d: %w", p, err)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	after := d.Stats().Queue
	return loadReport{
		Admitted:  admitted.Load(),
		TimedOut:  timedOut.Load(),
		Enqueued:  after.Enqueued - before.Enqueued,
		Blocked:   after.Blocked - before.Blocked,
		BlockedIn: after.BlockedTime - before.BlockedTime,
		MaxDepth:  after.MaxDepth,
		Err:       err,
	}
}

func loadKey(producer, i int) []byte {
	return []byte(fmt.Sprintf("load/%d/%d", producer, i))
}

func printLoadReport(start time.Time, r loadReport) {
	common.LogDuration(start, "load: admitted %d, timed out %d", r.Admitted, r.TimedOut)
	fmt.Printf("queue:   enqueued=%d blocked=%d (%s) max_depth=%d\n", r.Enqueued, r.Blocked, r.BlockedIn, r.MaxDepth)
	if r.Err != nil {
		fmt.Printf("load stopped: %v\n", r.Err)
	}
}
