package db_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finedb/internal/common"
	"finedb/internal/db"
	"finedb/internal/engine"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	mu     sync.Mutex
	errors []*common.EngineError
	fatals []error
}

func (s *countingSink) ReportError(err *common.EngineError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func (s *countingSink) ReportFatal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fatals = append(s.fatals, err)
}

func (s *countingSink) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errors), len(s.fatals)
}

func requireEventuallyValue(t *testing.T, d *db.DB, key, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		v, err := d.Get([]byte(key))
		return err == nil && string(v) == want
	}, 2*time.Second, time.Millisecond, "key %q never became %q", key, want)
}

func TestPutDeleteOrderReachesEngine(t *testing.T) {
	rec := common.NewRecorder()
	d, err := db.Open(db.WithBackend(rec), db.WithErrorSink(&countingSink{}))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, d.Put(ctx, []byte("b"), []byte("2")))
	require.NoError(t, d.Delete(ctx, []byte("a")))
	require.NoError(t, d.Put(ctx, []byte("a"), []byte("3")))

	result := d.Shutdown()
	require.True(t, result.Clean())
	require.NoError(t, d.Close())

	require.Equal(t, []common.Call{
		{Action: common.ActionPut, Key: "a", Value: "1"},
		{Action: common.ActionPut, Key: "b", Value: "2"},
		{Action: common.ActionDelete, Key: "a"},
		{Action: common.ActionPut, Key: "a", Value: "3"},
	}, rec.Calls())
	require.Equal(t, map[string]string{"a": "3", "b": "2"}, rec.Data())
}

func TestCallerMayReuseBuffers(t *testing.T) {
	rec := common.NewRecorder()
	rec.Hold()
	d, err := db.Open(db.WithBackend(rec))
	require.NoError(t, err)

	buf := []byte("key1")
	require.NoError(t, d.Put(context.Background(), buf, buf))
	copy(buf, "XXXX")

	rec.Resume()
	require.NoError(t, d.Close())
	require.Equal(t, map[string]string{"key1": "key1"}, rec.Data())
}

func TestRecoverableErrorReportedOnce(t *testing.T) {
	rec := common.NewRecorder()
	rec.FailOn("poison", common.ErrValueTooLarge)
	sink := &countingSink{}

	d, err := db.Open(db.WithBackend(rec), db.WithErrorSink(sink))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, []byte("poison"), []byte("x")))
	require.NoError(t, d.Put(ctx, []byte("fine"), []byte("y")))
	require.NoError(t, d.Close())

	nerr, nfatal := sink.counts()
	require.Equal(t, 1, nerr)
	require.Equal(t, 0, nfatal)
	require.Equal(t, map[string]string{"fine": "y"}, rec.Data())
}

func TestFatalErrorStopsDB(t *testing.T) {
	rec := common.NewRecorder()
	rec.FailOn("corrupt", common.Fatal(errors.New("checksum mismatch")))
	sink := &countingSink{}

	d, err := db.Open(db.WithBackend(rec), db.WithErrorSink(sink))
	require.NoError(t, err)

	require.NoError(t, d.Put(context.Background(), []byte("corrupt"), []byte("x")))

	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("writer did not stop after fatal error")
	}

	err = d.Put(context.Background(), []byte("after"), []byte("y"))
	require.ErrorIs(t, err, common.ErrQueueClosed)

	result := d.Shutdown()
	require.False(t, result.Clean())
	require.Error(t, d.Close())
	require.True(t, common.IsFatal(d.Close()))

	_, nfatal := sink.counts()
	require.Equal(t, 1, nfatal)
}

func TestPutAfterCloseRejected(t *testing.T) {
	d, err := db.Open()
	require.NoError(t, err)
	require.NoError(t, d.Close())

	require.ErrorIs(t, d.Put(context.Background(), []byte("k"), []byte("v")), common.ErrQueueClosed)
	require.ErrorIs(t, d.Delete(context.Background(), []byte("k")), common.ErrQueueClosed)
}

func TestEnqueueTimeout(t *testing.T) {
	rec := common.NewRecorder()
	rec.Hold()

	d, err := db.Open(
		db.WithBackend(rec),
		db.WithQueueCapacity(1),
		db.WithEnqueueTimeout(20*time.Millisecond),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, []byte("a"), []byte("1")))
	require.Eventually(t, func() bool { return d.Stats().Queue.Depth == 0 }, time.Second, time.Millisecond)
	require.NoError(t, d.Put(ctx, []byte("b"), []byte("2")))

	err = d.Put(ctx, []byte("c"), []byte("3"))
	require.ErrorIs(t, err, common.ErrEnqueueTimeout)

	rec.Resume()
	require.NoError(t, d.Close())

	require.Equal(t, map[string]string{"a": "1", "b": "2"}, rec.Data())
	require.Equal(t, uint64(1), d.Stats().Queue.Rejected)
}

func TestReadCacheStaysCoherent(t *testing.T) {
	d, err := db.Open(db.WithCacheSize(16))
	require.NoError(t, err)
	defer d.Close()

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, []byte("k"), []byte("v1")))
	requireEventuallyValue(t, d, "k", "v1")

	// Served from cache now; a later write must invalidate it.
	require.NoError(t, d.Put(ctx, []byte("k"), []byte("v2")))
	requireEventuallyValue(t, d, "k", "v2")

	require.NoError(t, d.Delete(ctx, []byte("k")))
	require.Eventually(t, func() bool {
		_, err := d.Get([]byte("k"))
		return errors.Is(err, db.ErrNotFound)
	}, 2*time.Second, time.Millisecond)
}

func TestMemoryEngineReopen(t *testing.T) {
	dir := t.TempDir()

	d, err := db.Open(db.WithDir(dir), db.WithNoSync(true))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, d.Put(ctx, []byte("b"), []byte("2")))
	require.NoError(t, d.Delete(ctx, []byte("a")))
	require.NoError(t, d.Put(ctx, []byte("a"), []byte("3")))
	require.NoError(t, d.Close())

	d, err = db.Open(db.WithDir(dir))
	require.NoError(t, err)
	defer d.Close()

	for key, want := range map[string]string{"a": "3", "b": "2"} {
		v, err := d.Get([]byte(key))
		require.NoError(t, err)
		require.Equal(t, []byte(want), v)
	}
}

func TestBadgerEngineReopen(t *testing.T) {
	dir := t.TempDir()

	d, err := db.Open(db.WithEngine(db.EngineBadger), db.WithDir(dir))
	require.NoError(t, err)
	require.NoError(t, d.Put(context.Background(), []byte("durable"), []byte("yes")))
	require.NoError(t, d.Close())

	d, err = db.Open(db.WithEngine(db.EngineBadger), db.WithDir(dir))
	require.NoError(t, err)
	defer d.Close()

	v, err := d.Get([]byte("durable"))
	require.NoError(t, err)
	require.Equal(t, []byte("yes"), v)
	_, ok := d.Backend().(*engine.Badger)
	require.True(t, ok)
}

func TestBadgerOversizeKeyKeepsWriterRunning(t *testing.T) {
	sink := &countingSink{}
	d, err := db.Open(db.WithEngine(db.EngineBadger), db.WithErrorSink(sink))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, d.Put(ctx, bytes.Repeat([]byte("k"), 65100), []byte("v")))
	require.NoError(t, d.Put(ctx, []byte("after"), []byte("ok")))

	result := d.Shutdown()
	require.True(t, result.Clean())
	require.Equal(t, uint64(1), result.Applied)
	require.Equal(t, uint64(1), result.Failed)
	require.NoError(t, d.Close())

	nerr, nfatal := sink.counts()
	require.Equal(t, 1, nerr)
	require.Equal(t, 0, nfatal)
	require.ErrorIs(t, sink.errors[0], common.ErrKeyTooLarge)
}

func TestUnknownEngine(t *testing.T) {
	_, err := db.Open(db.WithEngine("rocks"))
	require.Error(t, err)
}
