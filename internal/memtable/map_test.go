package memtable_test

import (
	"fmt"
	"sync"
	"testing"

	"finedb/internal/memtable"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	mt := memtable.NewMapMemtable()

	key := []byte("alpha")
	value := []byte("value")
	mt.Put(1, key, value)

	// Mutate original slices to ensure the memtable stored clones.
	key[0] = 'A'
	value[0] = 'V'

	entry, ok := mt.Get([]byte("alpha"))
	require.True(t, ok)
	require.Equal(t, uint64(1), entry.Seq)
	require.Equal(t, []byte("value"), entry.Value)

	_, ok = mt.Get([]byte("Alpha"))
	require.False(t, ok)
}

func TestGetMissing(t *testing.T) {
	mt := memtable.NewMapMemtable()

	_, ok := mt.Get([]byte("missing"))
	require.False(t, ok)
}

func TestEmptyValueIsPresent(t *testing.T) {
	mt := memtable.NewMapMemtable()
	mt.Put(1, []byte("k"), nil)

	entry, ok := mt.Get([]byte("k"))
	require.True(t, ok)
	require.NotNil(t, entry.Value)
	require.Empty(t, entry.Value)
}

func TestBulkPutGetDelete(t *testing.T) {
	mt := memtable.NewMapMemtable()

	const total = 512
	for i := 0; i < total; i++ {
		mt.Put(uint64(i), []byte(fmt.Sprintf("k%04d", i)), []byte(fmt.Sprintf("v%04d", i)))
	}
	require.Equal(t, total, mt.Len())

	for i := 0; i < total; i += 2 {
		require.True(t, mt.Delete(uint64(total+i), []byte(fmt.Sprintf("k%04d", i))))
	}
	require.False(t, mt.Delete(2*total, []byte("k0000")))
	require.Equal(t, total/2, mt.Len())

	for i := 0; i < total; i++ {
		entry, ok := mt.Get([]byte(fmt.Sprintf("k%04d", i)))
		if i%2 == 0 {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.Equal(t, uint64(i), entry.Seq)
		require.Equal(t, []byte(fmt.Sprintf("v%04d", i)), entry.Value)
	}
}

func TestIteratorSortedSnapshot(t *testing.T) {
	mt := memtable.NewMapMemtable()
	mt.Put(1, []byte("c"), []byte("3"))
	mt.Put(2, []byte("a"), []byte("1"))
	mt.Put(3, []byte("b"), []byte("2"))

	iter := mt.Iterator()
	mt.Put(4, []byte("d"), []byte("4"))

	var keys []string
	for {
		entry, ok := iter.Next()
		if !ok {
			break
		}
		keys = append(keys, string(entry.Key))
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestConcurrentReadsDuringWrites(t *testing.T) {
	mt := memtable.NewMapMemtable()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			mt.Put(uint64(i), []byte(fmt.Sprintf("k%d", i%10)), []byte("v"))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				mt.Get([]byte(fmt.Sprintf("k%d", i%10)))
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, mt.Len())
}
