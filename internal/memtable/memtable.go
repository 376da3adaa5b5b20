package memtable

// Entry is one live key in the memtable.
type Entry struct {
	Key   []byte
	Value []byte
	// Seq is the mutation sequence number that last wrote the key.
	Seq uint64
}

// Memtable is the in-memory key space behind the memory engine. Writes come
// from a single goroutine; reads may run concurrently.
type Memtable interface {
	Put(seq uint64, key, value []byte)
	// Delete removes key and reports whether it was present.
	Delete(seq uint64, key []byte) bool
	Get(key []byte) (Entry, bool)
	Len() int
	// Iterator returns a sorted snapshot of the live entries.
	Iterator() Iterator
}

// Iterator walks a snapshot. Next returns false when exhausted.
type Iterator interface {
	Next() (Entry, bool)
}
