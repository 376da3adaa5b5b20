package memtable

import (
	"bytes"
	"sort"
	"sync"
)

// MapMemtable is the baseline Go map-backed implementation.
type MapMemtable struct {
	mu    sync.RWMutex
	items map[string]Entry
}

// NewMapMemtable returns the default map-backed memtable.
func NewMapMemtable() *MapMemtable {
	return &MapMemtable{
		items: make(map[string]Entry),
	}
}

// Put records or overwrites a key/value pair. Both slices are cloned.
func (m *MapMemtable) Put(seq uint64, key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[string(key)] = Entry{
		Key:   bytes.Clone(key),
		Value: cloneValue(value),
		Seq:   seq,
	}
}

func (m *MapMemtable) Delete(seq uint64, key []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.items[string(key)]
	delete(m.items, string(key))
	return ok
}

// Get returns a copy of the entry for key, if any.
func (m *MapMemtable) Get(key []byte) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.items[string(key)]
	if !ok {
		return Entry{}, false
	}
	entry.Value = cloneValue(entry.Value)
	return entry, true
}

func (m *MapMemtable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Iterator returns a stable snapshot iterator over the current entries.
func (m *MapMemtable) Iterator() Iterator {
	m.mu.RLock()
	entries := make([]Entry, 0, len(m.items))
	for _, e := range m.items {
		entries = append(entries, Entry{Key: bytes.Clone(e.Key), Value: cloneValue(e.Value), Seq: e.Seq})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key, entries[j].Key) < 0
	})
	return &sliceIterator{entries: entries}
}

type sliceIterator struct {
	entries []Entry
	index   int
}

func (it *sliceIterator) Next() (Entry, bool) {
	if it.index >= len(it.entries) {
		return Entry{}, false
	}
	entry := it.entries[it.index]
	it.index++
	return entry, true
}

// cloneValue keeps empty values non-nil so a stored empty value is
// distinguishable from a missing one.
func cloneValue(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	return out
}
