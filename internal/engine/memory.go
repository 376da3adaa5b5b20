package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"finedb/internal/common"
	"finedb/internal/memtable"
	"finedb/internal/wal"
)

// Memory keeps the whole key space in a memtable and, when given a
// directory, journals every applied mutation so it survives a restart.
type Memory struct {
	mt     *memtable.MapMemtable
	log    *wal.FileWAL
	limits Limits
	seq    uint64
}

// OpenMemory opens a memory engine, replaying the journal under opts.Dir if
// one exists.
func OpenMemory(opts Options) (*Memory, error) {
	m := &Memory{
		mt:     memtable.NewMapMemtable(),
		limits: opts.Limits,
	}
	if opts.Dir == "" {
		return m, nil
	}

	if err := os.MkdirAll(common.WALDir(opts.Dir), 0755); err != nil {
		return nil, err
	}
	log, err := wal.OpenWAL(common.WALPath(opts.Dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open WAL: %w", err)
	}
	log.SetSync(!opts.NoSync)
	log.SetMaxEntrySize(opts.Limits.MaxKeySize, opts.Limits.MaxValueSize)

	start := time.Now()
	n, err := m.replay(log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to replay WAL: %w", err)
	}
	m.log = log
	common.LogDuration(start, "replayed %d journal entries, seq=%d", n, m.seq)

	return m, nil
}

func (m *Memory) replay(log wal.WAL) (int, error) {
	return log.Recover(context.Background(), func(entry wal.Entry) error {
		if entry.Seq > m.seq {
			m.seq = entry.Seq
		}
		switch entry.Action {
		case common.ActionPut:
			m.mt.Put(entry.Seq, entry.Key, entry.Value)
		case common.ActionDelete:
			m.mt.Delete(entry.Seq, entry.Key)
		default:
			return fmt.Errorf("unknown action %d at seq %d", entry.Action, entry.Seq)
		}
		return nil
	})
}

func (m *Memory) Put(key, value []byte) error {
	if err := m.limits.CheckPut(key, value); err != nil {
		return err
	}
	m.seq++
	if err := m.journal(common.ActionPut, key, value); err != nil {
		return err
	}
	m.mt.Put(m.seq, key, value)
	return nil
}

func (m *Memory) Delete(key []byte) error {
	if err := m.limits.CheckKey(key); err != nil {
		return err
	}
	if _, ok := m.mt.Get(key); !ok {
		if m.limits.StrictDelete {
			return common.ErrKeyNotFound
		}
		return nil
	}
	m.seq++
	if err := m.journal(common.ActionDelete, key, nil); err != nil {
		return err
	}
	m.mt.Delete(m.seq, key)
	return nil
}

// journal makes a mutation durable before it becomes visible. A journal that
// cannot be written leaves memory and disk diverged, so the failure is fatal.
func (m *Memory) journal(action common.Action, key, value []byte) error {
	if m.log == nil {
		return nil
	}
	err := m.log.Append(context.Background(), []wal.Entry{{
		Action: action,
		Seq:    m.seq,
		Key:    key,
		Value:  value,
	}})
	if err != nil {
		return common.Fatal(fmt.Errorf("journal seq %d: %w", m.seq, err))
	}
	return nil
}

func (m *Memory) Get(key []byte) ([]byte, error) {
	entry, ok := m.mt.Get(key)
	if !ok {
		return nil, common.ErrKeyNotFound
	}
	return entry.Value, nil
}

// Memtable exposes the live key space for inspection.
func (m *Memory) Memtable() memtable.Memtable {
	return m.mt
}

func (m *Memory) Close() error {
	if m.log == nil {
		return nil
	}
	return m.log.Close()
}
