package main

import (
	"context"
	"fmt"

	"finedb/internal/common"
	"finedb/internal/db"
	"finedb/internal/engine"
	"finedb/internal/wal"
)

func dumpMemtable(d *db.DB) {
	mem, ok := d.Backend().(*engine.Memory)
	if !ok {
		fmt.Printf("dump: only the memory engine can be dumped (have %T)\n", d.Backend())
		return
	}

	fmt.Println("Dumping Memtable")
	fmt.Println()

	fmt.Printf("%-20s %10s  %s\n", "KEY", "SEQ", "VALUE")
	fmt.Println()

	iter := mem.Memtable().Iterator()
	count := 0
	for {
		entry, ok := iter.Next()
		if !ok {
			break
		}
		count++
		fmt.Printf("%-20s %10d  %s\n", truncate(string(entry.Key), 20), entry.Seq, string(entry.Value))
	}

	fmt.Println()
	fmt.Printf("Total entries: %d\n", count)
}

func dumpWAL(iter wal.Iterator) (puts, deletes int, err error) {
	fmt.Printf("%-6s %-20s %10s  %s\n", "OP", "KEY", "SEQ", "VALUE")
	fmt.Println()

	for {
		entry, ok, err := iter.Next()
		if err != nil {
			return puts, deletes, err
		}
		if !ok {
			return puts, deletes, nil
		}

		key := truncate(string(entry.Key), 20)
		if entry.Action == common.ActionPut {
			puts++
			fmt.Printf("%-6s %-20s %10d  %s\n", "PUT", key, entry.Seq, string(entry.Value))
		} else {
			deletes++
			fmt.Printf("%-6s %-20s %10d\n", "DEL", key, entry.Seq)
		}
	}
}

func openWALIterator(path string) (*wal.FileWAL, wal.Iterator, error) {
	w, err := wal.OpenWAL(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open WAL: %w", err)
	}
	iter, err := w.Iterator(context.Background())
	if err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("failed to create iterator: %w", err)
	}
	return w, iter, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
