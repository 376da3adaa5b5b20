package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

func inspectFile(path string) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".log":
		inspectWAL(path)
	default:
		fmt.Printf("unknown file type: %s (expected .log)\n", ext)
	}
}

func inspectWAL(path string) {
	fmt.Printf("Inspecting WAL: %s\n", path)
	fmt.Println()

	w, iter, err := openWALIterator(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer w.Close()
	defer iter.Close()

	puts, deletes, err := dumpWAL(iter)
	fmt.Println()
	if err != nil {
		fmt.Printf("error reading entry: %v\n", err)
	}
	fmt.Printf("Total entries: %d (put=%d delete=%d)\n", puts+deletes, puts, deletes)
	fmt.Println()
}
