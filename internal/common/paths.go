package common

import "path/filepath"

// WALDir returns the directory holding the memory engine's journal.
func WALDir(root string) string {
	return filepath.Join(root, "wal")
}

// WALPath returns the journal file path under root.
func WALPath(root string) string {
	return filepath.Join(WALDir(root), "journal.log")
}

// BadgerDir returns the directory handed to the badger engine under root.
func BadgerDir(root string) string {
	return filepath.Join(root, "badger")
}
