package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

const historyFile = ".finedb_history"

func historyPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, historyFile), nil
}

// loadHistory fills the prompt's history from disk. A missing file is fine.
func loadHistory(line *liner.State, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = line.ReadHistory(f)
	return err
}

func saveHistory(line *liner.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := line.WriteHistory(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// recentHistory returns the last n commands, oldest first. n <= 0 returns all.
func recentHistory(line *liner.State, n int) []string {
	var buf bytes.Buffer
	if _, err := line.WriteHistory(&buf); err != nil || buf.Len() == 0 {
		return nil
	}
	cmds := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if n > 0 && n < len(cmds) {
		cmds = cmds[len(cmds)-n:]
	}
	return cmds
}
