package common

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LoggingEnabled controls whether Logf produces output.
var LoggingEnabled = true

var (
	logMu  sync.Mutex
	logOut io.Writer = os.Stdout
)

// SetLogOutput redirects all log output. Passing nil restores stdout.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	logOut = w
}

// Logf prints a formatted message if logging is enabled.
func Logf(format string, args ...interface{}) {
	if !LoggingEnabled {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(logOut, format, args...)
}

// Warnf logs a line prefixed with [WARN].
func Warnf(format string, args ...interface{}) {
	Logf("[WARN]  "+format+"\n", args...)
}

// Errorf logs a line prefixed with [ERROR]. Errors are printed even when
// LoggingEnabled is false.
func Errorf(format string, args ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	fmt.Fprintf(logOut, "[ERROR] "+format+"\n", args...)
}

// formatDuration formats a duration with 2 decimal places.
// Returns a string like "1.23 ms" (no padding).
func formatDuration(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)

	if ms >= 1000 {
		sec := ms / 1000
		return fmt.Sprintf("%.2f s", sec)
	} else if ms < 0.01 {
		us := ms * 1000
		return fmt.Sprintf("%.2f us", us)
	}
	return fmt.Sprintf("%.2f ms", ms)
}

// LogDuration prints a message with the elapsed time since start.
// The duration is formatted with tight parens and right-padded to align messages.
func LogDuration(start time.Time, format string, args ...interface{}) {
	elapsed := time.Since(start)
	msg := fmt.Sprintf(format, args...)
	durStr := fmt.Sprintf("(%s)", formatDuration(elapsed))
	Logf("%-10s%s\n", durStr, msg)
}
