// Package debug writes categorised diagnostic lines to debug.log.
// Everything is a no-op until Enable or SetOutput is called.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const FileName = "debug.log"

var (
	mu   sync.Mutex
	out  io.Writer
	file *os.File // set when out is the log file, so Disable can close it
)

var counters = make(map[string]int)

// Path returns where Enable(dir) writes
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Enable starts logging to <dir>/debug.log, truncating any previous run
func Enable(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if out != nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(Path(dir), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	out, file = f, f
	writeLocked("debug", "=== Debug logging started ===")
	return nil
}

// SetOutput sends log lines to w instead of a file; nil turns logging off
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	out = w
}

func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return out != nil
}

// Disable stops logging and closes the log file
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
	out = nil
	clear(counters)
}

func closeLocked() {
	if file != nil {
		file.Close()
		file = nil
	}
}

// Log writes one line: "[15:04:05.000] category   message"
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	writeLocked(category, fmt.Sprintf(format, args...))
}

func writeLocked(category, msg string) {
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(out, "[%s] %-10s %s\n", ts, category, msg)
	if file != nil {
		file.Sync() // so the tail survives a crash
	}
}

// LogEvery logs only every n-th call with the same category and format.
// For per-message events on the forwarding path.
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	if out == nil {
		mu.Unlock()
		return
	}
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
