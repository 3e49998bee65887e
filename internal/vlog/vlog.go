// Package vlog is a level-gated trace sink in the spirit of the teacher's
// TraceOpen/TraceLevel/Trace trio: level 1 always echoes to stderr, higher
// levels are written only to an optionally opened trace file, gated by a
// configured verbosity ceiling. No third-party structured-logging library
// is reached for here; none of the pack's example repos import one, so a
// small stdlib-backed sink stays in the teacher's idiom (see DESIGN.md).
package vlog

import (
	"fmt"
	"os"
	"sync"
)

var (
	mu       sync.Mutex
	fp       *os.File
	level    int = 2
	fileName string
)

// SetLevel sets the trace verbosity ceiling; calls above this level are
// dropped from the trace file (stderr echoing at level 1 is unaffected).
func SetLevel(l int) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Open directs every level up to the ceiling (level 1 included) to the named
// file, truncating it.
func Open(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if fp != nil && fp != os.Stderr {
		fp.Close()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fp = nil
		return err
	}
	fp = f
	fileName = path
	return nil
}

// Close releases the trace file, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if fp != nil {
		fp.Close()
	}
	fp = nil
	fileName = ""
}

// Trace writes format/args at the given level: level 1 always goes to
// stderr; any level <= the configured ceiling additionally goes to the
// open trace file (if any).
func Trace(level_ int, format string, args ...interface{}) {
	if level_ <= 1 {
		fmt.Fprintf(os.Stderr, format, args...)
	}
	mu.Lock()
	f := fp
	ceiling := level
	mu.Unlock()
	if f == nil || level_ > ceiling {
		return
	}
	fmt.Fprintf(f, "%d ", level_)
	fmt.Fprintf(f, format, args...)
}

// Errorf is sugar for Trace(1, ...) with a trailing newline guaranteed.
func Errorf(format string, args ...interface{}) {
	Trace(1, format+"\n", args...)
}

// Infof is sugar for Trace(3, ...) with a trailing newline guaranteed.
func Infof(format string, args ...interface{}) {
	Trace(3, format+"\n", args...)
}

// Debugf is sugar for Trace(4, ...) with a trailing newline guaranteed.
func Debugf(format string, args ...interface{}) {
	Trace(4, format+"\n", args...)
}
