// Package logbook records board activity in a levelled text file and keeps
// the most recent entries in memory for the TUI log panel.
package logbook

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const (
	// FileName is the log file created inside the logs directory.
	FileName = "creatorflow.log"

	defaultRecent = 200
)

var errClosed = errors.New("logbook: closed")

// Logbook appends entries to a file and remembers the latest ones. A nil
// *Logbook discards everything; a logbook without a file (see Memory) only
// remembers.
type Logbook struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
	clock  func() time.Time
	recent []string
	keep   int
	// failure is the first write error; later entries still reach recent.
	failure error
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithClock stamps entries with clock instead of time.Now.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithRecent sets how many entries Tail can return.
func WithRecent(n int) Option {
	return func(l *Logbook) {
		if n > 0 {
			l.keep = n
		}
	}
}

// New opens path for appending, creating its directory. The last entries
// of an existing file are preloaded so Tail spans sessions.
func New(path string, opts ...Option) (*Logbook, error) {
	l := newLogbook(opts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure log dir: %w", err)
	}
	if err := l.preload(path); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logbook: open %s: %w", path, err)
	}
	l.path = path
	l.file = file
	return l, nil
}

// Open creates the logbook for a logs directory.
func Open(logsDir string, opts ...Option) (*Logbook, error) {
	return New(filepath.Join(logsDir, FileName), opts...)
}

// Memory returns a logbook that keeps entries for Tail but writes nowhere.
func Memory(opts ...Option) *Logbook {
	return newLogbook(opts)
}

func newLogbook(opts []Option) *Logbook {
	l := &Logbook{clock: time.Now, keep: defaultRecent}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *Logbook) preload(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logbook: read %s: %w", path, err)
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		l.remember(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("logbook: read %s: %w", path, err)
	}
	return nil
}

// Path returns the file backing this logbook, or "" for memory logbooks.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append records a single entry. The entry is always kept for Tail; the
// returned error reports a failed file write.
func (l *Logbook) Append(level Level, message string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s",
		l.clock().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	l.remember(line)
	if l.file == nil {
		if l.closed {
			return errClosed
		}
		return nil
	}
	if _, err := l.file.WriteString(line + "\n"); err != nil {
		err = fmt.Errorf("logbook: write %s: %w", l.path, err)
		if l.failure == nil {
			l.failure = err
		}
		return err
	}
	return nil
}

func (l *Logbook) remember(line string) {
	l.recent = append(l.recent, line)
	if over := len(l.recent) - l.keep; over > 0 {
		l.recent = append(l.recent[:0], l.recent[over:]...)
	}
}

// Err returns the first write failure, if any.
func (l *Logbook) Err() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failure
}

// Tail returns up to maxLines of the most recent entries, oldest first.
func (l *Logbook) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.recent) == 0 {
		return nil
	}
	start := max(0, len(l.recent)-maxLines)
	return append([]string(nil), l.recent[start:]...)
}

// Close releases the file. Entries appended afterwards are only remembered.
func (l *Logbook) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.closed = true
	return err
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	_ = l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	_ = l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	_ = l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Printf logs at info level so the logbook satisfies small Logger
// interfaces elsewhere in the module.
func (l *Logbook) Printf(format string, args ...any) {
	l.Info(format, args...)
}
