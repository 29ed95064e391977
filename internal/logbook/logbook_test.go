package logbook

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLines(t *testing.T) {
	dir := t.TempDir()
	book, err := Open(dir)
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	defer book.Close()
	if book.Path() != filepath.Join(dir, FileName) {
		t.Fatalf("unexpected path %s", book.Path())
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines := book.Tail(3)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestLevelsAndTimestamp(t *testing.T) {
	stamp := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	book, err := New(filepath.Join(t.TempDir(), "nested", "app.log"),
		WithClock(func() time.Time { return stamp }))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	defer book.Close()
	book.Warn("disk %s", "slow")
	book.Error("save failed")
	book.Printf("via printf\n")
	lines := book.Tail(10)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "2026-02-03T04:05:06Z WARN  disk slow" {
		t.Fatalf("unexpected warn line %q", lines[0])
	}
	if !strings.Contains(lines[1], "ERROR save failed") {
		t.Fatalf("unexpected error line %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "INFO  via printf") {
		t.Fatalf("unexpected printf line %q", lines[2])
	}

	data, err := os.ReadFile(book.Path())
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Fatalf("file has %d lines, want 3", got)
	}
}

func TestTailSpansSessions(t *testing.T) {
	dir := t.TempDir()
	first, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	first.Info("from yesterday")
	first.Close()

	second, err := Open(dir, WithRecent(2))
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	second.Info("today one")
	second.Info("today two")
	lines := second.Tail(5)
	if len(lines) != 2 || !strings.HasSuffix(lines[1], "today two") {
		t.Fatalf("recent window not applied: %q", lines)
	}

	third, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer third.Close()
	if lines := third.Tail(5); len(lines) != 3 || !strings.HasSuffix(lines[0], "from yesterday") {
		t.Fatalf("earlier entries not preloaded: %q", lines)
	}
}

func TestWriteFailureIsReportedAndRemembered(t *testing.T) {
	book, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	book.file.Close()

	if err := book.Append(LevelError, "lost on disk"); err == nil {
		t.Fatalf("expected write error")
	}
	book.Info("second")
	if book.Err() == nil {
		t.Fatalf("Err should keep the first failure")
	}
	lines := book.Tail(5)
	if len(lines) != 2 || !strings.Contains(lines[0], "lost on disk") {
		t.Fatalf("entries should stay visible in Tail: %q", lines)
	}
}

func TestAppendAfterClose(t *testing.T) {
	book, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := book.Close(); err != nil {
		t.Fatal(err)
	}
	if err := book.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := book.Append(LevelInfo, "late"); !errors.Is(err, errClosed) {
		t.Fatalf("Append after Close = %v, want errClosed", err)
	}
}

func TestMemoryLogbook(t *testing.T) {
	book := Memory()
	if err := book.Append(LevelWarn, "kept"); err != nil {
		t.Fatalf("memory append: %v", err)
	}
	if book.Path() != "" || len(book.Tail(1)) != 1 {
		t.Fatalf("memory logbook should only remember")
	}
}

func TestNilLogbookIsNoop(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if book.Tail(5) != nil || book.Path() != "" || book.Err() != nil || book.Close() != nil {
		t.Fatalf("nil logbook should be inert")
	}
}
