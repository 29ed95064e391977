package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/creatorflow/internal/config"
	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
)

type captureLogger struct {
	warns  []string
	errors []string
}

func (l *captureLogger) Warn(format string, args ...any) {
	l.warns = append(l.warns, format)
}

func (l *captureLogger) Error(format string, args ...any) {
	l.errors = append(l.errors, format)
}

func TestFileBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	blobs, err := NewFileBlobStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := blobs.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := blobs.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := blobs.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := blobs.Get(ctx, "k")
	if err != nil || string(got) != "two" {
		t.Fatalf("get = %q, %v", got, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(blobs.Path("k")))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
	if err := blobs.Set(ctx, "../escape", []byte("x")); err == nil {
		t.Fatalf("expected path-like key to be rejected")
	}
}

func TestSQLiteBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "board.db")
	blobs, err := NewSQLiteBlobStore(path)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer blobs.Close()
	if _, err := blobs.Get(ctx, StorageKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := blobs.Set(ctx, StorageKey, []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := blobs.Set(ctx, StorageKey, []byte(`[2]`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := blobs.Get(ctx, StorageKey)
	if err != nil || string(got) != `[2]` {
		t.Fatalf("get = %q, %v", got, err)
	}
}

func TestLoadSeedsEmptyStoreOnce(t *testing.T) {
	ctx := context.Background()
	blobs, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	ps := NewProjectStore(blobs, WithClock(func() time.Time { return now }))
	projects, err := ps.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(projects) != 2 || projects[0].ID != "seed-1" || projects[1].ID != "seed-2" {
		t.Fatalf("unexpected seeds: %+v", projects)
	}
	if projects[0].PublishedAt == nil || !projects[0].PublishedAt.Equal(now.Add(-48*time.Hour)) {
		t.Fatalf("published seed should carry publishedAt two days back")
	}
	if projects[1].PublishedAt != nil {
		t.Fatalf("editing seed must not be published")
	}
	if _, err := blobs.Get(ctx, StorageKey); err != nil {
		t.Fatalf("seeds should be written back: %v", err)
	}

	projects[1].Title = "Changed"
	if err := ps.Save(ctx, projects); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := ps.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again[1].Title != "Changed" {
		t.Fatalf("second load should read stored data, got %q", again[1].Title)
	}
}

func TestLoadCorruptFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	blobs, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := blobs.Set(ctx, StorageKey, []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}
	logger := &captureLogger{}
	ps := NewProjectStore(blobs, WithLogger(logger))
	projects, err := ps.Load(ctx)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Fatalf("expected empty non-nil list, got %+v", projects)
	}
	if len(logger.errors) == 0 {
		t.Fatalf("expected decode failure to be logged")
	}
	backup, err := blobs.Get(ctx, StorageKey+".corrupt")
	if err != nil || string(backup) != `{not json` {
		t.Fatalf("corrupt blob not preserved: %q, %v", backup, err)
	}
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	blobs, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ps := NewProjectStore(blobs, WithKey("dupes"))
	a := project.New("a", time.Now())
	b := a.Clone()
	b.Title = "b"
	c := project.New("c", time.Now())
	c.ID = ""
	if err := ps.Save(ctx, []project.VideoProject{a, b, c}); err != nil {
		t.Fatal(err)
	}
	loaded, err := ps.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected duplicate dropped, got %d projects", len(loaded))
	}
	if loaded[0].Title != "a" || loaded[1].ID == "" {
		t.Fatalf("unexpected sanitize result: %+v", loaded)
	}
	if loaded[1].Stage != pipeline.StageIdea {
		t.Fatalf("stage lost in round trip: %s", loaded[1].Stage)
	}
}

func TestOpenBlobStoreFollowsConfig(t *testing.T) {
	t.Setenv("CREATORFLOW_STORAGE_DRIVER", "sqlite")
	dir := t.TempDir()
	cfg, err := config.NewConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	blobs, err := OpenBlobStore(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer blobs.Close()
	if _, ok := blobs.(*SQLiteBlobStore); !ok {
		t.Fatalf("expected sqlite backend, got %T", blobs)
	}
	if !strings.HasPrefix(Describe(cfg), "sqlite:") {
		t.Fatalf("unexpected description %s", Describe(cfg))
	}
}
