package board

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kingrea/creatorflow/internal/notify"
	"github.com/kingrea/creatorflow/internal/store"
)

// flakyBlobs fails the first failures reads with a transient error.
type flakyBlobs struct {
	store.BlobStore
	failures int
}

func (f *flakyBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("database is locked")
	}
	return f.BlobStore.Get(ctx, key)
}

func TestUnreadableStoreSuspendsSaving(t *testing.T) {
	ctx := context.Background()
	blobs, err := store.NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	direct := store.NewProjectStore(blobs, store.WithClock(fixedClock))
	seeded, err := direct.Load(ctx)
	if err != nil || len(seeded) != 2 {
		t.Fatalf("seed load = %d projects, %v", len(seeded), err)
	}

	rec := &notify.Recorder{}
	b, err := New(store.NewProjectStore(&flakyBlobs{BlobStore: blobs, failures: 1}),
		WithPublisher(rec), WithClock(fixedClock))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Load(ctx); err == nil {
		t.Fatalf("expected the read failure to be reported")
	}
	if err := b.ReadOnly(); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("ReadOnly = %v, want ErrReadOnly", err)
	}

	created := b.Create(ctx, "new idea")
	if _, ok := b.Get(created.ID); !ok {
		t.Fatalf("in-memory board should still accept the card")
	}
	stored, err := direct.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored) != 2 || stored[0].ID != "seed-1" || stored[1].ID != "seed-2" {
		t.Fatalf("stored board was overwritten: %+v", stored)
	}
	evts := rec.Events()
	if len(evts) != 2 || evts[1].Message != "Saving is paused: saved projects could not be read." {
		t.Fatalf("expected load and paused-save toasts, got %+v", evts)
	}

	if err := b.Load(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if err := b.ReadOnly(); err != nil {
		t.Fatalf("saving should resume after a good load: %v", err)
	}
	b.Create(ctx, "after recovery")
	stored, err = direct.Load(ctx)
	if err != nil || len(stored) != 3 {
		t.Fatalf("expected seeds plus the new card, got %d, %v", len(stored), err)
	}
}

func TestCorruptLoadKeepsSaving(t *testing.T) {
	fs := &fakeStore{loadErr: fmt.Errorf("%w: unexpected end of JSON input", store.ErrCorrupt)}
	b, err := New(fs, WithClock(fixedClock))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Load(context.Background()); err == nil {
		t.Fatalf("expected corrupt error")
	}
	if err := b.ReadOnly(); err != nil {
		t.Fatalf("corrupt data is backed up; saving should continue: %v", err)
	}
	b.Create(context.Background(), "fresh start")
	if fs.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", fs.saveCount())
	}
}
