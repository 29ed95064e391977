package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
)

func sample() project.VideoProject {
	p := project.New("Draft", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Metadata.Tags = []string{"one"}
	return p
}

func TestOpenDoesNotAlias(t *testing.T) {
	src := sample()
	w := Open(src)
	w.ToggleChecklist("1")
	w.SetTags("a, b")
	if src.Checklist[0].Completed || src.Metadata.Tags[0] != "one" {
		t.Fatalf("working copy leaked into source: %+v", src)
	}
	got := w.Project()
	got.Checklist[1].Completed = true
	if w.Project().Checklist[1].Completed {
		t.Fatalf("Project() must return a copy")
	}
}

func TestToggleLeavesStageAndTimestamp(t *testing.T) {
	src := sample()
	w := Open(src)
	if !w.ToggleChecklist("3") {
		t.Fatalf("expected toggle to match item 3")
	}
	if w.ToggleChecklist("nope") {
		t.Fatalf("unknown id should not match")
	}
	p := w.Project()
	if !p.Checklist[2].Completed || p.Stage != src.Stage || !p.UpdatedAt.Equal(src.UpdatedAt) {
		t.Fatalf("toggle touched more than the item: %+v", p)
	}
	if w.Progress() != 20 {
		t.Fatalf("progress = %d, want 20", w.Progress())
	}
	w.ToggleChecklist("3")
	if w.Progress() != 0 {
		t.Fatalf("second toggle should untick")
	}
}

func TestSetTagsTrimsAndDedupes(t *testing.T) {
	w := Open(sample())
	w.SetTags(" go ,, tui,go , ai ")
	if got := w.Project().Metadata.Tags; len(got) != 3 || got[0] != "go" || got[1] != "tui" || got[2] != "ai" {
		t.Fatalf("tags = %v", got)
	}
	if w.TagsText() != "go, tui, ai" {
		t.Fatalf("tags text = %q", w.TagsText())
	}
	w.SetTags("")
	if got := w.Project().Metadata.Tags; got == nil || len(got) != 0 {
		t.Fatalf("empty input should give empty non-nil tags, got %v", got)
	}
}

func TestTitleVariantLimit(t *testing.T) {
	w := Open(sample())
	for i := 0; i < project.MaxTitleVariants; i++ {
		if err := w.AddTitleVariant(); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := w.AddTitleVariant(); !errors.Is(err, ErrVariantLimit) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if err := w.SetTitleVariant(1, "B side"); err != nil {
		t.Fatalf("set variant: %v", err)
	}
	if err := w.SetTitleVariant(5, "x"); !errors.Is(err, ErrVariantIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
	if !w.UseSuggestion("Generated hook") {
		t.Fatalf("suggestion should be appended")
	}
	titles := w.Project().Metadata.ABTitles
	if len(titles) != 4 || titles[1] != "B side" || titles[3] != "Generated hook" {
		t.Fatalf("titles = %v", titles)
	}
	if err := w.RemoveTitleVariant(0); err != nil || len(w.Project().Metadata.ABTitles) != 3 {
		t.Fatalf("remove variant failed: %v", err)
	}
}

func TestDirtyAndCommit(t *testing.T) {
	w := Open(sample())
	if w.Dirty() {
		t.Fatalf("fresh copy should be clean")
	}
	w.SetTitle("Draft")
	if w.Dirty() {
		t.Fatalf("setting the same title should stay clean")
	}
	w.SetTitle("   ")
	if err := w.SetDueDateText("2026-04-01"); err != nil {
		t.Fatalf("due date: %v", err)
	}
	if err := w.SetDueDateText("next week"); err == nil {
		t.Fatalf("expected parse error")
	}
	if err := w.SetStage(pipeline.StageFilming); err != nil {
		t.Fatalf("set stage: %v", err)
	}
	if err := w.SetStage(pipeline.StageUnknown); err == nil {
		t.Fatalf("expected invalid stage error")
	}
	now := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	out := w.Commit(now)
	if w.Dirty() {
		t.Fatalf("commit should clear dirty")
	}
	if !out.UpdatedAt.Equal(now) || out.Title != project.DefaultTitle || out.Stage != pipeline.StageFilming {
		t.Fatalf("unexpected commit: %+v", out)
	}
	if w.DueDateText() != "2026-04-01" {
		t.Fatalf("due = %s", w.DueDateText())
	}
}

func TestSessionOwnership(t *testing.T) {
	var s Session
	if s.Owns(0) {
		t.Fatalf("zero token must never be owned")
	}
	a := sample()
	_, first := s.Open(a)
	if !s.Owns(first) {
		t.Fatalf("fresh token should be owned")
	}
	_, second := s.Open(sample())
	if s.Owns(first) || !s.Owns(second) {
		t.Fatalf("opening another project must invalidate the old token")
	}
	s.Close()
	if s.Owns(second) {
		t.Fatalf("closing must invalidate the token")
	}
	if _, _, ok := s.Active(); ok {
		t.Fatalf("no editor should be active after close")
	}
	_, third := s.Open(a)
	if third == first || third == second {
		t.Fatalf("tokens must not be reused")
	}
}
