// Package editor holds the detail-panel working copy of a project. Edits stay
// local until Commit hands a finished project back to the board.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
)

// DueDateLayout is the date format accepted by SetDueDateText.
const DueDateLayout = "2006-01-02"

var (
	// ErrVariantLimit is returned when adding a fourth title variant.
	ErrVariantLimit = fmt.Errorf("editor: at most %d title variants", project.MaxTitleVariants)
	// ErrVariantIndex is returned for a variant index outside the list.
	ErrVariantIndex = errors.New("editor: no such title variant")
)

// WorkingCopy is a private clone of one project. Nothing it holds aliases
// the board's list.
type WorkingCopy struct {
	draft       project.VideoProject
	dirty       bool
	suggestions []string
}

// Open clones p into a new working copy.
func Open(p project.VideoProject) *WorkingCopy {
	return &WorkingCopy{draft: p.Clone()}
}

// ID returns the project id being edited.
func (w *WorkingCopy) ID() string {
	return w.draft.ID
}

// Project returns a copy of the current draft.
func (w *WorkingCopy) Project() project.VideoProject {
	return w.draft.Clone()
}

// Dirty reports whether the draft has uncommitted changes.
func (w *WorkingCopy) Dirty() bool {
	return w.dirty
}

// SetTitle replaces the draft title. A blank title is kept until Commit,
// which substitutes the default.
func (w *WorkingCopy) SetTitle(title string) {
	if w.draft.Title == title {
		return
	}
	w.draft.Title = title
	w.dirty = true
}

// SetDescription replaces the draft description.
func (w *WorkingCopy) SetDescription(text string) {
	if w.draft.Metadata.Description == text {
		return
	}
	w.draft.Metadata.Description = text
	w.dirty = true
}

// SetScript replaces the draft script.
func (w *WorkingCopy) SetScript(text string) {
	if w.draft.Metadata.ScriptContent == text {
		return
	}
	w.draft.Metadata.ScriptContent = text
	w.dirty = true
}

// SetTags parses comma-separated input. Empty entries and repeats are
// dropped; order of first appearance is kept.
func (w *WorkingCopy) SetTags(raw string) {
	tags := ParseTags(raw)
	if equalStrings(tags, w.draft.Metadata.Tags) {
		return
	}
	w.draft.Metadata.Tags = tags
	w.dirty = true
}

// TagsText renders tags the way SetTags reads them.
func (w *WorkingCopy) TagsText() string {
	return strings.Join(w.draft.Metadata.Tags, ", ")
}

// SetDueDate replaces the due date.
func (w *WorkingCopy) SetDueDate(due time.Time) {
	due = due.UTC()
	if w.draft.DueDate.Equal(due) {
		return
	}
	w.draft.DueDate = due
	w.dirty = true
}

// SetDueDateText parses a YYYY-MM-DD date, keeping the previous due date on
// error.
func (w *WorkingCopy) SetDueDateText(text string) error {
	due, err := time.Parse(DueDateLayout, strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("editor: due date %q: want YYYY-MM-DD", text)
	}
	w.SetDueDate(due)
	return nil
}

// DueDateText renders the due date for the input field.
func (w *WorkingCopy) DueDateText() string {
	if w.draft.DueDate.IsZero() {
		return ""
	}
	return w.draft.DueDate.Format(DueDateLayout)
}

// SetStage records an explicit stage choice. The board applies the
// transition policy when the draft is committed.
func (w *WorkingCopy) SetStage(stage pipeline.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("editor: invalid stage %s", stage)
	}
	if w.draft.Stage == stage {
		return nil
	}
	w.draft.Stage = stage
	w.dirty = true
	return nil
}

// AddTitleVariant appends an empty A/B title slot.
func (w *WorkingCopy) AddTitleVariant() error {
	if len(w.draft.Metadata.ABTitles) >= project.MaxTitleVariants {
		return ErrVariantLimit
	}
	w.draft.Metadata.ABTitles = append(w.draft.Metadata.ABTitles, "")
	w.dirty = true
	return nil
}

// SetTitleVariant edits the variant at index i.
func (w *WorkingCopy) SetTitleVariant(i int, text string) error {
	if i < 0 || i >= len(w.draft.Metadata.ABTitles) {
		return ErrVariantIndex
	}
	if w.draft.Metadata.ABTitles[i] == text {
		return nil
	}
	w.draft.Metadata.ABTitles[i] = text
	w.dirty = true
	return nil
}

// RemoveTitleVariant deletes the variant at index i.
func (w *WorkingCopy) RemoveTitleVariant(i int) error {
	titles := w.draft.Metadata.ABTitles
	if i < 0 || i >= len(titles) {
		return ErrVariantIndex
	}
	next := make([]string, 0, len(titles)-1)
	next = append(next, titles[:i]...)
	w.draft.Metadata.ABTitles = append(next, titles[i+1:]...)
	w.dirty = true
	return nil
}

// UseSuggestion appends a generated title to the variants. Suggestions are
// not subject to the manual-add limit.
func (w *WorkingCopy) UseSuggestion(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	w.draft.Metadata.ABTitles = append(w.draft.Metadata.ABTitles, text)
	w.dirty = true
	return true
}

// SetSuggestions stores the latest generated titles for display.
func (w *WorkingCopy) SetSuggestions(titles []string) {
	w.suggestions = append([]string(nil), titles...)
}

// Suggestions returns the generated titles awaiting a pick.
func (w *WorkingCopy) Suggestions() []string {
	return append([]string(nil), w.suggestions...)
}

// ToggleChecklist flips the item with id. Stage and updatedAt are left
// alone. It reports whether an item matched.
func (w *WorkingCopy) ToggleChecklist(id string) bool {
	for i := range w.draft.Checklist {
		if w.draft.Checklist[i].ID == id {
			w.draft.Checklist[i].Completed = !w.draft.Checklist[i].Completed
			w.dirty = true
			return true
		}
	}
	return false
}

// Progress is the draft's checklist completion percentage.
func (w *WorkingCopy) Progress() int {
	return project.CompletionPercentage(w.draft.Checklist)
}

// Commit stamps updatedAt and returns the project to hand to the board.
func (w *WorkingCopy) Commit(now time.Time) project.VideoProject {
	w.draft.UpdatedAt = now.UTC()
	if strings.TrimSpace(w.draft.Title) == "" {
		w.draft.Title = project.DefaultTitle
	}
	w.dirty = false
	return w.draft.Clone()
}

// ParseTags splits comma-separated input into trimmed, unique tags.
func ParseTags(raw string) []string {
	seen := map[string]struct{}{}
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
