// internal/pipeline/stage.go
//
// The fixed production pipeline every video moves through.
// Stage order drives column order on the board and is the only notion of
// "progress" a stage carries.

package pipeline

import (
	"fmt"
	"strings"
)

// Stage represents one step of the video production pipeline.
type Stage int

const (
	StageUnknown Stage = iota
	StageIdea
	StageScripting
	StageFilming
	StageEditing
	StageThumbnail
	StageReady
	StagePublished
)

var stageOrder = []Stage{
	StageIdea,
	StageScripting,
	StageFilming,
	StageEditing,
	StageThumbnail,
	StageReady,
	StagePublished,
}

// StagesInOrder returns the pipeline in display order. The slice is a fresh
// copy so callers may reorder or truncate it freely.
func StagesInOrder() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Tag returns the persisted identifier for the stage (e.g. "IDEA").
func (s Stage) Tag() string {
	switch s {
	case StageIdea:
		return "IDEA"
	case StageScripting:
		return "SCRIPTING"
	case StageFilming:
		return "FILMING"
	case StageEditing:
		return "EDITING"
	case StageThumbnail:
		return "THUMBNAIL"
	case StageReady:
		return "READY"
	case StagePublished:
		return "PUBLISHED"
	default:
		return "UNKNOWN"
	}
}

// String implements fmt.Stringer using the persisted tag.
func (s Stage) String() string {
	return s.Tag()
}

// Label returns the human readable column heading.
func (s Stage) Label() string {
	switch s {
	case StageIdea:
		return "Idea Backlog"
	case StageScripting:
		return "Scripting"
	case StageFilming:
		return "Filming"
	case StageEditing:
		return "Editing"
	case StageThumbnail:
		return "Thumbnail"
	case StageReady:
		return "Ready to Publish"
	case StagePublished:
		return "Published"
	default:
		return "Unknown"
	}
}

// Label is the function form of Stage.Label.
func Label(s Stage) string {
	return s.Label()
}

// Valid reports whether s is one of the seven pipeline stages.
func (s Stage) Valid() bool {
	return s >= StageIdea && s <= StagePublished
}

// Index returns the zero-based column position of the stage, or -1.
func (s Stage) Index() int {
	if !s.Valid() {
		return -1
	}
	return int(s - StageIdea)
}

// Next returns the following stage, saturating at StagePublished.
func (s Stage) Next() Stage {
	if !s.Valid() {
		return StageUnknown
	}
	if s >= StagePublished {
		return StagePublished
	}
	return s + 1
}

// Prev returns the preceding stage, saturating at StageIdea.
func (s Stage) Prev() Stage {
	if !s.Valid() {
		return StageUnknown
	}
	if s <= StageIdea {
		return StageIdea
	}
	return s - 1
}

// ParseStage resolves a persisted tag. Matching ignores case and
// surrounding whitespace.
func ParseStage(value string) (Stage, error) {
	tag := strings.ToUpper(strings.TrimSpace(value))
	for _, s := range stageOrder {
		if s.Tag() == tag {
			return s, nil
		}
	}
	return StageUnknown, fmt.Errorf("pipeline: unknown stage %q", value)
}

// MarshalText encodes the stage as its tag so JSON and YAML carry "IDEA"
// rather than an integer.
func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("pipeline: cannot encode invalid stage %d", int(s))
	}
	return []byte(s.Tag()), nil
}

// UnmarshalText decodes a stage tag.
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStage(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
