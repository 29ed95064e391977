// Package project holds the VideoProject aggregate and the helpers that keep
// copies of it independent from one another.
package project

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/creatorflow/internal/pipeline"
)

// DefaultTitle is used when a project is created without a title.
const DefaultTitle = "Untitled Video Idea"

// MaxTitleVariants is the number of A/B title slots the editor offers.
const MaxTitleVariants = 3

// VideoMetadata captures the publishing copy for a video.
type VideoMetadata struct {
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	ABTitles      []string `json:"abTitles"`
	ScriptContent string   `json:"scriptContent"`
}

// VideoProject is one video moving through the pipeline.
type VideoProject struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Stage       pipeline.Stage           `json:"stage"`
	DueDate     time.Time                `json:"dueDate"`
	UpdatedAt   time.Time                `json:"updatedAt"`
	PublishedAt *time.Time               `json:"publishedAt,omitempty"`
	Metadata    VideoMetadata            `json:"metadata"`
	Checklist   []pipeline.ChecklistItem `json:"checklist"`
}

// NewID returns a globally unique project identifier.
var NewID = uuid.NewString

// New creates a project in the idea stage, due now, with a fresh copy of
// the default checklist and empty metadata.
func New(title string, now time.Time) VideoProject {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	now = now.UTC()
	return VideoProject{
		ID:        NewID(),
		Title:     title,
		Stage:     pipeline.StageIdea,
		DueDate:   now,
		UpdatedAt: now,
		Metadata: VideoMetadata{
			Tags:     []string{},
			ABTitles: []string{},
		},
		Checklist: pipeline.DefaultChecklist(),
	}
}

// Clone returns a deep copy. Slices and the publishedAt pointer are never
// shared with the receiver.
func (p VideoProject) Clone() VideoProject {
	out := p
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		out.PublishedAt = &at
	}
	out.Metadata = p.Metadata.Clone()
	out.Checklist = CloneChecklist(p.Checklist)
	return out
}

// IsPublished reports whether the project sits in the published column.
func (p VideoProject) IsPublished() bool {
	return p.Stage == pipeline.StagePublished
}

// Progress returns the checklist completion percentage.
func (p VideoProject) Progress() int {
	return CompletionPercentage(p.Checklist)
}

// Clone returns a deep copy of the metadata.
func (m VideoMetadata) Clone() VideoMetadata {
	return VideoMetadata{
		Description:   m.Description,
		Tags:          cloneStrings(m.Tags),
		ABTitles:      cloneStrings(m.ABTitles),
		ScriptContent: m.ScriptContent,
	}
}

// CloneChecklist copies checklist items into a new slice.
func CloneChecklist(items []pipeline.ChecklistItem) []pipeline.ChecklistItem {
	out := make([]pipeline.ChecklistItem, len(items))
	copy(out, items)
	return out
}

// CloneAll deep-copies a project list.
func CloneAll(projects []VideoProject) []VideoProject {
	out := make([]VideoProject, len(projects))
	for i := range projects {
		out[i] = projects[i].Clone()
	}
	return out
}

// CompletionPercentage is round(100 * completed / total). An empty
// checklist is 0%.
func CompletionPercentage(items []pipeline.ChecklistItem) int {
	if len(items) == 0 {
		return 0
	}
	done := CompletedCount(items)
	return int(math.Round(100 * float64(done) / float64(len(items))))
}

// CompletedCount returns how many checklist items are ticked.
func CompletedCount(items []pipeline.ChecklistItem) int {
	done := 0
	for _, item := range items {
		if item.Completed {
			done++
		}
	}
	return done
}

// IndexOf returns the position of the project with id, or -1.
func IndexOf(projects []VideoProject, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
