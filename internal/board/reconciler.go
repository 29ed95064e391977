package board

import (
	"time"

	"github.com/kingrea/creatorflow/internal/notify"
	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
)

// Columns holds one ordered column per stage.
type Columns map[pipeline.Stage][]project.VideoProject

// Position addresses a card on the board.
type Position struct {
	Stage pipeline.Stage
	Index int
}

// MoveRequest relocates a project to (ToStage, ToIndex). A request whose
// stage equals the project's current stage is a reorder.
type MoveRequest struct {
	ProjectID string
	ToStage   pipeline.Stage
	ToIndex   int
}

// Outcome is the result of a move. When Changed is false, Projects is the
// caller's input and nothing else is populated.
type Outcome struct {
	Projects []project.VideoProject
	Changed  bool
	Project  project.VideoProject
	From     Position
	To       Position
	Events   []notify.Event
}

// Reconciler keeps the per-stage columns and the flat project list
// consistent. It is pure: inputs are never mutated.
type Reconciler struct {
	clock func() time.Time
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcilerClock injects a deterministic clock (primarily for tests).
func WithReconcilerClock(clock func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewReconciler constructs a reconciler using wall-clock time.
func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// BuildColumns partitions projects by stage, preserving relative order and
// deep-copying every project. Projects with an invalid stage are left out.
func BuildColumns(projects []project.VideoProject) Columns {
	cols := make(Columns, len(pipeline.StagesInOrder()))
	for _, stage := range pipeline.StagesInOrder() {
		cols[stage] = []project.VideoProject{}
	}
	for i := range projects {
		stage := projects[i].Stage
		if !stage.Valid() {
			continue
		}
		cols[stage] = append(cols[stage], projects[i].Clone())
	}
	return cols
}

// Flatten concatenates columns in pipeline order.
func (c Columns) Flatten() []project.VideoProject {
	out := make([]project.VideoProject, 0, c.Len())
	for _, stage := range pipeline.StagesInOrder() {
		out = append(out, c[stage]...)
	}
	return out
}

// Len counts projects across all pipeline columns.
func (c Columns) Len() int {
	n := 0
	for _, stage := range pipeline.StagesInOrder() {
		n += len(c[stage])
	}
	return n
}

// Locate returns the column position of the project with id.
func (c Columns) Locate(id string) (Position, bool) {
	for _, stage := range pipeline.StagesInOrder() {
		for i := range c[stage] {
			if c[stage][i].ID == id {
				return Position{Stage: stage, Index: i}, true
			}
		}
	}
	return Position{}, false
}

// Move applies a reorder or a cross-stage move. Malformed requests (unknown
// id, invalid stage, index out of range) and moves onto the current position
// return an unchanged outcome.
func (r *Reconciler) Move(projects []project.VideoProject, req MoveRequest) Outcome {
	unchanged := Outcome{Projects: projects}
	if !req.ToStage.Valid() || req.ToIndex < 0 {
		return unchanged
	}
	cols, ok := partition(projects)
	if !ok {
		return unchanged
	}
	from, found := cols.Locate(req.ProjectID)
	if !found {
		return unchanged
	}

	if from.Stage == req.ToStage {
		column := cols[from.Stage]
		if req.ToIndex >= len(column) || req.ToIndex == from.Index {
			return unchanged
		}
		moved := column[from.Index]
		column = removeAt(column, from.Index)
		cols[from.Stage] = insertAt(column, req.ToIndex, moved)
		return Outcome{
			Projects: cols.Flatten(),
			Changed:  true,
			Project:  moved.Clone(),
			From:     from,
			To:       Position{Stage: req.ToStage, Index: req.ToIndex},
		}
	}

	dest := cols[req.ToStage]
	if req.ToIndex > len(dest) {
		return unchanged
	}
	moved := cols[from.Stage][from.Index]
	cols[from.Stage] = removeAt(cols[from.Stage], from.Index)
	events := r.transition(&moved, req.ToStage)
	cols[req.ToStage] = insertAt(dest, req.ToIndex, moved)
	return Outcome{
		Projects: cols.Flatten(),
		Changed:  true,
		Project:  moved.Clone(),
		From:     from,
		To:       Position{Stage: req.ToStage, Index: req.ToIndex},
		Events:   events,
	}
}

// Insert appends p to the end of its stage column (new projects land at the
// bottom of the idea backlog).
func (r *Reconciler) Insert(projects []project.VideoProject, p project.VideoProject) []project.VideoProject {
	cols := BuildColumns(projects)
	stage := p.Stage
	if !stage.Valid() {
		stage = pipeline.StageIdea
		p.Stage = stage
	}
	cols[stage] = append(cols[stage], p.Clone())
	return cols.Flatten()
}

// Transition stamps a stage change on p and applies the publish policy. It
// returns the side-effect events; p is modified in place.
func (r *Reconciler) Transition(p *project.VideoProject, to pipeline.Stage) []notify.Event {
	if p == nil || !to.Valid() || p.Stage == to {
		return nil
	}
	return r.transition(p, to)
}

func (r *Reconciler) transition(p *project.VideoProject, to pipeline.Stage) []notify.Event {
	now := r.clock().UTC()
	from := p.Stage
	p.Stage = to
	p.UpdatedAt = now

	switch to {
	case pipeline.StagePublished:
		if from == pipeline.StagePublished {
			return nil
		}
		at := now
		p.PublishedAt = &at
		return []notify.Event{
			notify.Celebration(p.ID, now),
			notify.Published(p.ID, p.Title, now),
		}
	case pipeline.StageIdea,
		pipeline.StageScripting,
		pipeline.StageFilming,
		pipeline.StageEditing,
		pipeline.StageThumbnail,
		pipeline.StageReady:
		if from == pipeline.StagePublished {
			p.PublishedAt = nil
		}
		return nil
	default:
		return nil
	}
}

// partition builds columns and reports whether they account for every
// project exactly once.
func partition(projects []project.VideoProject) (Columns, bool) {
	seen := make(map[string]struct{}, len(projects))
	for i := range projects {
		if _, dup := seen[projects[i].ID]; dup {
			return nil, false
		}
		seen[projects[i].ID] = struct{}{}
	}
	cols := BuildColumns(projects)
	return cols, cols.Len() == len(projects)
}

func removeAt(column []project.VideoProject, idx int) []project.VideoProject {
	out := make([]project.VideoProject, 0, len(column)-1)
	out = append(out, column[:idx]...)
	return append(out, column[idx+1:]...)
}

func insertAt(column []project.VideoProject, idx int, p project.VideoProject) []project.VideoProject {
	out := make([]project.VideoProject, 0, len(column)+1)
	out = append(out, column[:idx]...)
	out = append(out, p)
	return append(out, column[idx:]...)
}
