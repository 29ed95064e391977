package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/creatorflow/internal/notify"
	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
	"github.com/kingrea/creatorflow/internal/store"
)

var (
	// ErrUnknownProject is returned when an operation names a project that is
	// not on the board.
	ErrUnknownProject = errors.New("board: unknown project")
	// ErrInvalidStage is returned when an update carries a stage outside the
	// pipeline.
	ErrInvalidStage = errors.New("board: invalid stage")
	// ErrReadOnly is reported while saving is suspended because the stored
	// board could not be read.
	ErrReadOnly = errors.New("board: saved projects could not be read; saving is paused")
)

// ProjectStore persists the full project list.
type ProjectStore interface {
	Load(ctx context.Context) ([]project.VideoProject, error)
	Save(ctx context.Context, projects []project.VideoProject) error
}

// Logger receives board activity. *logbook.Logbook satisfies it.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Board holds the canonical project list. Every accepted mutation is
// mirrored to the store exactly once; rejected mutations touch nothing.
type Board struct {
	mu         sync.Mutex
	projects   []project.VideoProject
	store      ProjectStore
	publisher  notify.Publisher
	logger     Logger
	reconciler *Reconciler
	clock      func() time.Time
	// unreadable holds the last load error that left stored data unread.
	unreadable error
}

// Option customizes a Board.
type Option func(*Board)

// WithPublisher routes transition side effects and save failures.
func WithPublisher(p notify.Publisher) Option {
	return func(b *Board) {
		b.publisher = p
	}
}

// WithLogger injects the activity logger.
func WithLogger(l Logger) Option {
	return func(b *Board) {
		b.logger = l
	}
}

// WithClock injects a deterministic clock for creation and transitions.
func WithClock(clock func() time.Time) Option {
	return func(b *Board) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// New builds an empty board over store. Call Load to populate it.
func New(store ProjectStore, opts ...Option) (*Board, error) {
	if store == nil {
		return nil, fmt.Errorf("board: project store is required")
	}
	b := &Board{
		projects: []project.VideoProject{},
		store:    store,
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.reconciler = NewReconciler(WithReconcilerClock(b.clock))
	return b, nil
}

// Load replaces the in-memory list with the stored one. On failure the board
// keeps whatever the store returned (an empty list for unreadable data), an
// error toast is published, and the error is returned for the caller to
// report. A read failure other than corrupt data suspends saving until a
// later Load succeeds, so the empty board never overwrites stored projects.
func (b *Board) Load(ctx context.Context) error {
	projects, err := b.store.Load(ctx)
	if projects == nil {
		projects = []project.VideoProject{}
	}
	cols := BuildColumns(projects)
	if dropped := len(projects) - cols.Len(); dropped > 0 {
		b.logWarn("Ignoring %d project(s) with an unknown stage", dropped)
	}

	unreadable := err != nil && !errors.Is(err, store.ErrCorrupt)
	b.mu.Lock()
	b.projects = cols.Flatten()
	count := len(b.projects)
	b.unreadable = nil
	if unreadable {
		b.unreadable = err
	}
	b.mu.Unlock()

	if unreadable {
		b.logError("Board load failed, saving paused: %v", err)
		b.publish(notify.Toast(notify.LevelError, "Could not read saved projects. Changes will not be saved.", "", b.clock()))
		return err
	}
	if err != nil {
		b.logError("Board load failed: %v", err)
		b.publish(notify.Toast(notify.LevelError, "Could not load saved projects. Starting empty.", "", b.clock()))
		return err
	}
	b.logInfo("Loaded %d project(s)", count)
	return nil
}

// ReadOnly reports ErrReadOnly, wrapping the load failure, while saving is
// suspended. It returns nil once the board has loaded.
func (b *Board) ReadOnly() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unreadable == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrReadOnly, b.unreadable)
}

// Projects returns a deep copy of the flat list in board order.
func (b *Board) Projects() []project.VideoProject {
	b.mu.Lock()
	defer b.mu.Unlock()
	return project.CloneAll(b.projects)
}

// Columns returns a deep copy of the board partitioned by stage.
func (b *Board) Columns() Columns {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BuildColumns(b.projects)
}

// Get returns a copy of the project with id.
func (b *Board) Get(id string) (project.VideoProject, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := project.IndexOf(b.projects, id)
	if idx < 0 {
		return project.VideoProject{}, false
	}
	return b.projects[idx].Clone(), true
}

// Create adds a new idea at the end of the idea column.
func (b *Board) Create(ctx context.Context, title string) project.VideoProject {
	p := project.New(title, b.clock())

	b.mu.Lock()
	b.projects = b.reconciler.Insert(b.projects, p)
	snapshot := project.CloneAll(b.projects)
	b.mu.Unlock()

	b.logInfo("Created %q (%s)", p.Title, p.ID)
	b.persist(ctx, snapshot)
	return p.Clone()
}

// Move relocates a project to (stage, index). No-op and malformed moves
// return an unchanged outcome and are not persisted.
func (b *Board) Move(ctx context.Context, id string, stage pipeline.Stage, index int) Outcome {
	return b.apply(ctx, MoveRequest{ProjectID: id, ToStage: stage, ToIndex: index})
}

// Reorder moves a project within its current column.
func (b *Board) Reorder(ctx context.Context, id string, index int) Outcome {
	b.mu.Lock()
	idx := project.IndexOf(b.projects, id)
	stage := pipeline.StageUnknown
	if idx >= 0 {
		stage = b.projects[idx].Stage
	}
	b.mu.Unlock()
	if idx < 0 {
		return Outcome{Projects: b.Projects()}
	}
	return b.apply(ctx, MoveRequest{ProjectID: id, ToStage: stage, ToIndex: index})
}

// MoveToEnd moves a project to the bottom of stage's column.
func (b *Board) MoveToEnd(ctx context.Context, id string, stage pipeline.Stage) Outcome {
	b.mu.Lock()
	cols := BuildColumns(b.projects)
	b.mu.Unlock()

	pos, ok := cols.Locate(id)
	index := len(cols[stage])
	if ok && pos.Stage == stage {
		index = len(cols[stage]) - 1
	}
	return b.apply(ctx, MoveRequest{ProjectID: id, ToStage: stage, ToIndex: index})
}

func (b *Board) apply(ctx context.Context, req MoveRequest) Outcome {
	b.mu.Lock()
	outcome := b.reconciler.Move(b.projects, req)
	if !outcome.Changed {
		b.mu.Unlock()
		return Outcome{Projects: b.Projects()}
	}
	b.projects = outcome.Projects
	snapshot := project.CloneAll(b.projects)
	b.mu.Unlock()

	if outcome.From.Stage == outcome.To.Stage {
		b.logInfo("Reordered %q in %s: %d -> %d", outcome.Project.Title, outcome.To.Stage.Label(), outcome.From.Index, outcome.To.Index)
	} else {
		b.logInfo("Moved %q: %s -> %s", outcome.Project.Title, outcome.From.Stage.Label(), outcome.To.Stage.Label())
	}
	b.persist(ctx, snapshot)
	for _, evt := range outcome.Events {
		b.publish(evt)
	}
	outcome.Projects = snapshot
	return outcome
}

// Update replaces the stored project with the same id. A changed stage is
// treated as a transition: the publish policy applies and the project moves
// to the end of its new column.
func (b *Board) Update(ctx context.Context, updated project.VideoProject) error {
	if !updated.Stage.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidStage, updated.Stage)
	}
	updated = updated.Clone()
	if strings.TrimSpace(updated.Title) == "" {
		updated.Title = project.DefaultTitle
	}

	b.mu.Lock()
	idx := project.IndexOf(b.projects, updated.ID)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProject, updated.ID)
	}
	current := b.projects[idx]
	var events []notify.Event
	if current.Stage != updated.Stage {
		to := updated.Stage
		updated.Stage = current.Stage
		updated.PublishedAt = clonePublished(current.PublishedAt)
		events = b.reconciler.Transition(&updated, to)
		rest := append(project.CloneAll(b.projects[:idx]), project.CloneAll(b.projects[idx+1:])...)
		b.projects = b.reconciler.Insert(rest, updated)
	} else {
		updated.PublishedAt = clonePublished(current.PublishedAt)
		b.projects[idx] = updated
	}
	snapshot := project.CloneAll(b.projects)
	b.mu.Unlock()

	b.logInfo("Saved %q", updated.Title)
	b.persist(ctx, snapshot)
	for _, evt := range events {
		b.publish(evt)
	}
	return nil
}

// Delete removes a project permanently.
func (b *Board) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	idx := project.IndexOf(b.projects, id)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}
	title := b.projects[idx].Title
	next := make([]project.VideoProject, 0, len(b.projects)-1)
	next = append(next, b.projects[:idx]...)
	next = append(next, b.projects[idx+1:]...)
	b.projects = next
	snapshot := project.CloneAll(b.projects)
	b.mu.Unlock()

	b.logInfo("Deleted %q (%s)", title, id)
	b.persist(ctx, snapshot)
	return nil
}

func (b *Board) persist(ctx context.Context, snapshot []project.VideoProject) {
	if err := b.ReadOnly(); err != nil {
		b.logError("Not saving: %v", err)
		b.publish(notify.Toast(notify.LevelError, "Saving is paused: saved projects could not be read.", "", b.clock()))
		return
	}
	if err := b.store.Save(ctx, snapshot); err != nil {
		b.logError("Saving board failed: %v", err)
		b.publish(notify.Toast(notify.LevelError, "Could not save your changes.", "", b.clock()))
	}
}

func (b *Board) publish(evt notify.Event) {
	if b.publisher == nil {
		return
	}
	b.publisher.Publish(evt)
}

func (b *Board) logInfo(format string, args ...any) {
	if b.logger == nil {
		return
	}
	b.logger.Info(format, args...)
}

func (b *Board) logWarn(format string, args ...any) {
	if b.logger == nil {
		return
	}
	b.logger.Warn(format, args...)
}

func (b *Board) logError(format string, args ...any) {
	if b.logger == nil {
		return
	}
	b.logger.Error(format, args...)
}

func clonePublished(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
