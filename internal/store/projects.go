package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
)

// StorageKey is the fixed key the board blob lives under.
const StorageKey = "creatorflow_projects"

// Logger receives storage diagnostics. *logbook.Logbook satisfies it.
type Logger interface {
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ProjectStore loads and saves the full project list as one blob. The
// in-memory list owned by the board is the source of truth; this is a mirror
// written after every accepted mutation.
type ProjectStore struct {
	blobs  BlobStore
	key    string
	logger Logger
	clock  func() time.Time
}

// Option customizes a ProjectStore.
type Option func(*ProjectStore)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *ProjectStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger injects a diagnostics logger.
func WithLogger(logger Logger) Option {
	return func(s *ProjectStore) {
		s.logger = logger
	}
}

// WithClock injects a deterministic clock used for seed data.
func WithClock(clock func() time.Time) Option {
	return func(s *ProjectStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewProjectStore wraps a blob store.
func NewProjectStore(blobs BlobStore, opts ...Option) *ProjectStore {
	s := &ProjectStore{
		blobs: blobs,
		key:   StorageKey,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load returns the persisted projects. The first call against an empty store
// writes and returns the seed board. Read or decode failures are logged and
// yield an empty list together with the error; a corrupt blob is copied to
// "<key>.corrupt" before anything can overwrite it.
func (s *ProjectStore) Load(ctx context.Context) ([]project.VideoProject, error) {
	data, err := s.blobs.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			seeds := SeedProjects(s.clock())
			if err := s.Save(ctx, seeds); err != nil {
				s.logError("Seed board could not be written: %v", err)
			}
			return seeds, nil
		}
		s.logError("Failed to load projects: %v", err)
		return []project.VideoProject{}, fmt.Errorf("store: load projects: %w", err)
	}

	var decoded []project.VideoProject
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.logError("Failed to decode projects: %v", err)
		if berr := s.blobs.Set(ctx, s.key+".corrupt", data); berr != nil {
			s.logError("Backup of corrupt board failed: %v", berr)
		}
		return []project.VideoProject{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s.sanitize(decoded), nil
}

// Save writes the whole list. Last write wins.
func (s *ProjectStore) Save(ctx context.Context, projects []project.VideoProject) error {
	if projects == nil {
		projects = []project.VideoProject{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("store: encode projects: %w", err)
	}
	if err := s.blobs.Set(ctx, s.key, data); err != nil {
		return err
	}
	return nil
}

// sanitize drops records that would break the one-project-per-column
// invariant: duplicate ids and blank ids get new identifiers or are skipped.
func (s *ProjectStore) sanitize(projects []project.VideoProject) []project.VideoProject {
	seen := make(map[string]struct{}, len(projects))
	out := make([]project.VideoProject, 0, len(projects))
	for _, p := range projects {
		if p.ID == "" {
			p.ID = project.NewID()
			s.logWarn("Project %q had no id; assigned %s", p.Title, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			s.logWarn("Skipping duplicate project id %s", p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		if p.Checklist == nil {
			p.Checklist = []pipeline.ChecklistItem{}
		}
		if p.Metadata.Tags == nil {
			p.Metadata.Tags = []string{}
		}
		if p.Metadata.ABTitles == nil {
			p.Metadata.ABTitles = []string{}
		}
		out = append(out, p)
	}
	return out
}

func (s *ProjectStore) logError(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Error(format, args...)
}

func (s *ProjectStore) logWarn(format string, args ...any) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(format, args...)
}

// SeedProjects returns the demo board shown on first launch.
func SeedProjects(now time.Time) []project.VideoProject {
	now = now.UTC()
	day := 24 * time.Hour
	publishedAt := now.Add(-2 * day)
	return []project.VideoProject{
		{
			ID:          "seed-1",
			Title:       "My First Weekly Vlog",
			Stage:       pipeline.StagePublished,
			DueDate:     now.Add(-7 * day),
			UpdatedAt:   now,
			PublishedAt: &publishedAt,
			Metadata: project.VideoMetadata{
				Description:   "A look into the week.",
				Tags:          []string{"vlog", "productivity"},
				ABTitles:      []string{"I quit my job", "My daily routine"},
				ScriptContent: "# Intro\n\nStart with a hook...",
			},
			Checklist: pipeline.DefaultChecklist(),
		},
		{
			ID:        "seed-2",
			Title:     "Review of the Gemini API",
			Stage:     pipeline.StageEditing,
			DueDate:   now.Add(2 * day),
			UpdatedAt: now,
			Metadata: project.VideoMetadata{
				Description:   "Deep dive into Google GenAI.",
				Tags:          []string{"coding", "ai"},
				ABTitles:      []string{"Gemini vs GPT-4", "Is Gemini Good?"},
				ScriptContent: "Testing the new vision capabilities.",
			},
			Checklist: pipeline.DefaultChecklist(),
		},
	}
}
