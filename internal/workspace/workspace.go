// Package workspace assembles the runtime pieces that sit behind both the
// TUI and the CLI subcommands: configuration, the logbook, the selected
// storage backend, the board, the notification bus, and the assistant.
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/kingrea/creatorflow/internal/assistant"
	"github.com/kingrea/creatorflow/internal/board"
	"github.com/kingrea/creatorflow/internal/config"
	"github.com/kingrea/creatorflow/internal/logbook"
	"github.com/kingrea/creatorflow/internal/notify"
	"github.com/kingrea/creatorflow/internal/store"
)

// Workspace is an opened CreatorFlow home directory.
type Workspace struct {
	Config    *config.Config
	Log       *logbook.Logbook
	Blobs     store.BlobStore
	Board     *board.Board
	Bus       *notify.Bus
	Assistant *assistant.Assistant

	// LoadErr records a failed board load; the board is empty in that case.
	LoadErr error
	// LogErr records why the log file could not be opened. Log then keeps
	// entries in memory only.
	LogErr error

	clock func() time.Time
}

// Option customizes Open.
type Option func(*Workspace)

// WithAssistant replaces the config-derived assistant.
func WithAssistant(a *assistant.Assistant) Option {
	return func(ws *Workspace) {
		ws.Assistant = a
	}
}

// WithClock injects the clock used by the board and seed data.
func WithClock(clock func() time.Time) Option {
	return func(ws *Workspace) {
		if clock != nil {
			ws.clock = clock
		}
	}
}

// Open initializes home if needed, loads its configuration, and loads the
// board. A board that fails to load is not fatal: LoadErr is set and the
// board starts empty. Neither is an unwritable log file: LogErr is set and
// the log stays in memory.
func Open(ctx context.Context, home string, opts ...Option) (*Workspace, error) {
	ws := &Workspace{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(ws)
		}
	}

	if err := config.InitHomeDir(home); err != nil {
		return nil, err
	}
	cfg, err := config.NewConfig(home)
	if err != nil {
		return nil, err
	}
	ws.Config = cfg

	lb, err := logbook.Open(cfg.LogsDir(), logbook.WithClock(ws.clock))
	if err != nil {
		ws.LogErr = err
		lb = logbook.Memory(logbook.WithClock(ws.clock))
		lb.Warn("Log file unavailable, keeping this session's log in memory: %v", err)
	}
	ws.Log = lb

	blobs, err := store.OpenBlobStore(cfg)
	if err != nil {
		ws.Log.Error("Storage unavailable (%s): %v", store.Describe(cfg), err)
		ws.Log.Close()
		return nil, fmt.Errorf("workspace: %w", err)
	}
	ws.Blobs = blobs

	projects := store.NewProjectStore(blobs,
		store.WithLogger(ws.Log),
		store.WithClock(ws.clock),
	)
	ws.Bus = notify.NewBus(notify.WithLogger(ws.Log))
	b, err := board.New(projects,
		board.WithPublisher(ws.Bus),
		board.WithLogger(ws.Log),
		board.WithClock(ws.clock),
	)
	if err != nil {
		blobs.Close()
		ws.Log.Close()
		return nil, err
	}
	ws.Board = b
	if ws.Assistant == nil {
		ws.Assistant = assistant.FromConfig(cfg)
	}

	ws.Log.Info("Session opened · storage %s · assistant %s", store.Describe(cfg), availability(ws.Assistant))
	ws.LoadErr = b.Load(ctx)
	return ws, nil
}

// Now returns the workspace clock's current time.
func (ws *Workspace) Now() time.Time {
	return ws.clock()
}

// Close releases the storage backend and the log file.
func (ws *Workspace) Close() error {
	if ws == nil {
		return nil
	}
	var err error
	if ws.Blobs != nil {
		err = ws.Blobs.Close()
	}
	if lerr := ws.Log.Close(); err == nil {
		err = lerr
	}
	return err
}

func availability(a *assistant.Assistant) string {
	if a.Available() {
		return "ready"
	}
	return "offline"
}
