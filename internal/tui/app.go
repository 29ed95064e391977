// internal/tui/app.go
//
// The CreatorFlow board, built on bubbletea's Elm architecture:
//
// 1. Model: the App struct (board cursor, open editor, toasts)
// 2. Update: key presses and async results become board operations
// 3. View: columns, the detail panel, toasts, and the log panel
//
// Every board mutation happens inside Update, so the board only ever has one
// writer while the TUI runs.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/creatorflow/internal/assistant"
	"github.com/kingrea/creatorflow/internal/board"
	"github.com/kingrea/creatorflow/internal/config"
	"github.com/kingrea/creatorflow/internal/editor"
	"github.com/kingrea/creatorflow/internal/logbook"
	"github.com/kingrea/creatorflow/internal/notify"
	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
	"github.com/kingrea/creatorflow/internal/workspace"
)

// appState represents which screen is showing.
type appState int

const (
	stateBoard         appState = iota // Kanban columns
	stateDetail                        // Project editor
	stateNewCard                       // Title prompt for a new idea
	stateConfirmDelete                 // y/N prompt from the board
	stateCalendar                      // Placeholder view
)

const logPanelLines = 6

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithClock overrides the time source used for commits and stats.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// App is the main application model.
type App struct {
	state     appState
	config    *config.Config
	board     *board.Board
	assistant *assistant.Assistant
	logbook   *logbook.Logbook
	events    notify.Subscription

	session editor.Session
	detail  *detailView

	keys     boardKeys
	help     help.Model
	newTitle textinput.Model

	toasts         toastStack
	toastDuration  time.Duration
	celebrating    bool
	celebrationSeq int

	column        int
	cursor        map[pipeline.Stage]int
	pendingDelete string
	showLog       bool
	statusMsg     string

	width  int
	height int
	clock  func() time.Time
}

// NewApp creates the board UI over an opened workspace.
func NewApp(ws *workspace.Workspace, opts ...AppOption) (*App, error) {
	if ws == nil || ws.Board == nil {
		return nil, fmt.Errorf("tui: workspace is not open")
	}
	in := textinput.New()
	in.Placeholder = project.DefaultTitle
	in.CharLimit = 200

	app := &App{
		state:         stateBoard,
		config:        ws.Config,
		board:         ws.Board,
		assistant:     ws.Assistant,
		logbook:       ws.Log,
		events:        ws.Bus.Subscribe(),
		keys:          newBoardKeys(),
		help:          help.New(),
		newTitle:      in,
		toastDuration: ws.Config.File.UI.ToastDuration,
		cursor:        map[pipeline.Stage]int{},
		showLog:       ws.Config.ShowLog(),
		clock:         ws.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.assistant == nil {
		app.assistant = assistant.New(nil)
	}
	switch {
	case ws.Board.ReadOnly() != nil:
		app.statusMsg = "Saved board could not be read; changes will not be saved (see log)"
	case ws.LoadErr != nil:
		app.statusMsg = "Saved board could not be read; starting empty (see log)"
	case ws.LogErr != nil:
		app.statusMsg = "Log file unavailable; this session's log is kept in memory"
	}
	return app, nil
}

func (a *App) now() time.Time {
	return a.clock()
}

func (a *App) logInfo(format string, args ...any) {
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return a.drainEvents()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.handle(msg)
	return a, tea.Batch(cmd, a.drainEvents())
}

func (a *App) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		if a.detail != nil {
			a.detail.resize(msg.Width)
		}
		return nil

	case toastExpiredMsg:
		a.toasts.dismiss(msg.id)
		return nil

	case celebrationDoneMsg:
		if msg.seq == a.celebrationSeq {
			a.celebrating = false
		}
		return nil

	case titlesGeneratedMsg:
		if a.detail == nil || !a.session.Owns(msg.token) {
			a.logInfo("Dropped title ideas for a closed editor")
			return nil
		}
		return a.detail.Update(msg)

	case scriptRefinedMsg:
		if a.detail == nil || !a.session.Owns(msg.token) {
			a.logInfo("Dropped refined script for a closed editor")
			return nil
		}
		return a.detail.Update(msg)

	case spinner.TickMsg:
		if a.detail != nil {
			return a.detail.Update(msg)
		}
		return nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return tea.Quit
		}
		switch a.state {
		case stateDetail:
			if a.detail != nil {
				return a.detail.Update(msg)
			}
		case stateNewCard:
			return a.handleNewCardKey(msg)
		case stateConfirmDelete:
			return a.handleConfirmDelete(msg)
		case stateCalendar:
			if msg.String() == "esc" || key.Matches(msg, a.keys.Calendar) {
				a.state = stateBoard
			} else if key.Matches(msg, a.keys.Quit) {
				return tea.Quit
			}
			return nil
		default:
			return a.handleBoardKey(msg)
		}
	}
	return nil
}

func (a *App) handleBoardKey(msg tea.KeyMsg) tea.Cmd {
	stages := pipeline.StagesInOrder()
	stage := stages[a.column]
	switch {
	case key.Matches(msg, a.keys.Quit):
		a.logInfo("Session closed")
		return tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, a.keys.Log):
		a.showLog = !a.showLog
	case key.Matches(msg, a.keys.Calendar):
		a.state = stateCalendar
	case key.Matches(msg, a.keys.Left):
		a.column = clamp(a.column-1, 0, len(stages)-1)
	case key.Matches(msg, a.keys.Right):
		a.column = clamp(a.column+1, 0, len(stages)-1)
	case key.Matches(msg, a.keys.Up):
		a.cursor[stage] = clamp(a.cursor[stage]-1, 0, a.columnLen(stage)-1)
	case key.Matches(msg, a.keys.Down):
		a.cursor[stage] = clamp(a.cursor[stage]+1, 0, a.columnLen(stage)-1)
	case key.Matches(msg, a.keys.MoveNext):
		a.moveSelected(stage.Next())
	case key.Matches(msg, a.keys.MovePrev):
		a.moveSelected(stage.Prev())
	case key.Matches(msg, a.keys.RaiseCard):
		a.reorderSelected(-1)
	case key.Matches(msg, a.keys.LowerCard):
		a.reorderSelected(1)
	case key.Matches(msg, a.keys.Open):
		if p, ok := a.selected(); ok {
			a.openDetail(p)
		}
	case key.Matches(msg, a.keys.New):
		a.state = stateNewCard
		a.newTitle.SetValue("")
		a.newTitle.Focus()
		return textinput.Blink
	case key.Matches(msg, a.keys.Delete):
		if p, ok := a.selected(); ok {
			a.pendingDelete = p.ID
			a.state = stateConfirmDelete
			a.statusMsg = fmt.Sprintf("Delete %q? y to confirm", p.Title)
		}
	}
	return nil
}

func (a *App) handleNewCardKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.newTitle.Blur()
		a.state = stateBoard
		return nil
	case "enter":
		p := a.board.Create(context.Background(), a.newTitle.Value())
		a.newTitle.Blur()
		a.state = stateBoard
		a.column = pipeline.StageIdea.Index()
		a.cursor[pipeline.StageIdea] = a.columnLen(pipeline.StageIdea) - 1
		a.statusMsg = fmt.Sprintf("Added %q to the idea backlog", p.Title)
		return nil
	}
	var cmd tea.Cmd
	a.newTitle, cmd = a.newTitle.Update(msg)
	return cmd
}

func (a *App) handleConfirmDelete(msg tea.KeyMsg) tea.Cmd {
	id := a.pendingDelete
	a.pendingDelete = ""
	a.state = stateBoard
	if msg.String() != "y" {
		a.statusMsg = "Delete cancelled"
		return nil
	}
	return a.deleteProject(id)
}

func (a *App) deleteProject(id string) tea.Cmd {
	if err := a.board.Delete(context.Background(), id); err != nil {
		a.logWarn("Delete failed: %v", err)
		return a.toast(notify.LevelError, "Project no longer exists")
	}
	if a.detail != nil && a.detail.copy.ID() == id {
		a.closeDetail()
	}
	a.clampCursors()
	return a.toast(notify.LevelInfo, "Project deleted")
}

func (a *App) moveSelected(to pipeline.Stage) {
	p, ok := a.selected()
	if !ok || to == p.Stage {
		return
	}
	out := a.board.MoveToEnd(context.Background(), p.ID, to)
	if !out.Changed {
		return
	}
	a.column = out.To.Stage.Index()
	a.cursor[out.To.Stage] = out.To.Index
	a.clampCursors()
}

func (a *App) reorderSelected(step int) {
	p, ok := a.selected()
	if !ok {
		return
	}
	idx := a.cursor[p.Stage] + step
	if idx < 0 || idx >= a.columnLen(p.Stage) {
		return
	}
	out := a.board.Reorder(context.Background(), p.ID, idx)
	if out.Changed {
		a.cursor[p.Stage] = out.To.Index
	}
}

func (a *App) openDetail(p project.VideoProject) {
	a.detail = newDetailView(a, p)
	a.detail.resize(a.width)
	a.state = stateDetail
	a.statusMsg = ""
}

func (a *App) closeDetail() {
	a.session.Close()
	a.detail = nil
	a.state = stateBoard
	a.clampCursors()
}

func (a *App) selected() (project.VideoProject, bool) {
	stage := pipeline.StagesInOrder()[a.column]
	col := a.board.Columns()[stage]
	if len(col) == 0 {
		return project.VideoProject{}, false
	}
	idx := clamp(a.cursor[stage], 0, len(col)-1)
	return col[idx], true
}

func (a *App) columnLen(stage pipeline.Stage) int {
	return len(a.board.Columns()[stage])
}

func (a *App) clampCursors() {
	cols := a.board.Columns()
	for _, stage := range pipeline.StagesInOrder() {
		a.cursor[stage] = clamp(a.cursor[stage], 0, len(cols[stage])-1)
	}
}

// toast shows a UI-local notification and schedules its dismissal.
func (a *App) toast(level notify.Level, message string) tea.Cmd {
	id := a.toasts.push(level, message)
	return expireToast(a.toastDuration, id)
}

// drainEvents moves everything the board published into toasts and the
// celebration banner. The board publishes synchronously inside Update, so a
// non-blocking drain after each message sees every event.
func (a *App) drainEvents() tea.Cmd {
	var cmds []tea.Cmd
	for {
		select {
		case evt, ok := <-a.events.Events:
			if !ok {
				return tea.Batch(cmds...)
			}
			switch evt.Kind {
			case notify.KindCelebration:
				a.celebrating = true
				a.celebrationSeq++
				cmds = append(cmds, endCelebration(a.celebrationSeq))
			default:
				cmds = append(cmds, a.toast(evt.Level, evt.Message))
			}
		default:
			return tea.Batch(cmds...)
		}
	}
}

func (a *App) generateTitlesCmd(token editor.Token, p project.VideoProject) tea.Cmd {
	gen := a.assistant
	return func() tea.Msg {
		titles, err := gen.GenerateTitles(context.Background(), p)
		return titlesGeneratedMsg{token: token, titles: titles, err: err}
	}
}

func (a *App) refineScriptCmd(token editor.Token, script string) tea.Cmd {
	gen := a.assistant
	tone := assistant.DefaultTone
	if a.config != nil {
		tone = a.config.File.Assistant.Tone
	}
	return func() tea.Msg {
		refined, err := gen.RefineScript(context.Background(), script, tone)
		return scriptRefinedMsg{token: token, source: script, script: refined, err: err}
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 120
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		Render("✦ CREATORFLOW")

	sections := []string{header, a.renderStats(width)}
	if a.celebrating {
		sections = append(sections, renderCelebration(width))
	}
	if toasts := a.toasts.view(); toasts != "" {
		sections = append(sections, toasts)
	}

	var content string
	switch a.state {
	case stateDetail:
		if a.detail != nil {
			content = a.detail.View()
		}
	case stateCalendar:
		content = lipgloss.NewStyle().
			Width(max(20, width-4)).
			Align(lipgloss.Center).
			Padding(2, 0).
			Foreground(lipgloss.Color("#888888")).
			Render("Calendar view coming soon.\n\nEsc → back to the board")
	default:
		content = a.renderColumns(width)
		if a.state == stateNewCard {
			content = lipgloss.JoinVertical(lipgloss.Left, content, "New idea: "+a.newTitle.View())
		}
	}
	sections = append(sections, lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(content))

	if a.showLog {
		if panel := a.renderLogPanel(); panel != "" {
			sections = append(sections, panel)
		}
	}
	if a.state == stateDetail && a.detail != nil {
		sections = append(sections, a.help.View(a.detail.keys))
	} else {
		sections = append(sections, a.help.View(a.keys))
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func logSource(path string) string {
	if path == "" {
		return "memory"
	}
	return filepath.Base(path)
}

func (a *App) renderLogPanel() string {
	lines := a.logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("LOG · " + logSource(a.logbook.Path()))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(head + "\n" + body)
}
