package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/creatorflow/internal/assistant"
	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
	"github.com/kingrea/creatorflow/internal/workspace"
)

var testNow = time.Date(2026, 4, 8, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T, gen assistant.Generator) *App {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	ws, err := workspace.Open(context.Background(), t.TempDir(),
		workspace.WithClock(func() time.Time { return testNow }),
		workspace.WithAssistant(assistant.New(gen)),
	)
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	app, err := NewApp(ws)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app
}

var namedKeys = map[string]tea.KeyType{
	"enter":      tea.KeyEnter,
	"esc":        tea.KeyEsc,
	"tab":        tea.KeyTab,
	"shift+tab":  tea.KeyShiftTab,
	"up":         tea.KeyUp,
	"down":       tea.KeyDown,
	"left":       tea.KeyLeft,
	"right":      tea.KeyRight,
	" ":          tea.KeySpace,
	"ctrl+s":     tea.KeyCtrlS,
	"ctrl+g":     tea.KeyCtrlG,
	"ctrl+r":     tea.KeyCtrlR,
	"ctrl+a":     tea.KeyCtrlA,
	"ctrl+x":     tea.KeyCtrlX,
	"ctrl+right": tea.KeyCtrlRight,
}

func keyMsg(k string) tea.KeyMsg {
	if kt, ok := namedKeys[k]; ok {
		return tea.KeyMsg{Type: kt}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys through Update without running the returned commands;
// timers and async work are driven explicitly by each test.
func press(t *testing.T, app *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		model, _ := app.Update(keyMsg(k))
		if model.(*App) != app {
			t.Fatalf("Update returned a different model")
		}
	}
}

func findByTitle(t *testing.T, app *App, title string) project.VideoProject {
	t.Helper()
	for _, p := range app.board.Projects() {
		if p.Title == title {
			return p
		}
	}
	t.Fatalf("no project titled %q", title)
	return project.VideoProject{}
}

func hasToast(app *App, fragment string) bool {
	for _, msg := range app.toasts.messages() {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func TestMovingCardToPublishedCelebrates(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "l", "l", "l")
	if got := pipeline.StagesInOrder()[app.column]; got != pipeline.StageEditing {
		t.Fatalf("focused column = %s", got)
	}
	press(t, app, "L", "L", "L")

	p := findByTitle(t, app, "Review of the Gemini API")
	if p.Stage != pipeline.StagePublished || p.PublishedAt == nil || !p.PublishedAt.Equal(testNow) {
		t.Fatalf("card not published: %+v", p)
	}
	if pipeline.StagesInOrder()[app.column] != pipeline.StagePublished {
		t.Fatalf("focus should follow the card")
	}
	if !app.celebrating {
		t.Fatalf("expected celebration banner")
	}
	if !hasToast(app, `"Review of the Gemini API" is live! Great job!`) {
		t.Fatalf("expected publish toast, got %v", app.toasts.messages())
	}
	if !strings.Contains(app.View(), "PUBLISHED") {
		t.Fatalf("celebration not rendered")
	}

	press(t, app, "H")
	p = findByTitle(t, app, "Review of the Gemini API")
	if p.Stage != pipeline.StageReady || p.PublishedAt != nil {
		t.Fatalf("pulling back should unpublish: %+v", p)
	}

	app.Update(celebrationDoneMsg{seq: app.celebrationSeq})
	if app.celebrating {
		t.Fatalf("celebration should end")
	}
}

func TestNewCardPrompt(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "n", "My next idea", "enter")
	p := findByTitle(t, app, "My next idea")
	if p.Stage != pipeline.StageIdea || len(p.Checklist) != 5 {
		t.Fatalf("unexpected new card: %+v", p)
	}
	if app.state != stateBoard || app.column != 0 {
		t.Fatalf("expected focus on idea column")
	}

	press(t, app, "n", "enter")
	findByTitle(t, app, project.DefaultTitle)
	cols := app.board.Columns()
	if got := cols[pipeline.StageIdea]; len(got) != 2 || got[1].Title != project.DefaultTitle {
		t.Fatalf("new ideas should append to the column: %+v", got)
	}

	press(t, app, "n", "abandoned", "esc")
	for _, p := range app.board.Projects() {
		if p.Title == "abandoned" {
			t.Fatalf("esc should not create a card")
		}
	}
}

func TestReorderKeysWithinColumn(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "n", "first", "enter", "n", "second", "enter")
	if app.cursor[pipeline.StageIdea] != 1 {
		t.Fatalf("cursor should rest on the newest card")
	}
	press(t, app, "K")
	col := app.board.Columns()[pipeline.StageIdea]
	if col[0].Title != "second" || col[1].Title != "first" {
		t.Fatalf("reorder failed: %s, %s", col[0].Title, col[1].Title)
	}
	if app.cursor[pipeline.StageIdea] != 0 {
		t.Fatalf("cursor should follow the card")
	}
	press(t, app, "K")
	if app.board.Columns()[pipeline.StageIdea][0].Title != "second" {
		t.Fatalf("raising the top card should do nothing")
	}
}

func TestDetailSaveCommitsWorkingCopy(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "l", "l", "l", "enter")
	if app.state != stateDetail || app.detail == nil {
		t.Fatalf("enter should open the editor")
	}
	app.detail.title.SetValue("Gemini, six months later")
	app.detail.tags.SetValue("ai, review, ai")
	press(t, app, "shift+tab", " ", "down", " ")
	if app.detail.copy.Progress() != 40 {
		t.Fatalf("progress = %d, want 40", app.detail.copy.Progress())
	}
	press(t, app, "ctrl+s")

	if app.state != stateBoard || app.detail != nil {
		t.Fatalf("save should close the editor")
	}
	p := findByTitle(t, app, "Gemini, six months later")
	if len(p.Metadata.Tags) != 2 || project.CompletionPercentage(p.Checklist) != 40 {
		t.Fatalf("edits not saved: %+v", p)
	}
	if !p.UpdatedAt.Equal(testNow) {
		t.Fatalf("updatedAt = %s", p.UpdatedAt)
	}
	if !hasToast(app, "Project saved") {
		t.Fatalf("expected save toast")
	}
}

func TestDetailEscDiscardsEdits(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "l", "l", "l", "enter")
	press(t, app, " draft")
	if !app.detail.copy.Dirty() {
		t.Fatalf("typing should dirty the working copy")
	}
	press(t, app, "esc")
	findByTitle(t, app, "Review of the Gemini API")
	if _, _, ok := app.session.Active(); ok {
		t.Fatalf("closing should end the editor session")
	}
}

func TestDetailRejectsBadDueDate(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "l", "l", "l", "enter")
	app.detail.due.SetValue("someday")
	press(t, app, "ctrl+s")
	if app.state != stateDetail {
		t.Fatalf("bad due date should keep the editor open")
	}
	if !hasToast(app, "YYYY-MM-DD") {
		t.Fatalf("expected due date toast, got %v", app.toasts.messages())
	}
}

func TestGeneratedTitlesCanBeUsed(t *testing.T) {
	app := newTestApp(t, assistant.GeneratorFunc(func(context.Context, string) (string, error) {
		return "1. Hook one\n2. Hook two\n", nil
	}))
	press(t, app, "l", "l", "l", "enter", "ctrl+g")
	if !app.detail.generating {
		t.Fatalf("ctrl+g should start generation")
	}
	msg := app.generateTitlesCmd(app.detail.token, app.detail.copy.Project())()
	app.Update(msg)
	if app.detail.generating {
		t.Fatalf("result should stop the spinner")
	}
	if got := app.detail.copy.Suggestions(); len(got) != 2 || got[0] != "Hook one" {
		t.Fatalf("suggestions = %v", got)
	}
	if !hasToast(app, "Generated 2 title ideas") {
		t.Fatalf("expected magic toast, got %v", app.toasts.messages())
	}

	app.detail.setFocus(fieldSuggestions)
	press(t, app, "down", "enter")
	titles := app.detail.copy.Project().Metadata.ABTitles
	if titles[len(titles)-1] != "Hook two" {
		t.Fatalf("suggestion not appended: %v", titles)
	}
}

func TestStaleGenerationResultIsDropped(t *testing.T) {
	app := newTestApp(t, assistant.GeneratorFunc(func(context.Context, string) (string, error) {
		return "Late idea", nil
	}))
	press(t, app, "l", "l", "l", "enter")
	stale := app.generateTitlesCmd(app.detail.token, app.detail.copy.Project())()

	press(t, app, "esc", "enter")
	app.Update(stale)
	if len(app.detail.copy.Suggestions()) != 0 {
		t.Fatalf("result for a closed editor must not be applied")
	}
}

func TestGenerationWithoutKeyShowsError(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "l", "l", "l", "enter")
	before := app.detail.copy.Project()
	app.Update(app.generateTitlesCmd(app.detail.token, before)())
	if !hasToast(app, "API key missing") {
		t.Fatalf("expected missing key toast, got %v", app.toasts.messages())
	}

	app.detail.script.SetValue("keep me")
	press(t, app, "ctrl+r")
	app.Update(app.refineScriptCmd(app.detail.token, "keep me")())
	if got := app.detail.copy.Project().Metadata.ScriptContent; got != "keep me" {
		t.Fatalf("failed refine changed the script: %q", got)
	}
}

func TestRefineScriptReplacesDraft(t *testing.T) {
	var seen string
	app := newTestApp(t, assistant.GeneratorFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return "Punchier intro.", nil
	}))
	press(t, app, "l", "l", "l", "enter")
	app.detail.script.SetValue("Slow intro.")
	app.Update(app.refineScriptCmd(app.detail.token, "Slow intro.")())
	if got := app.detail.copy.Project().Metadata.ScriptContent; got != "Punchier intro." {
		t.Fatalf("script = %q", got)
	}
	if !strings.Contains(seen, "Tone: Engaging and punchy") {
		t.Fatalf("configured tone not used: %s", seen)
	}
}

func TestRefineKeepsEditsMadeWhileInFlight(t *testing.T) {
	app := newTestApp(t, assistant.GeneratorFunc(func(context.Context, string) (string, error) {
		return "Refined.", nil
	}))
	press(t, app, "l", "l", "l", "enter", "shift+tab", "shift+tab")
	if app.detail.focus != fieldScript {
		t.Fatalf("focus = %v, want script", app.detail.focus)
	}
	source := app.detail.script.Value()
	pending := app.refineScriptCmd(app.detail.token, source)

	press(t, app, "MYEDIT")
	typed := app.detail.script.Value()
	if !strings.Contains(typed, "MYEDIT") {
		t.Fatalf("typing did not reach the script field: %q", typed)
	}

	app.Update(pending())
	if got := app.detail.script.Value(); got != typed {
		t.Fatalf("script = %q, want the edited draft %q", got, typed)
	}
	if got := app.detail.copy.Project().Metadata.ScriptContent; got != typed {
		t.Fatalf("working copy script = %q, want %q", got, typed)
	}
	if !hasToast(app, "Kept your version") {
		t.Fatalf("expected kept-edits toast, got %v", app.toasts.messages())
	}
}

func TestRefineFailureToast(t *testing.T) {
	app := newTestApp(t, assistant.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("503")
	}))
	press(t, app, "l", "l", "l", "enter")
	original := app.detail.copy.Project().Metadata.ScriptContent
	app.Update(app.refineScriptCmd(app.detail.token, original)())
	if app.detail.copy.Project().Metadata.ScriptContent != original {
		t.Fatalf("script changed on failure")
	}
	if !hasToast(app, "Generation failed") {
		t.Fatalf("expected failure toast")
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	app := newTestApp(t, nil)
	press(t, app, "l", "l", "l", "x", "n")
	findByTitle(t, app, "Review of the Gemini API")

	press(t, app, "x", "y")
	for _, p := range app.board.Projects() {
		if p.Title == "Review of the Gemini API" {
			t.Fatalf("project should be deleted")
		}
	}
	if !hasToast(app, "Project deleted") {
		t.Fatalf("expected delete toast")
	}
}

func TestToastsExpire(t *testing.T) {
	app := newTestApp(t, nil)
	app.toast("info", "hello")
	if len(app.toasts.items) != 1 {
		t.Fatalf("toast not shown")
	}
	app.Update(toastExpiredMsg{id: app.toasts.items[0].id})
	if len(app.toasts.items) != 0 {
		t.Fatalf("toast should expire")
	}
}

func TestCalendarPlaceholderAndLayout(t *testing.T) {
	app := newTestApp(t, nil)
	app.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	view := app.View()
	for _, want := range []string{"CREATORFLOW", "Idea Backlog", "Ready to Publish", "Published", "My First Weekly Vlog", "1 published"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q", want)
		}
	}
	press(t, app, "c")
	if !strings.Contains(app.View(), "Calendar view coming soon") {
		t.Fatalf("calendar placeholder missing")
	}
	press(t, app, "esc")
	if app.state != stateBoard {
		t.Fatalf("esc should return to the board")
	}
}
