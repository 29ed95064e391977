package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/creatorflow/internal/assistant"
	"github.com/kingrea/creatorflow/internal/editor"
	"github.com/kingrea/creatorflow/internal/notify"
	"github.com/kingrea/creatorflow/internal/project"
)

type detailField int

const (
	fieldTitle detailField = iota
	fieldDue
	fieldTags
	fieldDescription
	fieldVariants
	fieldSuggestions
	fieldScript
	fieldChecklist
	fieldCount
)

var fieldNames = map[detailField]string{
	fieldTitle:       "Title",
	fieldDue:         "Due (YYYY-MM-DD)",
	fieldTags:        "Tags",
	fieldDescription: "Description",
	fieldVariants:    "A/B Titles",
	fieldSuggestions: "Title Ideas",
	fieldScript:      "Script",
	fieldChecklist:   "Checklist",
}

type titlesGeneratedMsg struct {
	token  editor.Token
	titles []string
	err    error
}

type scriptRefinedMsg struct {
	token  editor.Token
	source string
	script string
	err    error
}

// detailView edits one project through an editor.WorkingCopy.
type detailView struct {
	app   *App
	copy  *editor.WorkingCopy
	token editor.Token
	keys  detailKeys

	focus       detailField
	title       textinput.Model
	due         textinput.Model
	tags        textinput.Model
	description textarea.Model
	script      textarea.Model
	variants    []textinput.Model
	variantIdx  int
	suggestIdx  int
	checkIdx    int

	spinner       spinner.Model
	generating    bool
	refining      bool
	confirmDelete bool
}

func newDetailView(app *App, p project.VideoProject) *detailView {
	wc, token := app.session.Open(p)
	d := &detailView{
		app:   app,
		copy:  wc,
		token: token,
		keys:  newDetailKeys(),
	}
	d.title = newInput(p.Title, project.DefaultTitle)
	d.due = newInput(wc.DueDateText(), "2026-01-31")
	d.tags = newInput(wc.TagsText(), "vlog, tutorial")
	d.description = newTextArea(p.Metadata.Description, "What is this video about?", 3)
	d.script = newTextArea(p.Metadata.ScriptContent, "Start with a hook...", 8)
	d.variants = make([]textinput.Model, 0, len(p.Metadata.ABTitles))
	for _, v := range p.Metadata.ABTitles {
		d.variants = append(d.variants, newInput(v, "Alternative title"))
	}
	d.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	d.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#C084FC"))
	d.setFocus(fieldTitle)
	return d
}

func newInput(value, placeholder string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 200
	in.SetValue(value)
	return in
}

func newTextArea(value, placeholder string, height int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(height)
	ta.SetValue(value)
	return ta
}

func (d *detailView) setFocus(field detailField) {
	d.title.Blur()
	d.due.Blur()
	d.tags.Blur()
	d.description.Blur()
	d.script.Blur()
	for i := range d.variants {
		d.variants[i].Blur()
	}
	d.focus = field
	switch field {
	case fieldTitle:
		d.title.Focus()
	case fieldDue:
		d.due.Focus()
	case fieldTags:
		d.tags.Focus()
	case fieldDescription:
		d.description.Focus()
	case fieldScript:
		d.script.Focus()
	case fieldVariants:
		if len(d.variants) > 0 {
			d.variantIdx = clamp(d.variantIdx, 0, len(d.variants)-1)
			d.variants[d.variantIdx].Focus()
		}
	}
}

func (d *detailView) cycleFocus(step int) {
	next := (int(d.focus) + step + int(fieldCount)) % int(fieldCount)
	d.setFocus(detailField(next))
}

func (d *detailView) resize(width int) {
	inner := max(20, width-8)
	d.title.Width = inner
	d.due.Width = 12
	d.tags.Width = inner
	d.description.SetWidth(inner)
	d.script.SetWidth(inner)
	for i := range d.variants {
		d.variants[i].Width = inner
	}
}

// flush copies widget contents into the working copy. A malformed due date
// is reported and leaves the previous date in place.
func (d *detailView) flush() error {
	d.copy.SetTitle(d.title.Value())
	d.copy.SetTags(d.tags.Value())
	d.copy.SetDescription(d.description.Value())
	d.copy.SetScript(d.script.Value())
	for i := range d.variants {
		_ = d.copy.SetTitleVariant(i, d.variants[i].Value())
	}
	if strings.TrimSpace(d.due.Value()) == "" {
		return nil
	}
	return d.copy.SetDueDateText(d.due.Value())
}

func (d *detailView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !d.generating && !d.refining {
			return nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return cmd
	case titlesGeneratedMsg:
		return d.handleTitles(msg)
	case scriptRefinedMsg:
		return d.handleScript(msg)
	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return nil
}

func (d *detailView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if d.confirmDelete {
		d.confirmDelete = false
		if msg.String() == "y" {
			return d.app.deleteProject(d.copy.ID())
		}
		d.app.statusMsg = "Delete cancelled"
		return nil
	}

	switch {
	case key.Matches(msg, d.keys.Close):
		if d.copy.Dirty() {
			d.app.logInfo("Closed %q without saving", d.copy.Project().Title)
		}
		d.app.closeDetail()
		return nil
	case key.Matches(msg, d.keys.Save):
		return d.save()
	case key.Matches(msg, d.keys.NextField):
		d.cycleFocus(1)
		return nil
	case key.Matches(msg, d.keys.PrevField):
		d.cycleFocus(-1)
		return nil
	case key.Matches(msg, d.keys.Generate):
		return d.generateTitles()
	case key.Matches(msg, d.keys.Refine):
		return d.refineScript()
	case key.Matches(msg, d.keys.AddVariant):
		return d.addVariant()
	case key.Matches(msg, d.keys.StageNext):
		return d.shiftStage(1)
	case key.Matches(msg, d.keys.StagePrev):
		return d.shiftStage(-1)
	case key.Matches(msg, d.keys.Delete):
		d.confirmDelete = true
		d.app.statusMsg = "Delete this project? y to confirm"
		return nil
	}

	switch d.focus {
	case fieldChecklist:
		return d.handleChecklistKey(msg)
	case fieldSuggestions:
		return d.handleSuggestionKey(msg)
	case fieldVariants:
		if len(d.variants) > 0 && (key.Matches(msg, d.keys.ItemUp) || key.Matches(msg, d.keys.ItemDown)) {
			step := 1
			if key.Matches(msg, d.keys.ItemUp) {
				step = -1
			}
			d.variantIdx = clamp(d.variantIdx+step, 0, len(d.variants)-1)
			d.setFocus(fieldVariants)
			return nil
		}
	}

	var cmd tea.Cmd
	switch d.focus {
	case fieldTitle:
		d.title, cmd = d.title.Update(msg)
	case fieldDue:
		d.due, cmd = d.due.Update(msg)
	case fieldTags:
		d.tags, cmd = d.tags.Update(msg)
	case fieldDescription:
		d.description, cmd = d.description.Update(msg)
	case fieldScript:
		d.script, cmd = d.script.Update(msg)
	case fieldVariants:
		if len(d.variants) > 0 {
			d.variants[d.variantIdx], cmd = d.variants[d.variantIdx].Update(msg)
		}
	}
	_ = d.flush()
	return cmd
}

func (d *detailView) handleChecklistKey(msg tea.KeyMsg) tea.Cmd {
	items := d.copy.Project().Checklist
	switch {
	case key.Matches(msg, d.keys.ItemUp):
		d.checkIdx = clamp(d.checkIdx-1, 0, len(items)-1)
	case key.Matches(msg, d.keys.ItemDown):
		d.checkIdx = clamp(d.checkIdx+1, 0, len(items)-1)
	case key.Matches(msg, d.keys.Toggle):
		if len(items) > 0 {
			d.copy.ToggleChecklist(items[d.checkIdx].ID)
		}
	}
	return nil
}

func (d *detailView) handleSuggestionKey(msg tea.KeyMsg) tea.Cmd {
	suggestions := d.copy.Suggestions()
	switch {
	case key.Matches(msg, d.keys.ItemUp):
		d.suggestIdx = clamp(d.suggestIdx-1, 0, len(suggestions)-1)
	case key.Matches(msg, d.keys.ItemDown):
		d.suggestIdx = clamp(d.suggestIdx+1, 0, len(suggestions)-1)
	case key.Matches(msg, d.keys.UseSelected):
		if len(suggestions) == 0 {
			return nil
		}
		pick := suggestions[d.suggestIdx]
		if pick == assistant.TitleErrorMarker {
			return nil
		}
		if d.copy.UseSuggestion(pick) {
			d.variants = append(d.variants, newInput(pick, "Alternative title"))
			d.resize(d.app.width)
			d.app.statusMsg = fmt.Sprintf("Added %q to A/B titles", pick)
		}
	}
	return nil
}

func (d *detailView) addVariant() tea.Cmd {
	if err := d.copy.AddTitleVariant(); err != nil {
		d.app.statusMsg = fmt.Sprintf("At most %d title variants", project.MaxTitleVariants)
		return nil
	}
	d.variants = append(d.variants, newInput("", "Alternative title"))
	d.resize(d.app.width)
	d.variantIdx = len(d.variants) - 1
	d.setFocus(fieldVariants)
	return nil
}

func (d *detailView) shiftStage(step int) tea.Cmd {
	stage := d.copy.Project().Stage
	next := stage.Next()
	if step < 0 {
		next = stage.Prev()
	}
	if err := d.copy.SetStage(next); err != nil {
		d.app.logWarn("Stage change rejected: %v", err)
		return nil
	}
	d.app.statusMsg = fmt.Sprintf("Stage: %s (unsaved)", next.Label())
	return nil
}

func (d *detailView) save() tea.Cmd {
	if err := d.flush(); err != nil {
		return d.app.toast(notify.LevelError, err.Error())
	}
	committed := d.copy.Commit(d.app.now())
	if err := d.app.board.Update(context.Background(), committed); err != nil {
		d.app.logError("Save failed: %v", err)
		return d.app.toast(notify.LevelError, "Could not save project")
	}
	d.app.closeDetail()
	return d.app.toast(notify.LevelSuccess, "Project saved")
}

func (d *detailView) generateTitles() tea.Cmd {
	if d.generating {
		return nil
	}
	_ = d.flush()
	d.generating = true
	snapshot := d.copy.Project()
	return tea.Batch(d.spinner.Tick, d.app.generateTitlesCmd(d.token, snapshot))
}

func (d *detailView) refineScript() tea.Cmd {
	if d.refining {
		return nil
	}
	_ = d.flush()
	text := d.copy.Project().Metadata.ScriptContent
	if strings.TrimSpace(text) == "" {
		d.app.statusMsg = "Write a script first"
		return nil
	}
	d.refining = true
	return tea.Batch(d.spinner.Tick, d.app.refineScriptCmd(d.token, text))
}

func (d *detailView) handleTitles(msg titlesGeneratedMsg) tea.Cmd {
	d.generating = false
	d.copy.SetSuggestions(msg.titles)
	d.suggestIdx = 0
	if msg.err != nil {
		return d.app.toast(notify.LevelError, generationError(msg.err))
	}
	return d.app.toast(notify.LevelMagic, fmt.Sprintf("Generated %d title ideas", len(msg.titles)))
}

func (d *detailView) handleScript(msg scriptRefinedMsg) tea.Cmd {
	d.refining = false
	if msg.err != nil {
		return d.app.toast(notify.LevelError, generationError(msg.err))
	}
	if d.script.Value() != msg.source {
		return d.app.toast(notify.LevelInfo, "Script edited while refining. Kept your version.")
	}
	d.script.SetValue(msg.script)
	d.copy.SetScript(msg.script)
	return d.app.toast(notify.LevelMagic, "Script refined")
}

func generationError(err error) string {
	if errors.Is(err, assistant.ErrUnavailable) {
		return "Gemini API key missing. Set GEMINI_API_KEY."
	}
	return "Generation failed. Your draft is unchanged."
}

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#888888"))
	focusedLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func (d *detailView) label(field detailField) string {
	if d.focus == field {
		return focusedLabel.Render("▸ " + fieldNames[field])
	}
	return labelStyle.Render("  " + fieldNames[field])
}

func (d *detailView) View() string {
	p := d.copy.Project()
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).
		Render(fmt.Sprintf("%s · %s", p.Stage.Label(), p.Title))
	if d.copy.Dirty() {
		header += mutedStyle.Render("  (unsaved)")
	}

	sections := []string{
		header,
		d.label(fieldTitle), d.title.View(),
		d.label(fieldDue), d.due.View(),
		d.label(fieldTags), d.tags.View(),
		d.label(fieldDescription), d.description.View(),
		d.label(fieldVariants), d.renderVariants(),
		d.label(fieldSuggestions), d.renderSuggestions(),
		d.label(fieldScript), d.renderScript(),
		d.label(fieldChecklist), d.renderChecklist(p),
	}
	if d.confirmDelete {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).
			Render("Delete this project permanently? (y/N)"))
	}
	return strings.Join(sections, "\n")
}

func (d *detailView) renderVariants() string {
	if len(d.variants) == 0 {
		return mutedStyle.Render("  none · ctrl+a adds a variant")
	}
	rows := make([]string, len(d.variants))
	for i := range d.variants {
		rows[i] = fmt.Sprintf("  %c %s", 'A'+rune(i), d.variants[i].View())
	}
	return strings.Join(rows, "\n")
}

func (d *detailView) renderSuggestions() string {
	if d.generating {
		return "  " + d.spinner.View() + " Brainstorming titles..."
	}
	suggestions := d.copy.Suggestions()
	if len(suggestions) == 0 {
		return mutedStyle.Render("  ctrl+g asks Gemini for title ideas")
	}
	rows := make([]string, len(suggestions))
	for i, s := range suggestions {
		cursor := "  "
		if d.focus == fieldSuggestions && i == d.suggestIdx {
			cursor = "› "
		}
		rows[i] = cursor + s
	}
	return strings.Join(rows, "\n")
}

func (d *detailView) renderScript() string {
	if d.refining {
		return "  " + d.spinner.View() + " Refining script..."
	}
	return d.script.View()
}

func (d *detailView) renderChecklist(p project.VideoProject) string {
	rows := make([]string, 0, len(p.Checklist)+1)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d%% complete", project.CompletionPercentage(p.Checklist))))
	for i, item := range p.Checklist {
		box := "[ ]"
		if item.Completed {
			box = "[x]"
		}
		cursor := "  "
		if d.focus == fieldChecklist && i == d.checkIdx {
			cursor = "› "
		}
		rows = append(rows, fmt.Sprintf("%s%s %s", cursor, box, item.Label))
	}
	return strings.Join(rows, "\n")
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
