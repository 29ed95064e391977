package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
	"github.com/kingrea/creatorflow/internal/stats"
)

const (
	minColumnWidth = 22
	progressCells  = 10
)

var stageColors = map[pipeline.Stage]lipgloss.Color{
	pipeline.StageIdea:      lipgloss.Color("#A1A1AA"),
	pipeline.StageScripting: lipgloss.Color("#60A5FA"),
	pipeline.StageFilming:   lipgloss.Color("#F472B6"),
	pipeline.StageEditing:   lipgloss.Color("#FBBF24"),
	pipeline.StageThumbnail: lipgloss.Color("#C084FC"),
	pipeline.StageReady:     lipgloss.Color("#34D399"),
	pipeline.StagePublished: lipgloss.Color("#4ADE80"),
}

var heatCells = [stats.MaxIntensity + 1]string{"·", "░", "▒", "█"}

func (a *App) renderStats(width int) string {
	projects := a.board.Projects()
	now := a.now()
	summary := stats.Summarize(projects, now)

	next := "No active deadlines. Relax!"
	if summary.NextUp != nil {
		next = fmt.Sprintf("Next: %s (due %s)", summary.NextUp.Title, humanize.RelTime(summary.NextUp.DueDate, now, "ago", "from now"))
	}
	line := fmt.Sprintf("🔥 %d week streak   ⏰ %s   🏆 %d published",
		summary.Streak, next, summary.TotalPublished)

	weeks := stats.HeatmapWeeks
	if width > 0 && width-12 < weeks {
		weeks = max(4, width-12)
	}
	var sb strings.Builder
	for _, cell := range stats.Heatmap(projects, now, weeks) {
		sb.WriteString(heatCells[cell.Intensity])
	}
	heat := lipgloss.NewStyle().Foreground(lipgloss.Color("#818CF8")).Render(sb.String())
	caption := lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Render("uploads ")
	return line + "\n" + caption + heat
}

func (a *App) renderColumns(width int) string {
	stages := pipeline.StagesInOrder()
	cols := a.board.Columns()

	colWidth := max(minColumnWidth, (width-4)/len(stages))
	visible := max(1, (width-4)/colWidth)
	if visible > len(stages) {
		visible = len(stages)
	}
	start := 0
	if a.column >= visible {
		start = a.column - visible + 1
	}
	end := start + visible

	rendered := make([]string, 0, visible)
	for i := start; i < end; i++ {
		stage := stages[i]
		rendered = append(rendered, a.renderColumn(stage, cols[stage], i == a.column, colWidth))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	if start > 0 || end < len(stages) {
		more := lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).
			Render(fmt.Sprintf("columns %d-%d of %d", start+1, end, len(stages)))
		row = lipgloss.JoinVertical(lipgloss.Left, row, more)
	}
	return row
}

func (a *App) renderColumn(stage pipeline.Stage, cards []project.VideoProject, focused bool, width int) string {
	color := stageColors[stage]
	title := lipgloss.NewStyle().Bold(true).Foreground(color).
		Render(fmt.Sprintf("%s (%d)", stage.Label(), len(cards)))
	rows := []string{title}
	if len(cards) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")).Render("empty"))
	}
	for i, p := range cards {
		selected := focused && i == a.cursor[stage]
		rows = append(rows, a.renderCard(p, selected, width-4))
	}
	border := lipgloss.Color("#333333")
	if focused {
		border = color
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(width - 2).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))
}

func (a *App) renderCard(p project.VideoProject, selected bool, width int) string {
	now := a.now()
	lines := []string{truncate(p.Title, width)}
	if p.PublishedAt != nil {
		lines = append(lines, "live "+humanize.RelTime(*p.PublishedAt, now, "ago", "from now"))
	} else if !p.DueDate.IsZero() {
		due := "due " + humanize.RelTime(p.DueDate, now, "ago", "from now")
		if p.DueDate.Before(now) {
			due = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Render(due)
		}
		lines = append(lines, due)
	}
	lines = append(lines, progressBar(project.CompletionPercentage(p.Checklist)))
	if len(p.Metadata.Tags) > 0 {
		lines = append(lines, truncate("#"+strings.Join(p.Metadata.Tags, " #"), width))
	}
	style := lipgloss.NewStyle().Width(max(10, width)).MarginBottom(1)
	if selected {
		style = style.Bold(true).Foreground(lipgloss.Color("#FFFFFF")).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#5B8DEF"))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func progressBar(percent int) string {
	filled := percent * progressCells / 100
	return fmt.Sprintf("%s%s %d%%",
		strings.Repeat("■", filled),
		strings.Repeat("□", progressCells-filled),
		percent)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 1 || len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
