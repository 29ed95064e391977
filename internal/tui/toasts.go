package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/creatorflow/internal/notify"
)

const (
	maxVisibleToasts    = 4
	celebrationDuration = 3 * time.Second
)

type toast struct {
	id      int
	level   notify.Level
	message string
}

type toastExpiredMsg struct {
	id int
}

type celebrationDoneMsg struct {
	seq int
}

// toastStack holds the visible toasts, newest last.
type toastStack struct {
	items  []toast
	nextID int
}

func (s *toastStack) push(level notify.Level, message string) int {
	s.nextID++
	s.items = append(s.items, toast{id: s.nextID, level: level, message: message})
	if len(s.items) > maxVisibleToasts {
		s.items = s.items[len(s.items)-maxVisibleToasts:]
	}
	return s.nextID
}

func (s *toastStack) dismiss(id int) {
	for i := range s.items {
		if s.items[i].id == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

func (s *toastStack) messages() []string {
	out := make([]string, len(s.items))
	for i := range s.items {
		out[i] = s.items[i].message
	}
	return out
}

func expireToast(after time.Duration, id int) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func endCelebration(seq int) tea.Cmd {
	return tea.Tick(celebrationDuration, func(time.Time) tea.Msg {
		return celebrationDoneMsg{seq: seq}
	})
}

var toastColors = map[notify.Level]lipgloss.Color{
	notify.LevelSuccess: lipgloss.Color("#4ADE80"),
	notify.LevelError:   lipgloss.Color("#F87171"),
	notify.LevelInfo:    lipgloss.Color("#60A5FA"),
	notify.LevelMagic:   lipgloss.Color("#C084FC"),
}

var toastIcons = map[notify.Level]string{
	notify.LevelSuccess: "✓",
	notify.LevelError:   "✗",
	notify.LevelInfo:    "i",
	notify.LevelMagic:   "✦",
}

func (s *toastStack) view() string {
	if len(s.items) == 0 {
		return ""
	}
	rows := make([]string, 0, len(s.items))
	for _, t := range s.items {
		color, ok := toastColors[t.level]
		if !ok {
			color = toastColors[notify.LevelInfo]
		}
		rows = append(rows, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Foreground(color).
			Padding(0, 1).
			Render(toastIcons[t.level]+" "+t.message))
	}
	return strings.Join(rows, "\n")
}

func renderCelebration(width int) string {
	banner := "✦ ･ﾟ✧ PUBLISHED ✧ﾟ･ ✦"
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FACC15")).
		Width(max(20, width)).
		Align(lipgloss.Center).
		Render(banner)
}
