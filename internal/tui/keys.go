package tui

import "github.com/charmbracelet/bubbles/key"

// boardKeys are active while the board has focus.
type boardKeys struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	MovePrev  key.Binding
	MoveNext  key.Binding
	RaiseCard key.Binding
	LowerCard key.Binding
	Open      key.Binding
	New       key.Binding
	Delete    key.Binding
	Calendar  key.Binding
	Log       key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newBoardKeys() boardKeys {
	return boardKeys{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "column")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "column")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "card")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "card")),
		MovePrev:  key.NewBinding(key.WithKeys("shift+left", "H"), key.WithHelp("H", "move back")),
		MoveNext:  key.NewBinding(key.WithKeys("shift+right", "L"), key.WithHelp("L", "move forward")),
		RaiseCard: key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "raise")),
		LowerCard: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "lower")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new idea")),
		Delete:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Calendar:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "calendar")),
		Log:       key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "log panel")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k boardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.New, k.MoveNext, k.MovePrev, k.Help, k.Quit}
}

func (k boardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.MovePrev, k.MoveNext, k.RaiseCard, k.LowerCard},
		{k.Open, k.New, k.Delete},
		{k.Calendar, k.Log, k.Help, k.Quit},
	}
}

// detailKeys are active inside the project editor.
type detailKeys struct {
	NextField   key.Binding
	PrevField   key.Binding
	Save        key.Binding
	Close       key.Binding
	Toggle      key.Binding
	AddVariant  key.Binding
	Generate    key.Binding
	Refine      key.Binding
	StageNext   key.Binding
	StagePrev   key.Binding
	Delete      key.Binding
	ItemUp      key.Binding
	ItemDown    key.Binding
	UseSelected key.Binding
}

func newDetailKeys() detailKeys {
	return detailKeys{
		NextField:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Toggle:      key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "toggle")),
		AddVariant:  key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "add variant")),
		Generate:    key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "title ideas")),
		Refine:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refine script")),
		StageNext:   key.NewBinding(key.WithKeys("ctrl+right"), key.WithHelp("ctrl+→", "stage")),
		StagePrev:   key.NewBinding(key.WithKeys("ctrl+left"), key.WithHelp("ctrl+←", "stage")),
		Delete:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "delete")),
		ItemUp:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev")),
		ItemDown:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next")),
		UseSelected: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "use title")),
	}
}

func (k detailKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.NextField, k.Save, k.Generate, k.Refine, k.Close}
}

func (k detailKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextField, k.PrevField, k.ItemUp, k.ItemDown},
		{k.Save, k.Close, k.Delete},
		{k.Toggle, k.AddVariant, k.UseSelected},
		{k.Generate, k.Refine, k.StagePrev, k.StageNext},
	}
}
