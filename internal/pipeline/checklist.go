package pipeline

// ChecklistItem is one publishing chore attached to a project. Labels come
// from the template; only Completed changes afterwards.
type ChecklistItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

var defaultChecklist = [...]ChecklistItem{
	{ID: "1", Label: "Keyword Research"},
	{ID: "2", Label: "Draft Thumbnail Concepts"},
	{ID: "3", Label: "Write Pinned Comment"},
	{ID: "4", Label: "Add End Screens"},
	{ID: "5", Label: "Check Copyright"},
}

// DefaultChecklist returns a newly allocated copy of the template used when a
// project is created. Items are never shared between projects.
func DefaultChecklist() []ChecklistItem {
	out := make([]ChecklistItem, len(defaultChecklist))
	copy(out, defaultChecklist[:])
	return out
}
