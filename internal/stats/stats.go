// Package stats derives the decorative board summary: weekly publishing
// streak, next deadline, total published, and a weekly activity heatmap.
// Every figure is computed from publishedAt so the streak and the heatmap
// always agree.
package stats

import (
	"sort"
	"time"

	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
)

// HeatmapWeeks is the span of the yearly activity strip.
const HeatmapWeeks = 52

// MaxIntensity is the top heatmap bucket (three or more uploads).
const MaxIntensity = 3

// Summary is the headline figures shown above the board.
type Summary struct {
	Streak         int
	NextUp         *project.VideoProject
	TotalPublished int
}

// Week is one heatmap cell.
type Week struct {
	Start     time.Time
	Count     int
	Intensity int
}

// Summarize computes the headline figures at now.
func Summarize(projects []project.VideoProject, now time.Time) Summary {
	total := 0
	for i := range projects {
		if projects[i].Stage == pipeline.StagePublished {
			total++
		}
	}
	return Summary{
		Streak:         Streak(projects, now),
		NextUp:         NextUp(projects),
		TotalPublished: total,
	}
}

// WeekStart returns the Sunday 00:00 UTC that begins t's week.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// Streak counts consecutive weeks with at least one publication, ending at
// now's week. An empty current week does not break the streak; counting
// then starts from the week before.
func Streak(projects []project.VideoProject, now time.Time) int {
	weeks := publishedWeeks(projects)
	if len(weeks) == 0 {
		return 0
	}
	cursor := WeekStart(now)
	if weeks[cursor] == 0 {
		cursor = cursor.AddDate(0, 0, -7)
	}
	streak := 0
	for weeks[cursor] > 0 {
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}

// NextUp returns the active project (neither idea nor published) with the
// earliest due date, or nil. Ties keep board order.
func NextUp(projects []project.VideoProject) *project.VideoProject {
	active := make([]project.VideoProject, 0, len(projects))
	for i := range projects {
		switch projects[i].Stage {
		case pipeline.StageIdea, pipeline.StagePublished:
			continue
		}
		if !projects[i].Stage.Valid() {
			continue
		}
		active = append(active, projects[i])
	}
	if len(active) == 0 {
		return nil
	}
	sort.SliceStable(active, func(a, b int) bool {
		return active[a].DueDate.Before(active[b].DueDate)
	})
	next := active[0].Clone()
	return &next
}

// Heatmap returns count weeks of publication activity, oldest first, ending
// with now's week.
func Heatmap(projects []project.VideoProject, now time.Time, count int) []Week {
	if count <= 0 {
		return []Week{}
	}
	weeks := publishedWeeks(projects)
	current := WeekStart(now)
	out := make([]Week, count)
	for i := 0; i < count; i++ {
		start := current.AddDate(0, 0, -7*(count-1-i))
		n := weeks[start]
		out[i] = Week{Start: start, Count: n, Intensity: Intensity(n)}
	}
	return out
}

// Intensity buckets a weekly count into 0..MaxIntensity.
func Intensity(count int) int {
	switch {
	case count <= 0:
		return 0
	case count >= MaxIntensity:
		return MaxIntensity
	default:
		return count
	}
}

func publishedWeeks(projects []project.VideoProject) map[time.Time]int {
	weeks := map[time.Time]int{}
	for i := range projects {
		p := projects[i]
		if p.Stage != pipeline.StagePublished || p.PublishedAt == nil {
			continue
		}
		weeks[WeekStart(*p.PublishedAt)]++
	}
	return weeks
}
