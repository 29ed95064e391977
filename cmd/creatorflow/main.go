package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kingrea/creatorflow/internal/board"
	"github.com/kingrea/creatorflow/internal/config"
	"github.com/kingrea/creatorflow/internal/pipeline"
	"github.com/kingrea/creatorflow/internal/project"
	"github.com/kingrea/creatorflow/internal/stats"
	"github.com/kingrea/creatorflow/internal/store"
	"github.com/kingrea/creatorflow/internal/tui"
	"github.com/kingrea/creatorflow/internal/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "creatorflow: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	home string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "creatorflow",
		Short: "Kanban board for video production",
		Long: "CreatorFlow tracks video projects from idea to published. " +
			"Run without a subcommand to open the board.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.home, "home", "", "CreatorFlow home directory (default ~/.creatorflow)")

	cmd.AddCommand(
		newBoardCommand(opts),
		newListCommand(opts),
		newNewCommand(opts),
		newMoveCommand(opts),
		newDeleteCommand(opts),
		newStatsCommand(opts),
		newStorageCommand(opts),
	)
	return cmd
}

func (o *rootOptions) open(ctx context.Context) (*workspace.Workspace, error) {
	home := o.home
	if home == "" {
		var err error
		home, err = config.DefaultHome()
		if err != nil {
			return nil, err
		}
	}
	return workspace.Open(ctx, home)
}

func newBoardCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.Context(), opts)
		},
	}
}

func runBoard(ctx context.Context, opts *rootOptions) error {
	ws, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	app, err := tui.NewApp(ws)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	return nil
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var stageFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print projects grouped by stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := pipeline.StageUnknown
			if stageFlag != "" {
				stage, err := pipeline.ParseStage(stageFlag)
				if err != nil {
					return err
				}
				filter = stage
			}
			ws, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			warnLoad(cmd.ErrOrStderr(), ws)
			return printColumns(cmd.OutOrStdout(), ws.Board.Columns(), filter, ws)
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "only list one stage (e.g. SCRIPTING)")
	return cmd
}

func printColumns(out io.Writer, cols board.Columns, filter pipeline.Stage, ws *workspace.Workspace) error {
	now := ws.Now()
	rows := make([][]string, 0, cols.Len())
	for _, stage := range pipeline.StagesInOrder() {
		if filter.Valid() && stage != filter {
			continue
		}
		for _, p := range cols[stage] {
			rows = append(rows, []string{
				shortID(p.ID),
				stage.Label(),
				p.Title,
				dueText(p, now),
				strconv.Itoa(project.CompletionPercentage(p.Checklist)) + "%",
			})
		}
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "No projects yet. Create one with `creatorflow new <title>`.")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STAGE", "TITLE", "DUE", "DONE").
		Rows(rows...)
	_, err := fmt.Fprintln(out, t.String())
	return err
}

func newNewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "new <title>",
		Short: "Add a project to the Idea column",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			if err := ws.Board.ReadOnly(); err != nil {
				return err
			}
			p := ws.Board.Create(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", shortID(p.ID), p.Title)
			return nil
		},
	}
}

func newMoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <stage> [index]",
		Short: "Move a project to a stage, optionally at a position",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := pipeline.ParseStage(args[1])
			if err != nil {
				return err
			}
			index := -1
			if len(args) == 3 {
				index, err = strconv.Atoi(args[2])
				if err != nil || index < 0 {
					return fmt.Errorf("index must be a non-negative integer, got %q", args[2])
				}
			}

			ws, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			if err := ws.Board.ReadOnly(); err != nil {
				return err
			}
			p, err := resolveProject(ws.Board, args[0])
			if err != nil {
				return err
			}
			if index >= 0 {
				if err := checkIndex(ws.Board.Columns(), p, stage, index); err != nil {
					return err
				}
			}

			var outcome board.Outcome
			if index < 0 {
				outcome = ws.Board.MoveToEnd(cmd.Context(), p.ID, stage)
			} else {
				outcome = ws.Board.Move(cmd.Context(), p.ID, stage, index)
			}
			out := cmd.OutOrStdout()
			if !outcome.Changed {
				fmt.Fprintf(out, "%q is already there\n", p.Title)
				return nil
			}
			fmt.Fprintf(out, "%q %s → %s\n", p.Title, outcome.From.Stage.Label(), outcome.To.Stage.Label())
			if outcome.To.Stage == pipeline.StagePublished && outcome.From.Stage != pipeline.StagePublished {
				fmt.Fprintf(out, "%q is live! Great job!\n", p.Title)
			}
			return nil
		},
	}
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			if err := ws.Board.ReadOnly(); err != nil {
				return err
			}
			p, err := resolveProject(ws.Board, args[0])
			if err != nil {
				return err
			}
			if err := ws.Board.Delete(cmd.Context(), p.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", p.Title)
			return nil
		},
	}
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print streak, next deadline, and publish totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			warnLoad(cmd.ErrOrStderr(), ws)

			now := ws.Now()
			projects := ws.Board.Projects()
			summary := stats.Summarize(projects, now)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Streak:    %d week(s)\n", summary.Streak)
			if summary.NextUp != nil {
				fmt.Fprintf(out, "Next up:   %s (due %s)\n", summary.NextUp.Title,
					humanize.RelTime(summary.NextUp.DueDate, now, "ago", "from now"))
			} else {
				fmt.Fprintln(out, "Next up:   No active deadlines. Relax!")
			}
			fmt.Fprintf(out, "Published: %d\n", summary.TotalPublished)

			var sb strings.Builder
			for _, week := range stats.Heatmap(projects, now, stats.HeatmapWeeks) {
				sb.WriteString(heatGlyphs[week.Intensity])
			}
			fmt.Fprintf(out, "Uploads:   %s\n", sb.String())
			return nil
		},
	}
}

func newStorageCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "storage [file|sqlite]",
		Short: "Show or switch the storage backend",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, store.Describe(ws.Config))
				return nil
			}
			if err := ws.Config.SetStorageDriver(args[0]); err != nil {
				return err
			}
			ws.Log.Info("Storage switched to %s", store.Describe(ws.Config))
			fmt.Fprintf(out, "Storage set to %s. Existing projects are not migrated.\n", store.Describe(ws.Config))
			return nil
		},
	}
}

var heatGlyphs = [stats.MaxIntensity + 1]string{"·", "░", "▒", "█"}

// resolveProject accepts a full id or a unique prefix of one.
func resolveProject(b *board.Board, ref string) (project.VideoProject, error) {
	ref = strings.TrimSpace(ref)
	if p, ok := b.Get(ref); ok {
		return p, nil
	}
	var matches []project.VideoProject
	for _, p := range b.Projects() {
		if ref != "" && strings.HasPrefix(p.ID, ref) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return project.VideoProject{}, fmt.Errorf("%w: %q", board.ErrUnknownProject, ref)
	default:
		return project.VideoProject{}, fmt.Errorf("id prefix %q matches %d projects", ref, len(matches))
	}
}

// checkIndex rejects positions the board would ignore: a reorder needs an
// existing slot, a move into another column may also append.
func checkIndex(cols board.Columns, p project.VideoProject, stage pipeline.Stage, index int) error {
	limit := len(cols[stage])
	if p.Stage != stage {
		limit++
	}
	if index >= limit {
		return fmt.Errorf("index %d out of range: %s has room for positions 0-%d", index, stage.Label(), limit-1)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dueText(p project.VideoProject, now time.Time) string {
	switch {
	case p.PublishedAt != nil:
		return "live " + humanize.RelTime(*p.PublishedAt, now, "ago", "from now")
	case p.DueDate.IsZero():
		return "-"
	default:
		return humanize.RelTime(p.DueDate, now, "ago", "from now")
	}
}

func warnLoad(out io.Writer, ws *workspace.Workspace) {
	if ws.LogErr != nil {
		fmt.Fprintf(out, "warning: log file unavailable: %v\n", ws.LogErr)
	}
	if ws.LoadErr != nil {
		fmt.Fprintf(out, "warning: could not load saved projects: %v\n", ws.LoadErr)
	}
}
