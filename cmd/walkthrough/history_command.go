package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"walkthrough/internal/history"
	"walkthrough/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				runs, err := store.Recent(cmd.Context(), limit)
				if err != nil {
					return services.Wrap(services.ErrIO, "history", "list", "", err)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, []string{
						shortRunID(r.ID),
						r.Script,
						r.Status,
						r.StartedAt.Local().Format("2006-01-02 15:04:05"),
						formatDuration(r.Duration()),
						fmt.Sprintf("%d", r.ClipCount),
						historyOutcome(r),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Script", "Status", "Started", "Took", "Clips", "Output / Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the narration clips of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(cmd.Context(), func(store *history.Store) error {
				run, err := findRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				clips, err := store.Clips(cmd.Context(), run.ID)
				if err != nil {
					return services.Wrap(services.ErrIO, "history", "clips", run.ID, err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:     %s\n", run.ID)
				fmt.Fprintf(out, "Script:  %s\n", run.Script)
				fmt.Fprintf(out, "Status:  %s\n", run.Status)
				fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
				if run.Error != "" {
					fmt.Fprintf(out, "Error:   %s\n", run.Error)
				} else {
					fmt.Fprintf(out, "Output:  %s (%.1fs video)\n", run.OutputPath, run.VideoSeconds)
				}
				if len(clips) == 0 {
					fmt.Fprintln(out, "No narration clips")
					return nil
				}
				rows := make([][]string, 0, len(clips))
				for _, c := range clips {
					rows = append(rows, []string{
						fmt.Sprintf("%d", c.Position+1),
						formatOffset(c.Offset),
						formatOffset(c.Duration),
						formatOffset(c.Latency),
						truncate(c.Text, 60),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"#", "Offset", "Length", "Latency", "Narration"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

// findRun resolves a full or abbreviated run id among the recent runs.
func findRun(ctx context.Context, store *history.Store, id string) (history.Run, error) {
	id = strings.TrimSpace(id)
	runs, err := store.Recent(ctx, 500)
	if err != nil {
		return history.Run{}, services.Wrap(services.ErrIO, "history", "lookup", id, err)
	}
	var matches []history.Run
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
		if id != "" && strings.HasPrefix(r.ID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return history.Run{}, services.Wrap(services.ErrConfiguration, "history", "lookup", fmt.Sprintf("run %q not found", id), nil)
	case 1:
		return matches[0], nil
	default:
		return history.Run{}, services.Wrap(services.ErrConfiguration, "history", "lookup", fmt.Sprintf("run id %q is ambiguous (%d matches)", id, len(matches)), nil)
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func historyOutcome(r history.Run) string {
	if r.Error != "" {
		return truncate(r.Error, 60)
	}
	return r.OutputPath
}
