package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"walkthrough/internal/deps"
	"walkthrough/internal/preflight"
	"walkthrough/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, paths and the speech backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configSeen {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			} else {
				fmt.Fprintf(out, "Config: defaults (no file at %s)\n", ctx.configPath)
			}
			fmt.Fprintf(out, "Engine: %s (%s)\n\n", cfg.Synthesis.Engine, cfg.Synthesis.Model)

			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			renderDependencyTable(out, statuses)
			fmt.Fprintln(out)

			results := preflight.RunAll(cmd.Context(), cfg)
			renderPreflightTable(out, results)

			if err := deps.Missing(statuses); err != nil {
				return err
			}
			var failed []string
			for _, r := range results {
				if !r.Passed {
					failed = append(failed, r.Name)
				}
			}
			if len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "preflight", fmt.Sprintf("%d check(s) failed: %v", len(failed), failed), nil)
			}
			fmt.Fprintln(out, "\nAll checks passed")
			return nil
		},
	}
}

func renderDependencyTable(out io.Writer, statuses []deps.Status) {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		state := "OK"
		detail := s.Path
		if !s.Available {
			state = "MISSING"
			if s.Optional {
				state = "optional"
			}
			detail = s.Detail
		}
		rows = append(rows, []string{s.Name, state, yesNo(!s.Optional), s.Command, detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Required", "Command", "Detail"}, rows, nil))
}

func renderPreflightTable(out io.Writer, results []preflight.Result) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		state := "OK"
		if !r.Passed {
			state = "FAIL"
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
}
