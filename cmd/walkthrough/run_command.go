package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"walkthrough/internal/assembly"
	"walkthrough/internal/browser"
	"walkthrough/internal/config"
	"walkthrough/internal/deps"
	"walkthrough/internal/history"
	"walkthrough/internal/logging"
	"walkthrough/internal/run"
	"walkthrough/internal/script"
	"walkthrough/internal/services"
	"walkthrough/internal/speech"
)

type runFlags struct {
	engine          string
	piperPath       string
	model           string
	output          string
	translationFile string
	tmpDir          string
	slowMo          int
	scenario        string
	scriptName      string
	headless        bool
	listScripts     bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [script|scenario.yaml]",
		Short: "Record a narrated tutorial",
		Long: `Run drives a recorded Chromium session through a script, narrating as it
goes, and muxes the narration onto the recording.

The script is either a built-in name (see --list-scripts) or a YAML scenario
file. Command line flags override the configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.listScripts {
				for _, name := range script.BuiltinNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			return executeRun(cmd, ctx, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.engine, "voice-engine", "v", "", "Speech engine: coqui or piper")
	f.StringVarP(&flags.piperPath, "piper", "p", "", "Path to the piper executable")
	f.StringVarP(&flags.model, "model", "m", "", "Coqui model name or piper .onnx voice")
	f.StringVarP(&flags.output, "output", "o", "", "Output video file")
	f.StringVarP(&flags.translationFile, "translation-file", "t", "", "JSON or YAML narration translation table")
	f.StringVar(&flags.tmpDir, "tmp-dir", "", "Workspace directory for clips and the raw recording")
	f.IntVarP(&flags.slowMo, "slowmo", "s", 0, "Milliseconds Playwright waits between actions")
	f.StringVar(&flags.scenario, "scenario", "", "YAML scenario file to run")
	f.StringVar(&flags.scriptName, "script", "", "Built-in script to run")
	f.BoolVar(&flags.headless, "headless", false, "Run Chromium without a window")
	f.BoolVar(&flags.listScripts, "list-scripts", false, "List built-in scripts and exit")

	ctx.overrides = func(cfg *config.Config) {
		applyRunOverrides(cmd, flags, cfg)
	}
	return cmd
}

func applyRunOverrides(cmd *cobra.Command, flags runFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("voice-engine") {
		cfg.Synthesis.Engine = flags.engine
	}
	if changed("piper") {
		cfg.Synthesis.PiperPath = flags.piperPath
	}
	if changed("model") {
		cfg.Synthesis.Model = flags.model
	}
	if changed("output") {
		cfg.Paths.OutputFile = flags.output
	}
	if changed("translation-file") {
		cfg.Paths.TranslationFile = flags.translationFile
	}
	if changed("tmp-dir") {
		cfg.Paths.WorkspaceDir = flags.tmpDir
	}
	if changed("slowmo") {
		cfg.Browser.SlowMoMillis = flags.slowMo
	}
	if changed("headless") {
		cfg.Browser.Headless = flags.headless
	}
}

func executeRun(cmd *cobra.Command, ctx *commandContext, flags runFlags, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "validate", "", err)
	}
	target, err := resolveScript(flags, args)
	if err != nil {
		return err
	}

	logger, err := ctx.logger()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "logging", "init", "", err)
	}
	runID := uuid.NewString()
	logger, logPath, closeLog, err := logging.NewRunLogger(logger, cfg, runID)
	if err != nil {
		return services.Wrap(services.ErrIO, "logging", "open run log", "", err)
	}
	defer func() { _ = closeLog() }()

	if err := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))); err != nil {
		return err
	}
	synth, err := speech.New(cfg, logger)
	if err != nil {
		return err
	}

	recorder := browser.NewRecorder(browser.OptionsFromConfig(cfg), logger)
	runner := run.NewRunner(cfg, synth, run.BrowserRecorder(recorder), assembly.New(cfg, logger), logger)
	runner.WithIDGenerator(func() string { return runID })

	if cfg.History.Enabled {
		store, err := history.Open(cmd.Context(), cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
				logging.String("path", cfg.HistoryPath()),
				logging.Error(err),
			)
		} else {
			defer store.Close()
			runner.WithHistory(store)
		}
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := runner.Run(runCtx, target)
	printRunReport(cmd.OutOrStdout(), report, logPath)
	return report.Err
}

func resolveScript(flags runFlags, args []string) (run.Script, error) {
	scenarioPath := strings.TrimSpace(flags.scenario)
	name := strings.TrimSpace(flags.scriptName)
	if len(args) == 1 {
		arg := strings.TrimSpace(args[0])
		if isScenarioPath(arg) {
			scenarioPath = arg
		} else {
			name = arg
		}
	}
	if scenarioPath != "" && name != "" {
		return run.Script{}, services.Wrap(services.ErrConfiguration, "run", "select script", "give either a scenario file or a built-in script, not both", nil)
	}

	if scenarioPath != "" {
		expanded, err := config.ExpandPath(scenarioPath)
		if err != nil {
			return run.Script{}, services.Wrap(services.ErrConfiguration, "run", "select script", scenarioPath, err)
		}
		scenario, err := script.LoadScenario(expanded)
		if err != nil {
			return run.Script{}, err
		}
		return run.Script{Name: scenario.Name, Run: scenario.Run}, nil
	}

	if name == "" {
		name = "demo"
	}
	fn, ok := script.Builtin(name)
	if !ok {
		return run.Script{}, services.Wrap(services.ErrConfiguration, "run", "select script",
			fmt.Sprintf("unknown script %q (available: %s)", name, strings.Join(script.BuiltinNames(), ", ")), nil)
	}
	return run.Script{Name: name, Run: fn}, nil
}

func isScenarioPath(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
		return true
	}
	if strings.ContainsRune(arg, filepath.Separator) {
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

func printRunReport(out io.Writer, report run.Report, logPath string) {
	fmt.Fprintf(out, "Run:    %s (%s)\n", report.RunID, report.Script)
	fmt.Fprintf(out, "State:  %s\n", report.State)
	if logPath != "" {
		fmt.Fprintf(out, "Log:    %s\n", logPath)
	}
	if report.Err != nil {
		fmt.Fprintf(out, "Result: failed after %s\n", formatDuration(report.FinishedAt.Sub(report.StartedAt)))
		return
	}
	fmt.Fprintf(out, "Output: %s (%.1fs video)\n", report.Result.OutputPath, report.Result.DurationSeconds)
	if len(report.Result.Placements) == 0 {
		fmt.Fprintln(out, "No narration clips were placed.")
		return
	}

	texts := make(map[string]string, len(report.Clips))
	for _, clip := range report.Clips {
		texts[clip.Path] = clip.Text
	}
	rows := make([][]string, 0, len(report.Result.Placements))
	for i, p := range report.Result.Placements {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			formatOffset(p.Offset),
			filepath.Base(p.Path),
			truncate(texts[p.Path], 60),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Offset", "Clip", "Narration"}, rows, []columnAlignment{alignRight, alignRight, alignLeft, alignLeft}))
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(time.Second).String()
}

func truncate(value string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(value), " "))
	if limit <= 0 || len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
