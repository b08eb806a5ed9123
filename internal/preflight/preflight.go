package preflight

import (
	"context"

	"walkthrough/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckWritableLocation("Workspace", cfg.Paths.WorkspaceDir),
		CheckWritableLocation("Output", cfg.Paths.OutputFile),
	}
	if cfg.History.Enabled {
		results = append(results, CheckWritableLocation("History", cfg.HistoryPath()))
	}
	if cfg.Paths.TranslationFile != "" {
		results = append(results, CheckFile("Translations", cfg.Paths.TranslationFile))
	}

	switch cfg.Synthesis.Engine {
	case config.EnginePiper:
		results = append(results, CheckFile("Piper model", cfg.Synthesis.Model))
	case config.EngineCoqui:
		results = append(results, CheckCoqui(ctx, cfg.Synthesis.CoquiURL, cfg.Synthesis.Model))
	}
	return results
}
