package run

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/assembly"
	"walkthrough/internal/browser"
	"walkthrough/internal/config"
	"walkthrough/internal/history"
	"walkthrough/internal/logging"
	"walkthrough/internal/narration"
	"walkthrough/internal/script"
	"walkthrough/internal/services"
	"walkthrough/internal/speech"
	"walkthrough/internal/tutorial"
	"walkthrough/internal/workspace"
)

// State names a step of the run state machine.
type State string

// Run states in the order a successful run visits them.
const (
	StateIdle              State = "idle"
	StateWorkspacePrepared State = "workspace_prepared"
	StateRecording         State = "recording"
	StateAssembled         State = "assembled"
	StateCleanedUp         State = "cleaned_up"
)

// Script is a named action sequence.
type Script struct {
	Name string
	Run  script.Func
}

// Session is a recorded page that must be closed to flush the recording.
type Session interface {
	Page() playwright.Page
	Close() error
}

// Recorder starts recorded sessions writing video into a directory.
type Recorder interface {
	Start(ctx context.Context, videoDir string) (Session, error)
}

// Assembler muxes the workspace artifacts into the output video.
type Assembler interface {
	Assemble(ctx context.Context, src assembly.Source, start time.Time, outputPath string) (assembly.Result, error)
}

// HistoryRecorder stores finished runs.
type HistoryRecorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Report summarizes one run. Err is nil only when the tutorial was written.
type Report struct {
	RunID      string
	Script     string
	State      State
	StartedAt  time.Time
	FinishedAt time.Time
	Window     assembly.Window
	Clips      []speech.Clip
	Result     assembly.Result
	Err        error
}

// Runner executes scripts against the configured backends.
type Runner struct {
	cfg       *config.Config
	synth     speech.Synthesizer
	recorder  Recorder
	assembler Assembler
	history   HistoryRecorder
	logger    *slog.Logger
	now       func() time.Time
	sleep     narration.SleepFunc
	newID     func() string
}

// NewRunner wires a runner. The synthesizer, recorder and assembler are
// usually built from cfg by the CLI; tests substitute fakes.
func NewRunner(cfg *config.Config, synth speech.Synthesizer, recorder Recorder, assembler Assembler, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		synth:     synth,
		recorder:  recorder,
		assembler: assembler,
		logger:    logging.NewComponentLogger(logger, "run"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithHistory stores every finished run in h.
func (r *Runner) WithHistory(h HistoryRecorder) {
	r.history = h
}

// WithClock overrides the time source shared by the speech adapter, the
// narration clock and the run report.
func (r *Runner) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// WithSleep overrides the narration wait primitive.
func (r *Runner) WithSleep(sleep narration.SleepFunc) {
	r.sleep = sleep
}

// WithIDGenerator overrides run id generation.
func (r *Runner) WithIDGenerator(fn func() string) {
	if fn != nil {
		r.newID = fn
	}
}

// Run executes s and returns the report. The workspace never outlives the
// call.
func (r *Runner) Run(ctx context.Context, s Script) (report Report) {
	report = Report{
		RunID:     r.newID(),
		Script:    s.Name,
		State:     StateIdle,
		StartedAt: r.now(),
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run starting",
		logging.String("script", s.Name),
		logging.String("engine", r.engineName()),
		logging.String("output", r.cfg.Paths.OutputFile),
		logging.String(logging.FieldEventType, "run_start"),
	)

	defer func() {
		report.FinishedAt = r.now()
		r.finish(ctx, logger, &report)
	}()

	if s.Run == nil {
		report.Err = services.Wrap(services.ErrConfiguration, "run", "script", "no script to run", nil)
		return report
	}
	if err := r.synth.Preflight(ctx); err != nil {
		report.Err = err
		return report
	}
	translator, err := narration.LoadTranslator(r.cfg.Paths.TranslationFile)
	if err != nil {
		report.Err = err
		return report
	}

	ws := workspace.New(r.cfg.Paths.WorkspaceDir, r.cfg.Assembly.RecordingExt, logger)
	if err := ws.Prepare(); err != nil {
		report.Err = err
		return report
	}
	ctx, logger = r.enter(ctx, &report, StateWorkspacePrepared)

	defer func() {
		if err := ws.Remove(); err != nil {
			report.Err = errors.Join(report.Err, err)
		}
		r.enter(ctx, &report, StateCleanedUp)
	}()

	adapter := speech.NewAdapter(r.synth, ws, logger)
	adapter.WithClock(r.now)
	clock := narration.NewClock(adapter, translator, logger)
	clock.WithClock(r.now)
	if r.sleep != nil {
		clock.WithSleep(r.sleep)
	}

	session, err := r.recorder.Start(ctx, ws.Dir())
	if err != nil {
		report.Err = err
		return report
	}
	ctx, logger = r.enter(ctx, &report, StateRecording)

	tut := tutorial.New(session.Page(), clock, r.cfg.HighlightHold(), logger)
	report.Window.Start = r.now()
	scriptErr := s.Run(ctx, tut)
	if scriptErr == nil {
		scriptErr = clock.WaitForActiveNarration(ctx)
	}
	closeErr := session.Close()
	report.Clips = clock.Clips()

	if scriptErr != nil {
		report.Err = errors.Join(classifyScriptError(s.Name, scriptErr), closeErr)
		return report
	}
	if closeErr != nil {
		report.Err = closeErr
		return report
	}

	result, err := r.assembler.Assemble(ctx, ws, report.Window.Start, r.cfg.Paths.OutputFile)
	if err != nil {
		report.Err = err
		return report
	}
	report.Result = result
	report.Window = result.Window
	r.enter(ctx, &report, StateAssembled)
	return report
}

func (r *Runner) enter(ctx context.Context, report *Report, state State) (context.Context, *slog.Logger) {
	previous := report.State
	report.State = state
	ctx = services.WithState(ctx, string(state))
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run state changed",
		logging.String("from", string(previous)),
		logging.String("to", string(state)),
		logging.String(logging.FieldEventType, "run_state"),
	)
	return ctx, logger
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, report *Report) {
	if report.Err != nil {
		logger.Error("run failed",
			logging.String("state", string(report.State)),
			logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
			logging.Error(report.Err),
			logging.String(logging.FieldEventType, "run_failed"),
		)
	} else {
		logger.Info("run complete",
			logging.String("output", report.Result.OutputPath),
			logging.Int("clips", len(report.Clips)),
			logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
			logging.String(logging.FieldEventType, "run_complete"),
		)
	}

	if r.history == nil {
		return
	}
	if err := r.history.Record(context.WithoutCancel(ctx), historyRun(*report)); err != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_record_failed",
			logging.Error(err),
		)
	}
}

func (r *Runner) engineName() string {
	if r.synth == nil {
		return ""
	}
	return r.synth.Name()
}

// classifyScriptError keeps synthesis and configuration failures raised from
// inside a narration step; everything else is an action sequence failure.
func classifyScriptError(name string, err error) error {
	switch {
	case errors.Is(err, services.ErrSynthesis),
		errors.Is(err, services.ErrConfiguration),
		errors.Is(err, services.ErrActionSequence):
		return err
	default:
		return services.Wrap(services.ErrActionSequence, "script", name, "", err)
	}
}

func historyRun(report Report) history.Run {
	run := history.Run{
		ID:           report.RunID,
		Script:       report.Script,
		Status:       history.StatusSucceeded,
		StartedAt:    report.StartedAt,
		FinishedAt:   report.FinishedAt,
		OutputPath:   report.Result.OutputPath,
		VideoSeconds: report.Result.DurationSeconds,
	}
	if report.Err != nil {
		run.Status = history.StatusFailed
		run.Error = report.Err.Error()
	}

	offsets := make(map[string]time.Duration, len(report.Result.Placements))
	for _, p := range report.Result.Placements {
		offsets[p.Path] = p.Offset
	}
	for i, clip := range report.Clips {
		offset, ok := offsets[clip.Path]
		if !ok && !report.Window.Start.IsZero() {
			offset = max(clip.Start.Sub(report.Window.Start), 0)
			offset = time.Duration(math.Round(float64(offset)/float64(time.Millisecond))) * time.Millisecond
		}
		run.Clips = append(run.Clips, history.Clip{
			Position: i,
			File:     filepath.Base(clip.Path),
			Start:    clip.Start,
			Offset:   offset,
			Duration: clip.Duration,
			Latency:  clip.Latency,
			Text:     clip.Text,
		})
	}
	return run
}

// BrowserRecorder adapts a Playwright recorder to the Recorder interface.
func BrowserRecorder(rec *browser.Recorder) Recorder {
	return browserRecorder{rec: rec}
}

type browserRecorder struct {
	rec *browser.Recorder
}

func (b browserRecorder) Start(ctx context.Context, videoDir string) (Session, error) {
	session, err := b.rec.Start(ctx, videoDir)
	if err != nil {
		return nil, err
	}
	return session, nil
}
