package run

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/assembly"
	"walkthrough/internal/config"
	"walkthrough/internal/history"
	"walkthrough/internal/services"
	"walkthrough/internal/speech"
	"walkthrough/internal/tutorial"
)

type virtualTime struct {
	now time.Time
}

func newVirtualTime() *virtualTime {
	return &virtualTime{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (v *virtualTime) Now() time.Time { return v.now }

func (v *virtualTime) Sleep(_ context.Context, d time.Duration) error {
	v.now = v.now.Add(d)
	return nil
}

type fakeSynth struct {
	duration     time.Duration
	err          error
	preflightErr error
	calls        int
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Preflight(context.Context) error { return f.preflightErr }

func (f *fakeSynth) Synthesize(_ context.Context, _ string, outputPath string) (speech.Result, error) {
	f.calls++
	if f.err != nil {
		return speech.Result{}, f.err
	}
	if err := writeWAV(outputPath, f.duration); err != nil {
		return speech.Result{}, err
	}
	return speech.Result{Duration: f.duration}, nil
}

type fakeSession struct {
	closed bool
}

func (s *fakeSession) Page() playwright.Page { return nil }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeRecorder struct {
	session *fakeSession
	err     error
	dir     string
}

func (r *fakeRecorder) Start(_ context.Context, videoDir string) (Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.dir = videoDir
	if err := os.WriteFile(filepath.Join(videoDir, "page-1.webm"), []byte("webm"), 0o644); err != nil {
		return nil, err
	}
	r.session = &fakeSession{}
	return r.session, nil
}

type fakeAssembler struct {
	cfg            *config.Config
	err            error
	called         bool
	workspaceExist bool
}

func (a *fakeAssembler) Assemble(_ context.Context, src assembly.Source, start time.Time, outputPath string) (assembly.Result, error) {
	a.called = true
	if a.err != nil {
		return assembly.Result{}, a.err
	}
	video, err := src.Recording()
	if err != nil {
		return assembly.Result{}, err
	}
	if _, err := os.Stat(video); err == nil {
		a.workspaceExist = true
	}
	clips, err := src.Clips()
	if err != nil {
		return assembly.Result{}, err
	}
	window := assembly.Window{Start: start, Video: video}
	return assembly.Result{
		OutputPath: outputPath,
		Window:     window,
		Placements: assembly.New(a.cfg, nil).Place(window, clips),
	}, nil
}

type fakeHistory struct {
	runs []history.Run
}

func (h *fakeHistory) Record(_ context.Context, run history.Run) error {
	h.runs = append(h.runs, run)
	return nil
}

type fixture struct {
	cfg       *config.Config
	clock     *virtualTime
	synth     *fakeSynth
	recorder  *fakeRecorder
	assembler *fakeAssembler
	history   *fakeHistory
	runner    *Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(dir, "tmp")
	cfg.Paths.OutputFile = filepath.Join(dir, "out", "tutorial.mp4")
	cfg.Paths.StateDir = filepath.Join(dir, "state")
	cfg.Paths.TranslationFile = ""

	f := &fixture{
		cfg:       &cfg,
		clock:     newVirtualTime(),
		synth:     &fakeSynth{duration: 2 * time.Second},
		recorder:  &fakeRecorder{},
		assembler: &fakeAssembler{cfg: &cfg},
		history:   &fakeHistory{},
	}
	f.runner = NewRunner(f.cfg, f.synth, f.recorder, f.assembler, nil)
	f.runner.WithClock(f.clock.Now)
	f.runner.WithSleep(f.clock.Sleep)
	f.runner.WithIDGenerator(func() string { return "run-1" })
	f.runner.WithHistory(f.history)
	return f
}

func (f *fixture) assertWorkspaceRemoved(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(f.cfg.Paths.WorkspaceDir); !os.IsNotExist(err) {
		t.Fatalf("workspace should be removed, stat err = %v", err)
	}
	if _, err := os.Stat(f.cfg.Paths.WorkspaceDir + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("workspace lock should be removed, stat err = %v", err)
	}
}

func TestRunSuccessPlacesClipsAndRemovesWorkspace(t *testing.T) {
	f := newFixture(t)
	script := Script{Name: "unit", Run: func(ctx context.Context, tut *tutorial.Tutorial) error {
		if err := tut.Narrate(ctx, "first", true); err != nil {
			return err
		}
		if err := tut.Pause(ctx, 0); err != nil {
			return err
		}
		return tut.Narrate(ctx, "second", true)
	}}

	report := f.runner.Run(context.Background(), script)
	if report.Err != nil {
		t.Fatalf("Run: %v", report.Err)
	}
	if report.RunID != "run-1" || report.State != StateCleanedUp {
		t.Fatalf("unexpected report identity: %+v", report)
	}
	if len(report.Clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(report.Clips))
	}
	if report.Clips[0].End().After(report.Clips[1].Start) {
		t.Fatalf("clips overlap: %v ends after %v", report.Clips[0].End(), report.Clips[1].Start)
	}
	placements := report.Result.Placements
	if len(placements) != 2 || placements[0].Offset != 0 || placements[1].Offset != 2*time.Second {
		t.Fatalf("unexpected placements: %+v", placements)
	}
	if !f.assembler.workspaceExist {
		t.Fatal("assembler should see the recording before cleanup")
	}
	if !f.recorder.session.closed {
		t.Fatal("session should be closed")
	}
	f.assertWorkspaceRemoved(t)

	if len(f.history.runs) != 1 {
		t.Fatalf("expected one history record, got %d", len(f.history.runs))
	}
	recorded := f.history.runs[0]
	if recorded.Status != history.StatusSucceeded || len(recorded.Clips) != 2 {
		t.Fatalf("unexpected history record: %+v", recorded)
	}
	if recorded.Clips[1].Offset != 2*time.Second || recorded.Clips[1].Text != "second" {
		t.Fatalf("unexpected history clip: %+v", recorded.Clips[1])
	}
}

func TestRunWaitsForTrailingNarration(t *testing.T) {
	f := newFixture(t)
	script := Script{Name: "trailing", Run: func(ctx context.Context, tut *tutorial.Tutorial) error {
		return tut.Narrate(ctx, "closing remark", false)
	}}

	started := f.clock.Now()
	report := f.runner.Run(context.Background(), script)
	if report.Err != nil {
		t.Fatalf("Run: %v", report.Err)
	}
	if got := f.clock.Now().Sub(started); got < 2*time.Second {
		t.Fatalf("session closed before narration ended, elapsed %v", got)
	}
}

func TestRunScriptFailureStillCleansUp(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("element not found")
	script := Script{Name: "broken", Run: func(ctx context.Context, tut *tutorial.Tutorial) error {
		if err := tut.Narrate(ctx, "about to fail", true); err != nil {
			return err
		}
		return boom
	}}

	report := f.runner.Run(context.Background(), script)
	if !errors.Is(report.Err, services.ErrActionSequence) || !errors.Is(report.Err, boom) {
		t.Fatalf("expected wrapped action sequence error, got %v", report.Err)
	}
	if services.ExitCode(report.Err) != services.ExitActionSequence {
		t.Fatalf("unexpected exit code %d", services.ExitCode(report.Err))
	}
	if f.assembler.called {
		t.Fatal("assembler should not run after script failure")
	}
	if !f.recorder.session.closed {
		t.Fatal("session should be closed after script failure")
	}
	f.assertWorkspaceRemoved(t)
	if len(f.history.runs) != 1 || f.history.runs[0].Status != history.StatusFailed {
		t.Fatalf("expected failed history record, got %+v", f.history.runs)
	}
	if len(f.history.runs[0].Clips) != 1 {
		t.Fatalf("failed run should still record its clips, got %+v", f.history.runs[0].Clips)
	}
}

func TestRunSynthesisErrorKeepsClass(t *testing.T) {
	f := newFixture(t)
	f.synth.err = services.Wrap(services.ErrSynthesis, "speech", "fake", "backend down", nil)
	script := Script{Name: "speech", Run: func(ctx context.Context, tut *tutorial.Tutorial) error {
		return tut.Narrate(ctx, "hello", true)
	}}

	report := f.runner.Run(context.Background(), script)
	if services.ExitCode(report.Err) != services.ExitSynthesis {
		t.Fatalf("expected synthesis exit code, got %v", report.Err)
	}
	f.assertWorkspaceRemoved(t)
}

func TestRunPreflightFailureSkipsWorkspace(t *testing.T) {
	f := newFixture(t)
	f.synth.preflightErr = services.Wrap(services.ErrConfiguration, "speech", "preflight", "model missing", nil)

	report := f.runner.Run(context.Background(), Script{Name: "x", Run: func(context.Context, *tutorial.Tutorial) error { return nil }})
	if !errors.Is(report.Err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", report.Err)
	}
	if report.State != StateIdle {
		t.Fatalf("expected idle state, got %s", report.State)
	}
	if f.recorder.dir != "" {
		t.Fatal("recorder should not start")
	}
	if _, err := os.Stat(f.cfg.Paths.WorkspaceDir); !os.IsNotExist(err) {
		t.Fatal("workspace should never be created")
	}
}

func TestRunMissingTranslationFileIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.TranslationFile = filepath.Join(t.TempDir(), "absent.json")

	report := f.runner.Run(context.Background(), Script{Name: "x", Run: func(context.Context, *tutorial.Tutorial) error { return nil }})
	if services.ExitCode(report.Err) != services.ExitConfiguration {
		t.Fatalf("expected configuration exit code, got %v", report.Err)
	}
}

func TestRunRecorderAndAssemblerFailuresCleanUp(t *testing.T) {
	t.Run("recorder", func(t *testing.T) {
		f := newFixture(t)
		f.recorder.err = services.Wrap(services.ErrExternalTool, "browser", "launch", "", errors.New("no chromium"))
		report := f.runner.Run(context.Background(), Script{Name: "x", Run: func(context.Context, *tutorial.Tutorial) error { return nil }})
		if !errors.Is(report.Err, services.ErrExternalTool) {
			t.Fatalf("expected external tool error, got %v", report.Err)
		}
		if report.State != StateCleanedUp {
			t.Fatalf("expected cleanup state, got %s", report.State)
		}
		f.assertWorkspaceRemoved(t)
	})
	t.Run("assembler", func(t *testing.T) {
		f := newFixture(t)
		f.assembler.err = services.Wrap(services.ErrMissingRecording, "assembly", "discover", "", nil)
		report := f.runner.Run(context.Background(), Script{Name: "x", Run: func(context.Context, *tutorial.Tutorial) error { return nil }})
		if services.ExitCode(report.Err) != services.ExitMissingRecording {
			t.Fatalf("expected missing recording exit code, got %v", report.Err)
		}
		f.assertWorkspaceRemoved(t)
	})
}

func TestRunWithoutScript(t *testing.T) {
	f := newFixture(t)
	report := f.runner.Run(context.Background(), Script{Name: "empty"})
	if !errors.Is(report.Err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", report.Err)
	}
}

func TestHistoryRunDerivesOffsetsWithoutPlacements(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := Report{
		RunID:  "r",
		Window: assembly.Window{Start: start},
		Clips: []speech.Clip{
			{Text: "a", Start: start.Add(1500 * time.Millisecond), Path: "/ws/1.wav"},
			{Text: "b", Start: start.Add(-time.Second), Path: "/ws/2.wav"},
		},
		Err: errors.New("failed"),
	}
	run := historyRun(report)
	if run.Status != history.StatusFailed || run.Error != "failed" {
		t.Fatalf("unexpected status: %+v", run)
	}
	if run.Clips[0].Offset != 1500*time.Millisecond || run.Clips[0].File != "1.wav" {
		t.Fatalf("unexpected first clip: %+v", run.Clips[0])
	}
	if run.Clips[1].Offset != 0 {
		t.Fatalf("negative offset should clamp, got %v", run.Clips[1].Offset)
	}
}

func writeWAV(path string, d time.Duration) error {
	const (
		sampleRate = 8000
		channels   = 1
		bits       = 16
	)
	blockAlign := channels * bits / 8
	dataSize := int(d.Seconds()*sampleRate) * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bits))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
