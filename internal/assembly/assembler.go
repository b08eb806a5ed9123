package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"walkthrough/internal/config"
	"walkthrough/internal/logging"
	"walkthrough/internal/media/ffprobe"
	"walkthrough/internal/services"
	"walkthrough/internal/workspace"
)

// Window anchors the timeline: Start is the moment the script began driving
// the recorded page and Video is the recording file.
type Window struct {
	Start time.Time
	Video string
}

// Placement is a clip positioned on the video timeline.
type Placement struct {
	Path   string
	Start  time.Time
	Offset time.Duration
}

// Result reports the assembled tutorial.
type Result struct {
	OutputPath      string
	Window          Window
	Placements      []Placement
	DurationSeconds float64
}

// Source exposes the session artifacts left in the workspace.
type Source interface {
	Clips() ([]workspace.Clip, error)
	Recording() (string, error)
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// Assembler muxes narration clips onto the screen recording.
type Assembler struct {
	ffmpeg     string
	videoCodec string
	audioCodec string
	prober     *ffprobe.Prober
	run        commandRunner
	logger     *slog.Logger
}

// New constructs an assembler from the [assembly] configuration section.
func New(cfg *config.Config, logger *slog.Logger) *Assembler {
	a := &Assembler{
		ffmpeg:     "ffmpeg",
		videoCodec: "libx264",
		audioCodec: "aac",
		prober:     ffprobe.NewProber(""),
		run:        defaultCommandRunner,
		logger:     logging.NewComponentLogger(logger, "assembly"),
	}
	if cfg != nil {
		if v := strings.TrimSpace(cfg.Assembly.FFmpegBinary); v != "" {
			a.ffmpeg = v
		}
		if v := strings.TrimSpace(cfg.Assembly.VideoCodec); v != "" {
			a.videoCodec = v
		}
		if v := strings.TrimSpace(cfg.Assembly.AudioCodec); v != "" {
			a.audioCodec = v
		}
		a.prober = ffprobe.NewProber(cfg.Assembly.FFprobeBinary)
	}
	return a
}

// WithCommandRunner allows injecting a custom ffmpeg runner for tests.
func (a *Assembler) WithCommandRunner(r commandRunner) {
	if a != nil && r != nil {
		a.run = r
	}
}

// WithProber replaces the output verifier.
func (a *Assembler) WithProber(p *ffprobe.Prober) {
	if a != nil && p != nil {
		a.prober = p
	}
}

// Assemble places every clip in src relative to start and writes the muxed
// tutorial to outputPath.
func (a *Assembler) Assemble(ctx context.Context, src Source, start time.Time, outputPath string) (Result, error) {
	if a == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "assembly", "assemble", "assembler not initialized", nil)
	}
	if strings.TrimSpace(outputPath) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "assembly", "assemble", "output path is required", nil)
	}

	video, err := src.Recording()
	if err != nil {
		return Result{}, err
	}
	clips, err := src.Clips()
	if err != nil {
		return Result{}, err
	}
	window := Window{Start: start, Video: video}
	placements := a.Place(window, clips)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrIO, "assembly", "prepare output", filepath.Dir(outputPath), err)
	}
	tmpPath := partialPath(outputPath)
	args := a.buildArgs(window, placements, tmpPath)

	a.logger.Debug("executing ffmpeg",
		logging.String("recording", filepath.Base(video)),
		logging.Int("clip_count", len(placements)),
		logging.String("args", strings.Join(args, " ")),
	)
	if err := a.run(ctx, a.ffmpeg, args...); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, services.Wrap(services.ErrExternalTool, "assembly", "ffmpeg", "mux failed", err)
	}

	probe, err := a.prober.Inspect(ctx, tmpPath)
	if err == nil {
		err = probe.Check(len(placements) > 0)
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, services.Wrap(services.ErrExternalTool, "assembly", "verify output", "mux produced unusable output", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, services.Wrap(services.ErrIO, "assembly", "finalize output", outputPath, err)
	}

	a.logger.Info("tutorial assembled",
		logging.String(logging.FieldEventType, "assembly_complete"),
		logging.String("output", outputPath),
		logging.Int("clips", len(placements)),
		logging.Float64("duration_seconds", probe.DurationSeconds()),
	)
	return Result{
		OutputPath:      outputPath,
		Window:          window,
		Placements:      placements,
		DurationSeconds: probe.DurationSeconds(),
	}, nil
}

// Place computes each clip's offset into the recording. Offsets are kept at
// millisecond resolution; a clip whose rounded start falls before the window
// is pinned to the beginning.
func (a *Assembler) Place(window Window, clips []workspace.Clip) []Placement {
	placements := make([]Placement, 0, len(clips))
	for _, clip := range clips {
		offset := clip.Start.Sub(window.Start).Round(time.Millisecond)
		if offset < 0 {
			logging.WarnWithContext(a.logger, "clip starts before recording; placing at zero", "clip_offset_clamped",
				logging.String("clip", filepath.Base(clip.Path)),
				logging.Duration("offset", offset),
			)
			offset = 0
		}
		placements = append(placements, Placement{Path: clip.Path, Start: clip.Start, Offset: offset})
	}
	return placements
}

func (a *Assembler) buildArgs(window Window, placements []Placement, outputPath string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", window.Video}
	if len(placements) == 0 {
		return append(args,
			"-map", "0:v",
			"-c:v", a.videoCodec,
			"-an",
			outputPath,
		)
	}
	for _, p := range placements {
		args = append(args, "-i", p.Path)
	}
	return append(args,
		"-filter_complex", narrationFilter(placements),
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", a.videoCodec,
		"-c:a", a.audioCodec,
		"-shortest",
		outputPath,
	)
}

// narrationFilter delays every clip to its offset, mixes them without level
// normalization and pads the result so the audio never ends before the video.
func narrationFilter(placements []Placement) string {
	var b strings.Builder
	labels := make([]string, 0, len(placements))
	for i, p := range placements {
		label := fmt.Sprintf("[a%d]", i)
		fmt.Fprintf(&b, "[%d:a]adelay=%d:all=1%s;", i+1, p.Offset.Milliseconds(), label)
		labels = append(labels, label)
	}
	if len(labels) == 1 {
		b.WriteString(labels[0])
	} else {
		fmt.Fprintf(&b, "%samix=inputs=%d:normalize=0[mix];[mix]", strings.Join(labels, ""), len(labels))
	}
	b.WriteString("apad[aout]")
	return b.String()
}

// partialPath names the temporary sibling the mux is written to. The
// extension is kept so ffmpeg picks the same container.
func partialPath(outputPath string) string {
	dir := filepath.Dir(outputPath)
	base := filepath.Base(outputPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
