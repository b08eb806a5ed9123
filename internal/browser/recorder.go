package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"walkthrough/internal/config"
	"walkthrough/internal/logging"
	"walkthrough/internal/services"
)

// Options controls how the browser is launched and recorded.
type Options struct {
	Headless      bool
	Install       bool
	SlowMo        time.Duration
	Width         int
	Height        int
	ActionTimeout time.Duration
}

// OptionsFromConfig extracts browser options from the [browser] section.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return Options{
		Headless:      cfg.Browser.Headless,
		Install:       cfg.Browser.Install,
		SlowMo:        cfg.SlowMo(),
		Width:         cfg.Browser.ViewportWidth,
		Height:        cfg.Browser.ViewportHeight,
		ActionTimeout: time.Duration(cfg.Browser.ActionTimeoutMS) * time.Millisecond,
	}
}

// Session is a live recorded browser page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *slog.Logger
}

// Page returns the page being recorded.
func (s *Session) Page() playwright.Page {
	return s.page
}

// Close shuts the page, context and browser down. The recording is only
// complete on disk once the context has closed.
func (s *Session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return services.Wrap(services.ErrExternalTool, "browser", "close session", "", err)
	}
	s.logger.Debug("browser session closed")
	return nil
}

// Recorder starts recorded browser sessions.
type Recorder struct {
	opts   Options
	logger *slog.Logger
}

// NewRecorder constructs a recorder.
func NewRecorder(opts Options, logger *slog.Logger) *Recorder {
	return &Recorder{opts: opts, logger: logging.NewComponentLogger(logger, "browser")}
}

// Start launches Chromium recording video into videoDir and opens a page.
func (r *Recorder) Start(ctx context.Context, videoDir string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if r.opts.Install {
		r.logger.Info("installing playwright browsers", logging.String(logging.FieldEventType, "browser_install"))
		if err := playwright.Install(runOpts); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "browser", "install", "playwright install failed", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "browser", "start", "playwright driver unavailable", err)
	}
	session := &Session{pw: pw, logger: r.logger}

	session.browser, err = pw.Chromium.Launch(launchOptions(r.opts))
	if err != nil {
		_ = session.Close()
		return nil, services.Wrap(services.ErrExternalTool, "browser", "launch", "chromium", err)
	}
	session.context, err = session.browser.NewContext(contextOptions(r.opts, videoDir))
	if err != nil {
		_ = session.Close()
		return nil, services.Wrap(services.ErrExternalTool, "browser", "new context", "", err)
	}
	session.page, err = session.context.NewPage()
	if err != nil {
		_ = session.Close()
		return nil, services.Wrap(services.ErrExternalTool, "browser", "new page", "", err)
	}
	if r.opts.ActionTimeout > 0 {
		session.page.SetDefaultTimeout(float64(r.opts.ActionTimeout.Milliseconds()))
	}

	r.logger.Info("browser recording started",
		logging.String(logging.FieldEventType, "recording_started"),
		logging.String("video_dir", videoDir),
		logging.Bool("headless", r.opts.Headless),
		logging.Duration("slow_mo", r.opts.SlowMo),
		logging.Int("width", r.opts.Width),
		logging.Int("height", r.opts.Height),
	)
	return session, nil
}

func launchOptions(opts Options) playwright.BrowserTypeLaunchOptions {
	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	return launch
}

// contextOptions records video at the viewport size so the tutorial is not
// scaled.
func contextOptions(opts Options, videoDir string) playwright.BrowserNewContextOptions {
	size := &playwright.Size{Width: opts.Width, Height: opts.Height}
	return playwright.BrowserNewContextOptions{
		Viewport: size,
		RecordVideo: &playwright.RecordVideo{
			Dir:  videoDir,
			Size: size,
		},
	}
}
