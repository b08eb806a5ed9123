package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"walkthrough/internal/logging"
	"walkthrough/internal/services"
)

const (
	coquiTTSEndpoint     = "/api/tts"
	coquiDetailsEndpoint = "/details"
	coquiDefaultTime     = 120 * time.Second
	coquiDetailsTimeout  = 5 * time.Second
)

// CoquiOption configures a CoquiSynthesizer.
type CoquiOption func(*CoquiSynthesizer)

// WithSpeaker selects a speaker for multi-speaker models.
func WithSpeaker(speaker string) CoquiOption {
	return func(c *CoquiSynthesizer) { c.speaker = strings.TrimSpace(speaker) }
}

// WithLanguage sets the language id sent with every request.
func WithLanguage(lang string) CoquiOption {
	return func(c *CoquiSynthesizer) { c.language = strings.TrimSpace(lang) }
}

// WithTimeout bounds a single synthesis request.
func WithTimeout(d time.Duration) CoquiOption {
	return func(c *CoquiSynthesizer) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) CoquiOption {
	return func(c *CoquiSynthesizer) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCoquiLogger sets the logger used for request diagnostics.
func WithCoquiLogger(logger *slog.Logger) CoquiOption {
	return func(c *CoquiSynthesizer) { c.logger = logging.NewComponentLogger(logger, "coqui") }
}

// CoquiSynthesizer targets a locally running Coqui TTS server.
type CoquiSynthesizer struct {
	serverURL  string
	model      string
	speaker    string
	language   string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewCoqui constructs a Coqui backend for the server at serverURL. model names
// the voice model the server is expected to serve.
func NewCoqui(serverURL, model string, opts ...CoquiOption) (*CoquiSynthesizer, error) {
	c := &CoquiSynthesizer{
		serverURL:  strings.TrimRight(strings.TrimSpace(serverURL), "/"),
		model:      strings.TrimSpace(model),
		httpClient: &http.Client{Timeout: coquiDefaultTime},
		logger:     logging.NewComponentLogger(nil, "coqui"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Name reports the backend identifier.
func (c *CoquiSynthesizer) Name() string { return "coqui" }

// Preflight checks the local settings, then asks the server which model it
// serves. The server loads one model at startup, so a served model other
// than the configured one is a configuration error.
func (c *CoquiSynthesizer) Preflight(ctx context.Context) error {
	if err := c.validate(); err != nil {
		return err
	}
	served, err := c.servedModel(ctx)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "speech", "coqui preflight",
			"query "+coquiDetailsEndpoint, err)
	}
	if served == "" {
		logging.WarnWithContext(c.logger, "coqui server did not report its model", "coqui_model_unknown",
			logging.String("configured", c.model),
		)
		return nil
	}
	if !ModelMatches(served, c.model) {
		return services.Wrap(services.ErrConfiguration, "speech", "coqui preflight",
			fmt.Sprintf("server serves model %q, configured %q", served, c.model), nil)
	}
	return nil
}

func (c *CoquiSynthesizer) validate() error {
	if c.model == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "coqui preflight", "model is empty", nil)
	}
	if looksLikeModelPath(c.model) {
		if _, err := os.Stat(c.model); err != nil {
			return services.Wrap(services.ErrConfiguration, "speech", "coqui preflight",
				fmt.Sprintf("model %q not found", c.model), err)
		}
	}
	parsed, err := url.Parse(c.serverURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return services.Wrap(services.ErrConfiguration, "speech", "coqui preflight",
			fmt.Sprintf("invalid server url %q", c.serverURL), err)
	}
	return nil
}

// servedModel returns the model_name reported by the server, or "" when the
// response carries none.
func (c *CoquiSynthesizer) servedModel(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, coquiDetailsTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+coquiDetailsEndpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var details struct {
		ModelName string `json:"model_name"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&details); err != nil {
		return "", nil
	}
	return strings.TrimSpace(details.ModelName), nil
}

// ModelMatches reports whether the model a Coqui server reports serving is
// the configured one. Catalogue names compare by full name or trailing path
// segments; model files compare by file name.
func ModelMatches(served, configured string) bool {
	served = normalizeModelName(served)
	configured = normalizeModelName(configured)
	if served == "" || configured == "" {
		return false
	}
	if served == configured {
		return true
	}
	if strings.HasSuffix(served, "/"+configured) || strings.HasSuffix(configured, "/"+served) {
		return true
	}
	return false
}

func normalizeModelName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimRight(filepath.ToSlash(name), "/")
	return name
}

// Synthesize requests speech for text and writes the WAV response to outputPath.
func (c *CoquiSynthesizer) Synthesize(ctx context.Context, text, outputPath string) (Result, error) {
	params := url.Values{}
	params.Set("text", text)
	if c.speaker != "" {
		params.Set("speaker_id", c.speaker)
	}
	if c.language != "" {
		params.Set("language_id", c.language)
	}

	reqURL := c.serverURL + coquiTTSEndpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "coqui", "create request", err)
	}
	req.Header.Set("Accept", "audio/wav")

	started := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "coqui", "GET "+coquiTTSEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "coqui",
			fmt.Sprintf("GET %s returned status %d: %s", coquiTTSEndpoint, resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	if err := writeResponse(resp.Body, outputPath); err != nil {
		return Result{}, services.Wrap(services.ErrSynthesis, "speech", "coqui", "write clip", err)
	}
	finished := c.now()
	c.logger.Debug("coqui clip written",
		logging.String("path", outputPath),
		logging.Duration("latency", finished.Sub(started)),
	)
	return finishClip(outputPath, started, finished)
}

func writeResponse(body io.Reader, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		_ = os.Remove(outputPath)
		return err
	}
	return file.Close()
}

// looksLikeModelPath separates file paths from catalogue names such as
// tts_models/de/thorsten/vits, which also contain slashes.
func looksLikeModelPath(model string) bool {
	return filepath.IsAbs(model) || strings.HasPrefix(model, "./") || strings.HasPrefix(model, "../")
}
