package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"walkthrough/internal/config"
	"walkthrough/internal/services"
)

func TestCoquiSynthesizeWritesClip(t *testing.T) {
	wav := buildTestWAV(22050, 1, 16, make([]byte, 22050*2*3), nil, 0)
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" {
			http.NotFound(w, r)
			return
		}
		query = map[string]string{
			"text":        r.URL.Query().Get("text"),
			"speaker_id":  r.URL.Query().Get("speaker_id"),
			"language_id": r.URL.Query().Get("language_id"),
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wav)
	}))
	defer srv.Close()

	c, err := NewCoqui(srv.URL+"/", "tts_models/de/thorsten/vits", WithSpeaker("p225"), WithLanguage("de"))
	if err != nil {
		t.Fatalf("NewCoqui: %v", err)
	}
	out := filepath.Join(t.TempDir(), "1700000000.wav")
	result, err := c.Synthesize(context.Background(), "Hallo Welt", out)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.Duration != 3*time.Second {
		t.Fatalf("duration = %v, want 3s", result.Duration)
	}
	if result.Latency < 0 {
		t.Fatalf("negative latency %v", result.Latency)
	}
	if query["text"] != "Hallo Welt" || query["speaker_id"] != "p225" || query["language_id"] != "de" {
		t.Fatalf("unexpected query %v", query)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("clip not written: %v", err)
	}
}

func TestCoquiSynthesizeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewCoqui(srv.URL, "tts_models/en/ljspeech/vits")
	if err != nil {
		t.Fatalf("NewCoqui: %v", err)
	}
	_, err = c.Synthesize(context.Background(), "hi", filepath.Join(t.TempDir(), "out.wav"))
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestCoquiSynthesizeGarbageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not audio</html>"))
	}))
	defer srv.Close()

	c, err := NewCoqui(srv.URL, "tts_models/en/ljspeech/vits")
	if err != nil {
		t.Fatalf("NewCoqui: %v", err)
	}
	_, err = c.Synthesize(context.Background(), "hi", filepath.Join(t.TempDir(), "out.wav"))
	if !errors.Is(err, services.ErrSynthesis) {
		t.Fatalf("expected ErrSynthesis, got %v", err)
	}
}

func TestNewCoquiPreflight(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		model string
	}{
		{name: "empty model", url: "http://localhost:5002", model: ""},
		{name: "missing model file", url: "http://localhost:5002", model: filepath.Join(t.TempDir(), "model.pth")},
		{name: "url without scheme", url: "localhost:5002", model: "tts_models/en/ljspeech/vits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCoqui(tt.url, tt.model)
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestCoquiPreflightComparesServedModel(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		configured string
		wantErr    bool
	}{
		{name: "same model", status: http.StatusOK, body: `{"model_name": "tts_models/de/thorsten/vits"}`, configured: "tts_models/de/thorsten/vits"},
		{name: "different model", status: http.StatusOK, body: `{"model_name": "tts_models/en/ljspeech/vits"}`, configured: "tts_models/de/thorsten/vits", wantErr: true},
		{name: "model not reported", status: http.StatusOK, body: `<html>details</html>`, configured: "tts_models/de/thorsten/vits"},
		{name: "server unavailable", status: http.StatusServiceUnavailable, configured: "tts_models/de/thorsten/vits", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/details" {
					http.NotFound(w, r)
					return
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewCoqui(srv.URL, tt.configured)
			if err != nil {
				t.Fatalf("NewCoqui: %v", err)
			}
			err = c.Preflight(context.Background())
			if tt.wantErr {
				if !errors.Is(err, services.ErrConfiguration) {
					t.Fatalf("expected ErrConfiguration, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Preflight: %v", err)
			}
		})
	}
}

func TestModelMatches(t *testing.T) {
	tests := []struct {
		served     string
		configured string
		want       bool
	}{
		{served: "tts_models/en/ljspeech/vits", configured: "tts_models/en/ljspeech/vits", want: true},
		{served: "tts_models/en/ljspeech/vits", configured: "TTS_Models/en/ljspeech/vits/", want: true},
		{served: "model.pth", configured: "/opt/voices/model.pth", want: true},
		{served: "tts_models/en/ljspeech/vits", configured: "tts_models/de/thorsten/vits", want: false},
		{served: "tts_models/en/ljspeech/vits", configured: "", want: false},
	}
	for _, tt := range tests {
		if got := ModelMatches(tt.served, tt.configured); got != tt.want {
			t.Fatalf("ModelMatches(%q, %q) = %v, want %v", tt.served, tt.configured, got, tt.want)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Synthesis.Model = "tts_models/en/ljspeech/vits"

	synth, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New coqui: %v", err)
	}
	if synth.Name() != "coqui" {
		t.Fatalf("backend = %s, want coqui", synth.Name())
	}

	cfg.Synthesis.Engine = config.EnginePiper
	synth, err = New(&cfg, nil)
	if err != nil {
		t.Fatalf("New piper: %v", err)
	}
	if synth.Name() != "piper" {
		t.Fatalf("backend = %s, want piper", synth.Name())
	}

	cfg.Synthesis.Engine = "espeak"
	if _, err := New(&cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unknown engine, got %v", err)
	}
}
