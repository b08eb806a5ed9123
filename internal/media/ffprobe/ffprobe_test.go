package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "44100", "channels": 1}
  ],
  "format": {"filename": "tutorial.mp4", "nb_streams": 2, "duration": "42.500000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
}`

func TestInspectDecodesOutput(t *testing.T) {
	p := NewProber("")
	var gotName string
	var gotArgs []string
	p.WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte(sampleOutput), nil
	})

	result, err := p.Inspect(context.Background(), "tutorial.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if gotName != DefaultBinary {
		t.Fatalf("binary = %q", gotName)
	}
	if gotArgs[len(gotArgs)-1] != "tutorial.mp4" || gotArgs[len(gotArgs)-2] != "--" {
		t.Fatalf("path not passed after --: %v", gotArgs)
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: video=%d audio=%d", result.VideoStreamCount(), result.AudioStreamCount())
	}
	if result.DurationSeconds() != 42.5 {
		t.Fatalf("duration = %v", result.DurationSeconds())
	}
}

func TestInspectErrors(t *testing.T) {
	p := NewProber("ffprobe")
	if _, err := p.Inspect(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}

	p.WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1: moov atom not found")
	})
	if _, err := p.Inspect(context.Background(), "broken.mp4"); err == nil {
		t.Fatal("expected runner error")
	}

	p.WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("not json"), nil
	})
	if _, err := p.Inspect(context.Background(), "broken.mp4"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResultCheck(t *testing.T) {
	videoOnly := Result{Streams: []Stream{{CodecType: "video"}}}
	both := Result{Streams: []Stream{{CodecType: "video"}, {CodecType: "audio"}}}
	audioOnly := Result{Streams: []Stream{{CodecType: "audio"}}}

	if err := videoOnly.Check(false); err != nil {
		t.Fatalf("video only without audio expectation: %v", err)
	}
	if err := videoOnly.Check(true); err == nil {
		t.Fatal("expected missing audio error")
	}
	if err := both.Check(true); err != nil {
		t.Fatalf("video+audio: %v", err)
	}
	if err := audioOnly.Check(false); err == nil {
		t.Fatal("expected missing video error")
	}
}

func TestDurationSecondsInvalid(t *testing.T) {
	if got := (Result{}).DurationSeconds(); got != 0 {
		t.Fatalf("empty duration = %v", got)
	}
	if got := (Result{Format: Format{Duration: "bad"}}).DurationSeconds(); !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}
