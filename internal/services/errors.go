package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrSynthesis        = errors.New("synthesis error")
	ErrActionSequence   = errors.New("action sequence error")
	ErrMissingRecording = errors.New("missing recording")
	ErrIO               = errors.New("io error")
	ErrExternalTool     = errors.New("external tool error")
)

// Exit codes reported by the CLI for each failure class.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitConfiguration    = 2
	ExitSynthesis        = 3
	ExitActionSequence   = 4
	ExitMissingRecording = 5
	ExitIO               = 6
)

// Wrap builds an error message that includes step context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrSynthesis):
		return ExitSynthesis
	case errors.Is(err, ErrActionSequence):
		return ExitActionSequence
	case errors.Is(err, ErrMissingRecording):
		return ExitMissingRecording
	case errors.Is(err, ErrIO):
		return ExitIO
	default:
		return ExitFailure
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "run failure"
	}
	return strings.Join(parts, ": ")
}
