package services_test

import (
	"context"
	"testing"

	"walkthrough/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithState(ctx, "recording")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if state, ok := services.StateFromContext(ctx); !ok || state != "recording" {
		t.Fatalf("unexpected state: %v %v", state, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithState(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StateFromContext(ctx); ok {
		t.Fatal("expected no state")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
}
