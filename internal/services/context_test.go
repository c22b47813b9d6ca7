package services_test

import (
	"context"
	"testing"

	"scribe/internal/services"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id on fresh context")
	}

	ctx = services.WithRunID(ctx, "20260102_150405")
	ctx = services.WithJobOrdinal(ctx, 3)
	ctx = services.WithSource(ctx, "/audio/a.wav")
	ctx = services.WithRequestID(ctx, "req-1")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "20260102_150405" {
		t.Fatalf("run id = %q, %v", id, ok)
	}
	if ord, ok := services.JobOrdinalFromContext(ctx); !ok || ord != 3 {
		t.Fatalf("job ordinal = %d, %v", ord, ok)
	}
	if src, ok := services.SourceFromContext(ctx); !ok || src != "/audio/a.wav" {
		t.Fatalf("source = %q, %v", src, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-1" {
		t.Fatalf("request id = %q, %v", rid, ok)
	}
}

func TestWithEmptyValuesAreNoops(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithSource(ctx, "")
	ctx = services.WithRequestID(ctx, "")

	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("empty run id should not be stored")
	}
	if _, ok := services.SourceFromContext(ctx); ok {
		t.Fatal("empty source should not be stored")
	}
	if _, ok := services.RequestIDFromContext(ctx); ok {
		t.Fatal("empty request id should not be stored")
	}
}
