package telemetry_test

import (
	"context"
	"testing"

	"github.com/BrandonDHaskell/huella/internal/telemetry"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), telemetry.Config{Enabled: true}, "huella-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_NoopWhenDisabled(t *testing.T) {
	cfg := telemetry.Config{Endpoint: "http://localhost:4318", Enabled: false}
	shutdown, err := telemetry.Setup(context.Background(), cfg, "huella-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}

func TestSetup_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export actually happens.
	cfg := telemetry.Config{Endpoint: "http://192.0.2.1:4318", Enabled: true}
	shutdown, err := telemetry.Setup(context.Background(), cfg, "huella-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestTracer_StartsSpan(t *testing.T) {
	_, span := telemetry.Tracer().Start(context.Background(), "check")
	span.End()
}
