package services_test

import (
	"errors"
	"strings"
	"testing"

	"parley/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcribe", "whisperx", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "diarize", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsConfiguration(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "diarize", "preflight", "missing token", nil)
	if !services.IsConfiguration(err) {
		t.Fatalf("expected configuration classification for %v", err)
	}
	if services.IsConfiguration(errors.New("other")) {
		t.Fatal("unexpected configuration classification")
	}
}
