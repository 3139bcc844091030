package asr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"parley/internal/config"
)

func TestWhisperXBuildArgsCPU(t *testing.T) {
	w := NewWhisperX(config.Transcriber{Model: "small", Language: "en"})
	args := w.buildArgs("/tmp/in.wav", "/tmp/out")

	got := map[string]string{}
	for i := 0; i < len(args)-1; i++ {
		got[args[i]] = args[i+1]
	}
	if got["--model"] != "small" {
		t.Fatalf("expected model small, got %q", got["--model"])
	}
	if got["--language"] != "en" {
		t.Fatalf("expected language en, got %q", got["--language"])
	}
	if got["--device"] != CPUDevice {
		t.Fatalf("expected cpu device, got %q", got["--device"])
	}
	if got["--compute_type"] != CPUComputeType {
		t.Fatalf("expected float32 compute type, got %q", got["--compute_type"])
	}
	if got["--index-url"] != PypiIndexURL {
		t.Fatalf("expected pypi index, got %q", got["--index-url"])
	}
}

func TestWhisperXBuildArgsCUDA(t *testing.T) {
	w := NewWhisperX(config.Transcriber{CUDAEnabled: true})
	args := w.buildArgs("/tmp/in.wav", "/tmp/out")

	foundCUDAIndex := false
	foundDevice := false
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "--index-url" && args[i+1] == CUDAIndexURL {
			foundCUDAIndex = true
		}
		if args[i] == "--device" && args[i+1] == CUDADevice {
			foundDevice = true
		}
		if args[i] == "--model" && args[i+1] != DefaultModel {
			t.Fatalf("expected default model, got %q", args[i+1])
		}
	}
	if !foundCUDAIndex {
		t.Fatal("expected CUDA index url in args")
	}
	if !foundDevice {
		t.Fatal("expected cuda device in args")
	}
}

func TestWhisperXTranscribeParsesOutput(t *testing.T) {
	workDir := t.TempDir()
	wavPath := filepath.Join(workDir, "meeting.wav")
	if err := os.WriteFile(wavPath, []byte("wav"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	payload := `{"segments":[{"text":" Hello there. ","start":0.0,"end":1.4},{"text":"How are you?","start":1.6,"end":2.9}]}`

	w := NewWhisperX(config.Transcriber{})
	var ranCommand string
	w.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		ranCommand = name
		return os.WriteFile(filepath.Join(workDir, "meeting.json"), []byte(payload), 0o644)
	})

	result, err := w.Transcribe(context.Background(), wavPath, workDir)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if ranCommand != UVXCommand {
		t.Fatalf("expected %s invocation, got %q", UVXCommand, ranCommand)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	if result.Segments[0].Text != "Hello there." {
		t.Fatalf("expected trimmed segment text, got %q", result.Segments[0].Text)
	}
	if result.Segments[1].Start != 1.6 || result.Segments[1].End != 2.9 {
		t.Fatalf("unexpected segment timing: %+v", result.Segments[1])
	}
	if result.FullText != "Hello there. How are you?" {
		t.Fatalf("unexpected full text: %q", result.FullText)
	}
}

func TestWhisperXTranscribeRequiresSource(t *testing.T) {
	w := NewWhisperX(config.Transcriber{})
	if _, err := w.Transcribe(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for empty source path")
	}
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Transcriber.Backend = "whisperx"
	rec, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, ok := rec.(*WhisperX); !ok {
		t.Fatalf("expected WhisperX backend, got %T", rec)
	}

	cfg.Transcriber.Backend = "nope"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
