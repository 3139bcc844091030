package media_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"parley/internal/media"
)

func TestNormalizeBuildsFFmpegArgs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "meeting.mp3")
	if err := os.WriteFile(input, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	var gotName string
	var gotArgs []string
	norm := media.NewNormalizer("ffmpeg", 16000)
	norm.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		// Simulate ffmpeg producing the output file.
		return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})

	out, err := norm.Normalize(context.Background(), input, dir, 300)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("unexpected binary: %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, fragment := range []string{"-t 300", "-ac 1", "-ar 16000", "-c:a pcm_s16le"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in args %q", fragment, joined)
		}
	}
	if !strings.HasSuffix(out, "meeting_normalized.wav") {
		t.Fatalf("unexpected output path: %q", out)
	}
}

func TestNormalizeReusesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "talk.wav")
	if err := os.WriteFile(input, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	existing := filepath.Join(dir, "talk_normalized.wav")
	if err := os.WriteFile(existing, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	calls := 0
	norm := media.NewNormalizer("", 0)
	norm.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls++
		return nil
	})

	out, err := norm.Normalize(context.Background(), input, dir, 60)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if out != existing {
		t.Fatalf("expected existing output path, got %q", out)
	}
	if calls != 0 {
		t.Fatalf("ffmpeg must not run when output exists; ran %d times", calls)
	}
}

func TestNormalizeRetriesAfterFailedRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "talk.wav")
	if err := os.WriteFile(input, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	calls := 0
	norm := media.NewNormalizer("ffmpeg", 16000)
	norm.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls++
		if calls == 1 {
			// Die mid-transcode after writing part of the output.
			if err := os.WriteFile(args[len(args)-1], []byte("RI"), 0o644); err != nil {
				t.Fatalf("write partial: %v", err)
			}
			return errors.New("ffmpeg killed")
		}
		return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})

	if _, err := norm.Normalize(context.Background(), input, dir, 60); err == nil {
		t.Fatal("expected error from failed run")
	}
	if _, err := os.Stat(filepath.Join(dir, "talk_normalized.wav")); !os.IsNotExist(err) {
		t.Fatalf("failed run must not leave an output file: %v", err)
	}

	out, err := norm.Normalize(context.Background(), input, dir, 60)
	if err != nil {
		t.Fatalf("Normalize retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected ffmpeg to run again after a failure, got %d calls", calls)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected complete output after retry: %v %v", info, err)
	}
}

func TestNormalizeValidatesInputs(t *testing.T) {
	norm := media.NewNormalizer("ffmpeg", 16000)
	if _, err := norm.Normalize(context.Background(), "", t.TempDir(), 300); err == nil {
		t.Fatal("expected error for empty input path")
	}
	if _, err := norm.Normalize(context.Background(), "in.wav", t.TempDir(), 0); err == nil {
		t.Fatal("expected error for non-positive duration cap")
	}
}
