package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Normalizer converts arbitrary audio input into mono PCM WAV at a fixed
// sample rate, truncating input that exceeds the duration cap. Output is
// deterministic for identical input.
type Normalizer struct {
	ffmpegBinary  string
	sampleRate    int
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewNormalizer constructs a Normalizer around the given ffmpeg binary.
func NewNormalizer(ffmpegBinary string, sampleRate int) *Normalizer {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Normalizer{ffmpegBinary: ffmpegBinary, sampleRate: sampleRate}
}

// WithCommandRunner sets a custom command runner (for testing).
func (n *Normalizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	n.commandRunner = runner
}

// Normalize writes a normalized WAV for inputPath into destDir and returns
// its path. Input longer than maxDurationSec is truncated, never rejected.
// An existing output file is reused without re-running ffmpeg.
func (n *Normalizer) Normalize(ctx context.Context, inputPath, destDir string, maxDurationSec int) (string, error) {
	if inputPath == "" {
		return "", fmt.Errorf("normalize: input path required")
	}
	if maxDurationSec <= 0 {
		return "", fmt.Errorf("normalize: invalid max duration %d", maxDurationSec)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("normalize: ensure dest dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	dest := filepath.Join(destDir, base+"_normalized.wav")

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return dest, nil
	}

	// ffmpeg writes to a temp path that only becomes dest on success, so a
	// run that dies mid-transcode never leaves a partial file the reuse
	// branch above could mistake for a finished one.
	tmp := filepath.Join(destDir, base+"_normalized.tmp.wav")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inputPath,
		"-t", strconv.Itoa(maxDurationSec),
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(n.sampleRate),
		"-c:a", "pcm_s16le",
		tmp,
	}
	if err := n.run(ctx, n.ffmpegBinary, args...); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("normalize: finalize output: %w", err)
	}
	return dest, nil
}

func (n *Normalizer) run(ctx context.Context, name string, args ...string) error {
	if n.commandRunner != nil {
		return n.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg normalize: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
