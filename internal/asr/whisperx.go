package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"parley/internal/align"
	"parley/internal/config"
	"parley/internal/services"
)

// WhisperX configuration constants.
const (
	DefaultModel   = "large-v3"
	CUDAIndexURL   = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL   = "https://pypi.org/simple"
	BatchSize      = "4"
	OutputFormat   = "json"
	CPUDevice      = "cpu"
	CUDADevice     = "cuda"
	CPUComputeType = "float32"
)

// UVXCommand launches WhisperX without a local install.
const UVXCommand = "uvx"

// WhisperX runs the WhisperX recognizer through uvx.
type WhisperX struct {
	cfg           config.Transcriber
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewWhisperX creates a WhisperX recognizer with the given configuration.
func NewWhisperX(cfg config.Transcriber) *WhisperX {
	return &WhisperX{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	w.commandRunner = runner
}

// Model returns the configured model name for logging.
func (w *WhisperX) Model() string {
	if w.cfg.Model != "" {
		return w.cfg.Model
	}
	return DefaultModel
}

// Transcribe runs WhisperX against the WAV file and parses its JSON output.
func (w *WhisperX) Transcribe(ctx context.Context, wavPath, workDir string) (Result, error) {
	var result Result

	if wavPath == "" {
		return result, services.Wrap(services.ErrValidation, "transcribe", "whisperx", "source path required", nil)
	}
	if workDir == "" {
		workDir = filepath.Dir(wavPath)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "ensure work dir", err)
	}

	args := w.buildArgs(wavPath, workDir)
	if err := w.run(ctx, UVXCommand, args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "run", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(wavPath), filepath.Ext(wavPath))
	jsonPath := filepath.Join(workDir, baseName+".json")

	segments, err := loadWhisperXSegments(jsonPath)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "whisperx", "parse output", err)
	}

	result.Segments = segments
	result.FullText = joinSegmentText(segments)
	return result, nil
}

// run executes a command, using the custom runner if set.
func (w *WhisperX) run(ctx context.Context, name string, args ...string) error {
	if w.commandRunner != nil {
		return w.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking
	// WhisperX/pyannote. Force legacy behavior so bundled WhisperX binaries
	// can load checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (w *WhisperX) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if w.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", w.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", "sentence",
	)

	if lang := strings.TrimSpace(w.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if w.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// whisperXSegment is one transcribed segment from WhisperX JSON output.
type whisperXSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// whisperXPayload is the JSON structure WhisperX writes.
type whisperXPayload struct {
	Segments []whisperXSegment `json:"segments"`
}

// loadWhisperXSegments loads segments from a WhisperX JSON file.
func loadWhisperXSegments(jsonPath string) ([]align.TranscriptSegment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	segments := make([]align.TranscriptSegment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		segments = append(segments, align.TranscriptSegment{
			TimeSpan: align.TimeSpan{Start: seg.Start, End: seg.End},
			Text:     strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}
