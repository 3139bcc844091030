// Package diarize labels speaker turns in a recording. The default
// implementation shells out to a pyannote runner that prints JSON turns on
// stdout.
package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"parley/internal/align"
	"parley/internal/config"
	"parley/internal/services"
)

// Diarizer identifies who spoke when in a WAV recording.
type Diarizer interface {
	Diarize(ctx context.Context, wavPath string) ([]align.DiarizationTurn, error)
}

// Runner drives an external diarization executable. The executable receives
// the audio path, model name, and Hugging Face token and writes a JSON array
// of turns to stdout.
type Runner struct {
	binary        string
	model         string
	hfToken       string
	commandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewRunner creates a diarizer from configuration.
func NewRunner(cfg config.Diarization) *Runner {
	binary := strings.TrimSpace(cfg.RunnerBinary)
	if binary == "" {
		binary = "pyannote-runner"
	}
	return &Runner{
		binary:  binary,
		model:   cfg.Model,
		hfToken: cfg.HFToken,
	}
}

// WithCommandOutput sets a custom command executor (for testing).
func (r *Runner) WithCommandOutput(fn func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	r.commandOutput = fn
}

// runnerTurn is one speaker turn as printed by the runner.
type runnerTurn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Diarize runs the external tool and parses its turn list. Turns with a
// non-positive duration are dropped.
func (r *Runner) Diarize(ctx context.Context, wavPath string) ([]align.DiarizationTurn, error) {
	if wavPath == "" {
		return nil, services.Wrap(services.ErrValidation, "diarize", "runner", "source path required", nil)
	}
	if strings.TrimSpace(r.hfToken) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "diarize", "runner", "hugging face token required", nil)
	}

	args := []string{wavPath, "--model", r.model, "--token", r.hfToken}
	output, err := r.output(ctx, r.binary, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarize", "runner", "run", err)
	}

	var raw []runnerTurn
	if err := json.Unmarshal(bytes.TrimSpace(output), &raw); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "diarize", "runner", "parse output", err)
	}

	turns := make([]align.DiarizationTurn, 0, len(raw))
	for _, turn := range raw {
		if turn.End <= turn.Start {
			continue
		}
		speaker := strings.TrimSpace(turn.Speaker)
		if speaker == "" {
			speaker = align.UnknownSpeaker
		}
		turns = append(turns, align.DiarizationTurn{
			TimeSpan: align.TimeSpan{Start: turn.Start, End: turn.End},
			Speaker:  speaker,
		})
	}
	return turns, nil
}

// output executes the runner, using the custom executor if set. The token is
// passed on the command line by the runner contract, so stderr from a failed
// invocation is included in the error while argv is not.
func (r *Runner) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.commandOutput != nil {
		return r.commandOutput(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
