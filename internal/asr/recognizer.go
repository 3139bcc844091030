package asr

import (
	"context"
	"fmt"
	"strings"

	"parley/internal/align"
	"parley/internal/config"
)

// Result is the output of a transcription run.
type Result struct {
	// FullText is the complete transcript as a single string.
	FullText string `json:"full_text"`
	// Segments are the recognized utterances ordered by start time.
	Segments []align.TranscriptSegment `json:"segments"`
}

// Recognizer transcribes a normalized WAV recording.
type Recognizer interface {
	// Transcribe recognizes speech in the WAV file at wavPath. workDir is a
	// scratch directory the backend may write intermediate files to.
	Transcribe(ctx context.Context, wavPath, workDir string) (Result, error)
}

// New selects a recognizer backend from configuration.
func New(cfg *config.Config) (Recognizer, error) {
	switch strings.TrimSpace(cfg.Transcriber.Backend) {
	case "", BackendWhisperX:
		return NewWhisperX(cfg.Transcriber), nil
	case BackendAWS:
		return NewAWSTranscriber(cfg.Transcriber)
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q", cfg.Transcriber.Backend)
	}
}

// Supported backend names.
const (
	BackendWhisperX = "whisperx"
	BackendAWS      = "aws"
)

// joinSegmentText concatenates trimmed segment texts with single spaces.
func joinSegmentText(segments []align.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
