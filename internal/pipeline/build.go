package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parley/internal/align"
	"parley/internal/analysis"
	"parley/internal/asr"
	"parley/internal/clients"
	"parley/internal/config"
	"parley/internal/diarize"
	"parley/internal/enrich"
	"parley/internal/media"
)

// Stage names.
const (
	StageNormalize     = "normalize"
	StageTranscribe    = "transcribe"
	StageDiarize       = "diarize"
	StageAlign         = "align"
	StageFeatures      = "features"
	StageEmbed         = "embed"
	StageTextEmotion   = "text_emotion"
	StageSpeechEmotion = "speech_emotion"
	StageKeywords      = "keywords"
)

// StageNames lists every stage in execution order.
var StageNames = []string{
	StageNormalize,
	StageTranscribe,
	StageDiarize,
	StageAlign,
	StageFeatures,
	StageEmbed,
	StageTextEmotion,
	StageSpeechEmotion,
	StageKeywords,
}

// Collaborators bundles the external workers a run needs. They are built once
// per process and passed down; nothing here is a package-level singleton.
type Collaborators struct {
	Normalizer *media.Normalizer
	Recognizer asr.Recognizer
	Diarizer   diarize.Diarizer
	Extractor  *analysis.Extractor
	Services   *clients.HTTP
}

// NewCollaborators wires the default collaborator set from configuration.
func NewCollaborators(cfg *config.Config) (*Collaborators, error) {
	recognizer, err := asr.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Collaborators{
		Normalizer: media.NewNormalizer(cfg.FFmpegBinary(), cfg.Audio.SampleRate),
		Recognizer: recognizer,
		Diarizer:   diarize.NewRunner(cfg.Diarization),
		Extractor:  analysis.NewExtractor(),
		Services:   clients.NewHTTP(cfg.Services),
	}, nil
}

// State is the shared mutable run state the stages read and write. Stage Run
// functions fill it as they execute; Restore functions fill it from cached
// payloads.
type State struct {
	WavPath        string
	Transcript     asr.Result
	Turns          []align.DiarizationTurn
	Aligned        []align.AlignedSegment
	Features       [][]float64
	Embeddings     [][]float64
	TextEmotions   []string
	SpeechEmotions []string
	Keywords       [][]string
}

// RunID derives the run identifier from the audio path: the file base name
// without extension. Reusing a file name reuses its cached stages, so stale
// intermediates follow renamed-in-place recordings.
func RunID(audioPath string) string {
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// normalizePayload is the cached output of the normalize stage.
type normalizePayload struct {
	WavPath string `json:"wav_path"`
}

// BuildStages assembles the stage list for one run. workDir receives
// intermediate files (the normalized WAV, recognizer scratch output).
func BuildStages(cfg *config.Config, collab *Collaborators, audioPath, workDir string, state *State) []Stage {
	texts := func() []string {
		out := make([]string, len(state.Aligned))
		for i, seg := range state.Aligned {
			out[i] = seg.Text
		}
		return out
	}
	spans := func() []align.TimeSpan {
		out := make([]align.TimeSpan, len(state.Aligned))
		for i, seg := range state.Aligned {
			out[i] = seg.TimeSpan
		}
		return out
	}

	return []Stage{
		{
			Name:     StageNormalize,
			Required: true,
			Enabled:  true,
			Run: func(ctx context.Context) (any, error) {
				wavPath, err := collab.Normalizer.Normalize(ctx, audioPath, workDir, cfg.Audio.MaxDurationSeconds)
				if err != nil {
					return nil, err
				}
				state.WavPath = wavPath
				return normalizePayload{WavPath: wavPath}, nil
			},
			Restore: func(payload json.RawMessage) error {
				var p normalizePayload
				if err := json.Unmarshal(payload, &p); err != nil {
					return err
				}
				// The cached path must still be on disk; otherwise
				// downstream stages would read a ghost.
				if info, err := os.Stat(p.WavPath); err != nil || info.Size() == 0 {
					return fmt.Errorf("cached wav %s is gone", p.WavPath)
				}
				state.WavPath = p.WavPath
				return nil
			},
		},
		{
			Name:      StageTranscribe,
			Required:  true,
			Enabled:   true,
			DependsOn: []string{StageNormalize},
			Run: func(ctx context.Context) (any, error) {
				result, err := collab.Recognizer.Transcribe(ctx, state.WavPath, workDir)
				if err != nil {
					return nil, err
				}
				state.Transcript = result
				return result, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.Transcript)
			},
		},
		{
			Name:      StageDiarize,
			Required:  true,
			Enabled:   true,
			DependsOn: []string{StageNormalize},
			Run: func(ctx context.Context) (any, error) {
				turns, err := collab.Diarizer.Diarize(ctx, state.WavPath)
				if err != nil {
					return nil, err
				}
				state.Turns = turns
				return turns, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.Turns)
			},
		},
		{
			Name:      StageAlign,
			Required:  true,
			Enabled:   true,
			DependsOn: []string{StageTranscribe, StageDiarize},
			Run: func(_ context.Context) (any, error) {
				state.Aligned = align.Align(state.Transcript.Segments, state.Turns)
				return state.Aligned, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.Aligned)
			},
		},
		{
			Name:      StageFeatures,
			Enabled:   true,
			DependsOn: []string{StageNormalize, StageAlign},
			Run: func(_ context.Context) (any, error) {
				features, err := collab.Extractor.Extract(state.WavPath, spans())
				if err != nil {
					return nil, err
				}
				state.Features = features
				return features, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.Features)
			},
		},
		{
			Name:      StageEmbed,
			Enabled:   collab.Services.EmbeddingConfigured(),
			DependsOn: []string{StageAlign},
			Run: func(ctx context.Context) (any, error) {
				embeddings, err := collab.Services.Embed(ctx, texts())
				if err != nil {
					return nil, err
				}
				state.Embeddings = embeddings
				return embeddings, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.Embeddings)
			},
		},
		{
			Name:      StageTextEmotion,
			Enabled:   collab.Services.TextEmotionConfigured(),
			DependsOn: []string{StageAlign},
			Run: func(ctx context.Context) (any, error) {
				emotions, err := collab.Services.TextEmotions(ctx, texts())
				if err != nil {
					return nil, err
				}
				state.TextEmotions = emotions
				return emotions, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.TextEmotions)
			},
		},
		{
			Name:      StageSpeechEmotion,
			Enabled:   collab.Services.SpeechEmotionConfigured(),
			DependsOn: []string{StageNormalize, StageAlign},
			Run: func(ctx context.Context) (any, error) {
				emotions, err := collab.Services.SpeechEmotions(ctx, state.WavPath, spans())
				if err != nil {
					return nil, err
				}
				state.SpeechEmotions = emotions
				return emotions, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.SpeechEmotions)
			},
		},
		{
			Name:      StageKeywords,
			Enabled:   collab.Services.KeywordsConfigured(),
			DependsOn: []string{StageAlign},
			Run: func(ctx context.Context) (any, error) {
				keywords, err := collab.Services.Keywords(ctx, texts(), cfg.Keywords.MaxPerSegment)
				if err != nil {
					return nil, err
				}
				state.Keywords = keywords
				return keywords, nil
			},
			Restore: func(payload json.RawMessage) error {
				return json.Unmarshal(payload, &state.Keywords)
			},
		},
	}
}

// Columns converts the optional stage outputs into aggregation columns. A
// stage that did not succeed yields an unavailable column.
func Columns(state *State, result *Result) []enrich.Column {
	return []enrich.Column{
		{
			Name:        enrich.FieldAudioFeatures,
			Values:      vectorValues(state.Features),
			Unavailable: !result.Succeeded(StageFeatures),
		},
		{
			Name:        enrich.FieldTextEmbedding,
			Values:      vectorValues(state.Embeddings),
			Unavailable: !result.Succeeded(StageEmbed),
		},
		{
			Name:        enrich.FieldTextEmotion,
			Values:      stringValues(state.TextEmotions),
			Unavailable: !result.Succeeded(StageTextEmotion),
		},
		{
			Name:        enrich.FieldSpeechEmotion,
			Values:      stringValues(state.SpeechEmotions),
			Unavailable: !result.Succeeded(StageSpeechEmotion),
		},
		{
			Name:        enrich.FieldKeywords,
			Values:      listValues(state.Keywords),
			Unavailable: !result.Succeeded(StageKeywords),
		},
	}
}

func vectorValues(vectors [][]float64) []any {
	out := make([]any, len(vectors))
	for i, v := range vectors {
		out[i] = v
	}
	return out
}

func stringValues(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func listValues(lists [][]string) []any {
	out := make([]any, len(lists))
	for i, v := range lists {
		out[i] = v
	}
	return out
}
