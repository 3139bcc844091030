package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	LogDir    string `toml:"log_dir"`
}

// Audio contains normalization settings for input recordings.
type Audio struct {
	// MaxDurationSeconds caps the normalized recording length; longer input
	// is truncated, never rejected.
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
	SampleRate         int    `toml:"sample_rate"`
	FFmpegBinary       string `toml:"ffmpeg_binary"`
}

// AWSTranscriber configures the AWS Transcribe recognizer backend.
type AWSTranscriber struct {
	Region string `toml:"region"`
	Bucket string `toml:"bucket"`
	// PollIntervalSeconds controls how often job status is checked.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
}

// Transcriber selects and configures the speech recognition backend.
type Transcriber struct {
	// Backend is "whisperx" (local, default) or "aws".
	Backend     string         `toml:"backend"`
	Model       string         `toml:"model"`
	Language    string         `toml:"language"`
	CUDAEnabled bool           `toml:"cuda_enabled"`
	AWS         AWSTranscriber `toml:"aws"`
}

// Diarization configures the speaker diarization collaborator.
type Diarization struct {
	// HFToken is the Hugging Face access token required by the pyannote
	// pipeline. Its absence is a configuration error, not a stage failure.
	HFToken string `toml:"hf_token"`
	Model   string `toml:"model"`
	// RunnerBinary is the executable that drives the diarization model and
	// prints speaker turns as JSON.
	RunnerBinary string `toml:"runner_binary"`
}

// Services lists HTTP endpoints for the per-segment enrichment models. An
// empty URL disables the corresponding stage.
type Services struct {
	EmbeddingURL          string `toml:"embedding_url"`
	TextEmotionURL        string `toml:"text_emotion_url"`
	SpeechEmotionURL      string `toml:"speech_emotion_url"`
	KeywordsURL           string `toml:"keywords_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Keywords configures keyword extraction.
type Keywords struct {
	MaxPerSegment int `toml:"max_per_segment"`
}

// S3Publish configures optional upload of the final document to S3.
type S3Publish struct {
	Enabled bool   `toml:"enabled"`
	Region  string `toml:"region"`
	Bucket  string `toml:"bucket"`
	Prefix  string `toml:"prefix"`
}

// Publish configures result publishing targets beyond the local output dir.
type Publish struct {
	S3 S3Publish `toml:"s3"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for parley.
//
// Configuration sections by subsystem:
//   - Paths: output, cache, and log directories
//   - Audio: ffmpeg normalization (mono 16 kHz WAV, duration cap)
//   - Transcriber: speech recognition backend (whisperx or aws)
//   - Diarization: pyannote runner and Hugging Face credential
//   - Services: enrichment model HTTP endpoints
//   - Keywords: keyword extraction limits
//   - Publish: optional S3 upload of the final document
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Audio       Audio       `toml:"audio"`
	Transcriber Transcriber `toml:"transcriber"`
	Diarization Diarization `toml:"diarization"`
	Services    Services    `toml:"services"`
	Keywords    Keywords    `toml:"keywords"`
	Publish     Publish     `toml:"publish"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/parley/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a configuration file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("parley.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for normalization.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Audio.FFmpegBinary) != "" {
		return c.Audio.FFmpegBinary
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
