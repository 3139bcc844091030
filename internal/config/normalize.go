package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeTranscriber()
	c.normalizeDiarization()
	c.normalizeKeywords()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	if c.Audio.MaxDurationSeconds <= 0 {
		c.Audio.MaxDurationSeconds = defaultMaxDurationSeconds
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Backend = strings.ToLower(strings.TrimSpace(c.Transcriber.Backend))
	if c.Transcriber.Backend == "" {
		c.Transcriber.Backend = defaultTranscriberBackend
	}
	if strings.TrimSpace(c.Transcriber.Model) == "" {
		c.Transcriber.Model = defaultTranscriberModel
	}
	if c.Transcriber.AWS.PollIntervalSeconds <= 0 {
		c.Transcriber.AWS.PollIntervalSeconds = defaultAWSPollInterval
	}
	if strings.TrimSpace(c.Transcriber.AWS.Region) == "" {
		c.Transcriber.AWS.Region = defaultAWSRegion
	}
}

func (c *Config) normalizeDiarization() {
	if strings.TrimSpace(c.Diarization.HFToken) == "" {
		c.Diarization.HFToken = strings.TrimSpace(os.Getenv("HF_TOKEN"))
	}
	if strings.TrimSpace(c.Diarization.Model) == "" {
		c.Diarization.Model = defaultDiarizationModel
	}
	if strings.TrimSpace(c.Diarization.RunnerBinary) == "" {
		c.Diarization.RunnerBinary = defaultDiarizationRunner
	}
}

func (c *Config) normalizeKeywords() {
	if c.Keywords.MaxPerSegment <= 0 {
		c.Keywords.MaxPerSegment = defaultMaxKeywords
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
