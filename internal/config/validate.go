package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is structurally usable. Credential and
// input checks that depend on what a run actually needs live in the pipeline
// preflight, not here.
func (c *Config) Validate() error {
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateTranscriber(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAudio() error {
	if c.Audio.MaxDurationSeconds <= 0 {
		return errors.New("audio.max_duration_seconds must be positive")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	return nil
}

func (c *Config) validateTranscriber() error {
	switch c.Transcriber.Backend {
	case "whisperx", "aws":
	default:
		return fmt.Errorf("transcriber.backend must be \"whisperx\" or \"aws\", got %q", c.Transcriber.Backend)
	}
	if c.Transcriber.Backend == "aws" && strings.TrimSpace(c.Transcriber.AWS.Bucket) == "" {
		return errors.New("transcriber.aws.bucket must be set when transcriber.backend is \"aws\"")
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.S3.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Publish.S3.Bucket) == "" {
		return errors.New("publish.s3.bucket must be set when publish.s3.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
