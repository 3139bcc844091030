// Package config loads, validates, and normalizes the TOML configuration
// that drives the parley pipeline: directories, audio normalization limits,
// recognizer backend selection, diarization credentials, enrichment service
// endpoints, publishing targets, and logging.
package config
