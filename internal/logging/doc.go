// Package logging builds the slog loggers used throughout parley and
// standardizes the structured field names (run_id, stage, component) that
// connect log lines to pipeline runs.
package logging
