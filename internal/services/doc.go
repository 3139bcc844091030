// Package services defines shared utilities consumed by the pipeline stages
// and external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, stage names, and correlation
//     identifiers for logging and diagnostics.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration vs. external tool vs. transient) consistently.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
