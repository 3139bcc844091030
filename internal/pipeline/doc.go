// Package pipeline orchestrates the analysis stages for one recording.
//
// A run is a sequence of stages keyed by (run_id, stage) in the stage cache.
// Required stages (normalize, transcribe, diarize, align) abort the run on
// failure; enrichment stages (features, embed, text_emotion, speech_emotion,
// keywords) record their failure and the run carries on, marking their output
// unavailable. Rerunning the same run_id restores finished stages from the
// cache, so an interrupted run resumes instead of starting over.
package pipeline
