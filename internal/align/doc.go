// Package align holds the transcript data model and the temporal aligner
// that assigns diarization speaker labels to recognized transcript segments
// by majority overlap duration.
package align
