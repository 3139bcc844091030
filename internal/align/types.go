package align

import "math"

// UnknownSpeaker is assigned when no diarization turn overlaps a segment.
const UnknownSpeaker = "unknown"

// TimeSpan is a half-open interval in seconds with Start <= End.
type TimeSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the span length in seconds, never negative.
func (s TimeSpan) Duration() float64 {
	return math.Max(0, s.End-s.Start)
}

// Overlap returns the overlapping duration of two spans in seconds.
func Overlap(a, b TimeSpan) float64 {
	return math.Max(0, math.Min(a.End, b.End)-math.Max(a.Start, b.Start))
}

// TranscriptSegment is one recognized utterance. Segments are produced by the
// speech recognizer and immutable afterwards. The recognizer contract says
// they arrive ordered by start and non-overlapping, but the aligner does not
// rely on either property.
type TranscriptSegment struct {
	TimeSpan
	Text string `json:"text"`
}

// DiarizationTurn is a diarizer claim that one speaker was talking during a
// span. Turns for the same speaker may be non-contiguous and turns across
// speakers may overlap.
type DiarizationTurn struct {
	TimeSpan
	Speaker string `json:"speaker"`
}

// AlignedSegment is a transcript segment with a speaker label attached.
// Created once by Align and read-only thereafter.
type AlignedSegment struct {
	TimeSpan
	Text    string `json:"text"`
	Speaker string `json:"speaker"`
}
