package align

import "strings"

// Align assigns a speaker to every transcript segment by summing, per
// speaker, the overlap duration of all diarization turns against the segment
// and picking the speaker with the largest total. Segments with no
// overlapping turn get UnknownSpeaker.
//
// The result is length-preserving and order-preserving: one AlignedSegment
// per input segment. Align is a pure function; given identical inputs
// (including turn order) it produces identical output. Ties on total overlap
// resolve to the first speaker that reached the maximum in turn iteration
// order, so callers must pass turns in a stable order for reproducible runs.
//
// The scan is O(segments x turns), which is fine for minutes-long recordings
// with hundreds of segments and turns. An interval index would change the
// constant factor, not this contract.
func Align(segments []TranscriptSegment, turns []DiarizationTurn) []AlignedSegment {
	aligned := make([]AlignedSegment, 0, len(segments))
	for _, seg := range segments {
		aligned = append(aligned, AlignedSegment{
			TimeSpan: seg.TimeSpan,
			Text:     strings.TrimSpace(seg.Text),
			Speaker:  dominantSpeaker(seg.TimeSpan, turns),
		})
	}
	return aligned
}

func dominantSpeaker(span TimeSpan, turns []DiarizationTurn) string {
	totals := make(map[string]float64)
	best := UnknownSpeaker
	bestTotal := 0.0
	for _, turn := range turns {
		overlap := Overlap(span, turn.TimeSpan)
		if overlap <= 0 {
			continue
		}
		totals[turn.Speaker] += overlap
		// Strict greater-than keeps the first speaker to reach the maximum,
		// making ties deterministic under a fixed turn order.
		if totals[turn.Speaker] > bestTotal {
			best = turn.Speaker
			bestTotal = totals[turn.Speaker]
		}
	}
	return best
}
