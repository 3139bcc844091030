package align_test

import (
	"reflect"
	"testing"

	"parley/internal/align"
)

func span(start, end float64) align.TimeSpan {
	return align.TimeSpan{Start: start, End: end}
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		name string
		a, b align.TimeSpan
		want float64
	}{
		{"partial", span(0, 2), span(1, 3), 1},
		{"contained", span(0, 10), span(2, 4), 2},
		{"disjoint", span(0, 1), span(2, 3), 0},
		{"touching", span(0, 1), span(1, 2), 0},
		{"identical", span(1, 4), span(1, 4), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := align.Overlap(tc.a, tc.b); got != tc.want {
				t.Fatalf("Overlap(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestAlignPicksSpeakerWithLargestTotalOverlap(t *testing.T) {
	segments := []align.TranscriptSegment{
		{TimeSpan: span(0, 2), Text: " hello there "},
	}
	turns := []align.DiarizationTurn{
		{TimeSpan: span(0, 1), Speaker: "A"},
		{TimeSpan: span(1, 2), Speaker: "B"},
		{TimeSpan: span(1.5, 2), Speaker: "A"},
	}

	got := align.Align(segments, turns)
	if len(got) != 1 {
		t.Fatalf("expected 1 aligned segment, got %d", len(got))
	}
	// A overlaps 1.0 + 0.5 = 1.5 total, B only 1.0.
	if got[0].Speaker != "A" {
		t.Fatalf("expected speaker A, got %q", got[0].Speaker)
	}
	if got[0].Text != "hello there" {
		t.Fatalf("expected trimmed text, got %q", got[0].Text)
	}
}

func TestAlignUnknownWhenNoOverlap(t *testing.T) {
	segments := []align.TranscriptSegment{
		{TimeSpan: span(10, 11), Text: "late words"},
	}
	turns := []align.DiarizationTurn{
		{TimeSpan: span(0, 5), Speaker: "A"},
	}

	got := align.Align(segments, turns)
	if got[0].Speaker != align.UnknownSpeaker {
		t.Fatalf("expected %q, got %q", align.UnknownSpeaker, got[0].Speaker)
	}
}

func TestAlignTieBreakIsDeterministic(t *testing.T) {
	segments := []align.TranscriptSegment{
		{TimeSpan: span(0, 2), Text: "tie"},
	}
	turns := []align.DiarizationTurn{
		{TimeSpan: span(0, 1), Speaker: "A"},
		{TimeSpan: span(1, 2), Speaker: "B"},
	}

	// Equal totals resolve to the first speaker reaching the maximum in
	// iteration order, and repeated calls agree.
	first := align.Align(segments, turns)
	if first[0].Speaker != "A" {
		t.Fatalf("expected first-encountered speaker to win the tie, got %q", first[0].Speaker)
	}
	for i := 0; i < 10; i++ {
		again := align.Align(segments, turns)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("alignment not deterministic: %v vs %v", first, again)
		}
	}
}

func TestAlignPreservesLengthAndOrder(t *testing.T) {
	segments := []align.TranscriptSegment{
		{TimeSpan: span(0, 1), Text: "one"},
		{TimeSpan: span(1, 2), Text: "two"},
		{TimeSpan: span(0.5, 1.5), Text: "out of contract but tolerated"},
	}
	turns := []align.DiarizationTurn{
		{TimeSpan: span(0, 2), Speaker: "A"},
	}

	got := align.Align(segments, turns)
	if len(got) != len(segments) {
		t.Fatalf("expected %d aligned segments, got %d", len(segments), len(got))
	}
	for i := range got {
		if got[i].Start != segments[i].Start || got[i].End != segments[i].End {
			t.Fatalf("segment %d span changed: %v vs %v", i, got[i].TimeSpan, segments[i].TimeSpan)
		}
	}
}

func TestAlignEmptyInputs(t *testing.T) {
	if got := align.Align(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	segments := []align.TranscriptSegment{{TimeSpan: span(0, 1), Text: "solo"}}
	got := align.Align(segments, nil)
	if got[0].Speaker != align.UnknownSpeaker {
		t.Fatalf("expected unknown speaker with no turns, got %q", got[0].Speaker)
	}
}
