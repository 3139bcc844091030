package enrich

import (
	"encoding/json"
	"log/slog"
	"sort"

	"parley/internal/align"
	"parley/internal/logging"
)

// Unavailable marks a field whose producing stage failed or was skipped. The
// marker is explicit so consumers can tell "stage did not run" apart from a
// legitimate empty value; nothing is ever fabricated to fill a gap.
const Unavailable = "unavailable"

// Canonical field names attached to enriched segments.
const (
	FieldAudioFeatures = "audio_features"
	FieldTextEmbedding = "text_embedding"
	FieldTextEmotion   = "text_emotion"
	FieldSpeechEmotion = "speech_emotion"
	FieldKeywords      = "keywords"
)

// FieldOrder is the stable ordering for rendering enriched fields.
var FieldOrder = []string{
	FieldAudioFeatures,
	FieldTextEmbedding,
	FieldTextEmotion,
	FieldSpeechEmotion,
	FieldKeywords,
}

// Column is one per-segment value sequence produced by an enrichment stage.
// Unavailable columns fill every record with the Unavailable marker and do
// not participate in length truncation.
type Column struct {
	Name        string
	Values      []any
	Unavailable bool
}

// Record is an aligned segment plus its enrichment fields.
type Record struct {
	align.AlignedSegment
	Fields map[string]any
}

// MarshalJSON flattens the segment and its fields into one object.
func (r Record) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"start":   r.Start,
		"end":     r.End,
		"text":    r.Text,
		"speaker": r.Speaker,
	}
	for name, value := range r.Fields {
		out[name] = value
	}
	return json.Marshal(out)
}

// Aggregate shallow-merges one value from each column onto each aligned
// segment. Available columns shorter than the aligned sequence truncate the
// output to the minimum common length; the discrepancy is logged, never
// raised, and missing tail values are never padded. Longer columns are
// simply cut at the output length.
func Aggregate(aligned []align.AlignedSegment, columns []Column, logger *slog.Logger) []Record {
	if logger == nil {
		logger = logging.NewNop()
	}

	limit := len(aligned)
	for _, col := range columns {
		if col.Unavailable {
			continue
		}
		if len(col.Values) < limit {
			logger.Warn("enrichment column shorter than aligned transcript; truncating output",
				logging.String("field", col.Name),
				logging.Int("column_len", len(col.Values)),
				logging.Int("aligned_len", len(aligned)),
			)
			limit = len(col.Values)
		}
	}

	records := make([]Record, 0, limit)
	for i := 0; i < limit; i++ {
		fields := make(map[string]any, len(columns))
		for _, col := range columns {
			if col.Unavailable {
				fields[col.Name] = Unavailable
				continue
			}
			fields[col.Name] = col.Values[i]
		}
		records = append(records, Record{
			AlignedSegment: aligned[i],
			Fields:         fields,
		})
	}
	return records
}

// FieldNames returns the record's field names in canonical order, with any
// non-canonical names appended alphabetically.
func FieldNames(records []Record) []string {
	if len(records) == 0 {
		return nil
	}
	present := make(map[string]bool, len(records[0].Fields))
	for name := range records[0].Fields {
		present[name] = true
	}

	names := make([]string, 0, len(present))
	for _, name := range FieldOrder {
		if present[name] {
			names = append(names, name)
			delete(present, name)
		}
	}
	extras := make([]string, 0, len(present))
	for name := range present {
		extras = append(extras, name)
	}
	sort.Strings(extras)
	return append(names, extras...)
}
