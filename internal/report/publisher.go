// Package report writes the final run documents: the full JSON result, a
// simplified variant without the bulky numeric fields, a per-segment CSV
// summary, and the plain transcript. The final JSON can additionally be
// uploaded to S3.
package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"parley/internal/enrich"
	"parley/internal/logging"
)

// Document is the published result of one run.
type Document struct {
	AudioFile      string          `json:"audio_file"`
	FullTranscript string          `json:"full_transcript"`
	Segments       []enrich.Record `json:"segments"`
}

// Paths lists where the run documents were written.
type Paths struct {
	Final      string
	Simplified string
	CSV        string
	Transcript string
}

// heavyFields are stripped from the simplified document and the CSV summary.
var heavyFields = map[string]bool{
	enrich.FieldAudioFeatures: true,
	enrich.FieldTextEmbedding: true,
}

// Uploader pushes a published document to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, body []byte) error
}

// Publisher writes run documents to the output directory.
type Publisher struct {
	outputDir string
	uploader  Uploader
	logger    *slog.Logger
}

// NewPublisher creates a publisher. uploader may be nil to publish locally
// only.
func NewPublisher(outputDir string, uploader Uploader, logger *slog.Logger) *Publisher {
	return &Publisher{
		outputDir: outputDir,
		uploader:  uploader,
		logger:    logging.NewComponentLogger(logger, "publisher"),
	}
}

// Publish writes all documents for the run. base is the run identifier used
// as the file name prefix. An upload failure is logged and does not fail the
// publish; a local write failure does.
func (p *Publisher) Publish(ctx context.Context, base string, doc Document) (Paths, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("ensure output dir: %w", err)
	}

	paths := Paths{
		Final:      filepath.Join(p.outputDir, base+"_final_output.json"),
		Simplified: filepath.Join(p.outputDir, base+"_no_embeddings_final_output.json"),
		CSV:        filepath.Join(p.outputDir, base+"_summary.csv"),
		Transcript: filepath.Join(p.outputDir, base+"_transcript.txt"),
	}

	finalJSON, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("encode final document: %w", err)
	}
	if err := os.WriteFile(paths.Final, finalJSON, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write final document: %w", err)
	}

	simplifiedJSON, err := json.MarshalIndent(simplify(doc), "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("encode simplified document: %w", err)
	}
	if err := os.WriteFile(paths.Simplified, simplifiedJSON, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write simplified document: %w", err)
	}

	if err := writeCSV(paths.CSV, doc.Segments); err != nil {
		return Paths{}, fmt.Errorf("write csv summary: %w", err)
	}

	if err := os.WriteFile(paths.Transcript, []byte(doc.FullTranscript+"\n"), 0o644); err != nil {
		return Paths{}, fmt.Errorf("write transcript: %w", err)
	}

	p.logger.Info("run documents published",
		logging.String("final", paths.Final),
		logging.Int("segments", len(doc.Segments)))

	if p.uploader != nil {
		if err := p.uploader.Upload(ctx, filepath.Base(paths.Final), finalJSON); err != nil {
			p.logger.Warn("upload failed, documents remain local", logging.Error(err))
		}
	}

	return paths, nil
}

// simplify strips the numeric bulk fields from every segment.
func simplify(doc Document) Document {
	out := Document{
		AudioFile:      doc.AudioFile,
		FullTranscript: doc.FullTranscript,
		Segments:       make([]enrich.Record, len(doc.Segments)),
	}
	for i, rec := range doc.Segments {
		fields := make(map[string]any, len(rec.Fields))
		for name, value := range rec.Fields {
			if heavyFields[name] {
				continue
			}
			fields[name] = value
		}
		out.Segments[i] = enrich.Record{AlignedSegment: rec.AlignedSegment, Fields: fields}
	}
	return out
}

// writeCSV flattens segments into one row each, skipping the heavy fields.
func writeCSV(path string, records []enrich.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	fieldNames := make([]string, 0, len(enrich.FieldOrder))
	for _, name := range enrich.FieldNames(records) {
		if !heavyFields[name] {
			fieldNames = append(fieldNames, name)
		}
	}

	header := append([]string{"start", "end", "speaker", "text"}, fieldNames...)
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			strconv.FormatFloat(rec.Start, 'f', 3, 64),
			strconv.FormatFloat(rec.End, 'f', 3, 64),
			rec.Speaker,
			rec.Text,
		}
		for _, name := range fieldNames {
			row = append(row, cellValue(rec.Fields[name]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// cellValue renders a field value for CSV. Keyword lists join with
// semicolons; everything else prints plainly.
func cellValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "; ")
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(v)
	}
}
