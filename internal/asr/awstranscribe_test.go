package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

var _ smithy.APIError = (*apiError)(nil)

type fakeS3 struct {
	objects map[string][]byte
	puts    []string
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*params.Key]; !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	f.puts = append(f.puts, *params.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type fakeTranscribe struct {
	jobs    map[string]transcribetypes.TranscriptionJobStatus
	started []string
	s3Store *fakeS3
	doc     *transcriptDocument
}

func (f *fakeTranscribe) GetTranscriptionJob(_ context.Context, params *transcribe.GetTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error) {
	status, ok := f.jobs[*params.TranscriptionJobName]
	if !ok {
		return nil, &apiError{code: "BadRequestException"}
	}
	return &transcribe.GetTranscriptionJobOutput{
		TranscriptionJob: &transcribetypes.TranscriptionJob{TranscriptionJobStatus: status},
	}, nil
}

func (f *fakeTranscribe) StartTranscriptionJob(_ context.Context, params *transcribe.StartTranscriptionJobInput, _ ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error) {
	name := *params.TranscriptionJobName
	f.started = append(f.started, name)
	f.jobs[name] = transcribetypes.TranscriptionJobStatusCompleted

	// Simulate the job writing its output document to the bucket.
	data, err := json.Marshal(f.doc)
	if err != nil {
		return nil, err
	}
	f.s3Store.objects[name+".json"] = data
	return &transcribe.StartTranscriptionJobOutput{}, nil
}

func sampleDocument() *transcriptDocument {
	doc := &transcriptDocument{Status: "COMPLETED"}
	doc.Results.Transcripts = []struct {
		Transcript string `json:"transcript"`
	}{{Transcript: "Hello there. How are you?"}}
	doc.Results.Items = []transcriptItem{
		wordItem("Hello", "0.0", "0.5"),
		wordItem("there", "0.6", "1.1"),
		punctItem("."),
		wordItem("How", "1.5", "1.8"),
		wordItem("are", "1.9", "2.1"),
		wordItem("you", "2.2", "2.6"),
		punctItem("?"),
	}
	return doc
}

func wordItem(content, start, end string) transcriptItem {
	item := transcriptItem{StartTime: start, EndTime: end, Type: "pronunciation"}
	item.Alternatives = []struct {
		Content string `json:"content"`
	}{{Content: content}}
	return item
}

func punctItem(content string) transcriptItem {
	item := transcriptItem{Type: "punctuation"}
	item.Alternatives = []struct {
		Content string `json:"content"`
	}{{Content: content}}
	return item
}

func TestTranscriptDocumentSegments(t *testing.T) {
	doc := sampleDocument()
	segments := doc.segments()
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "Hello there." {
		t.Fatalf("unexpected first segment text: %q", segments[0].Text)
	}
	if segments[0].Start != 0.0 || segments[0].End != 1.1 {
		t.Fatalf("unexpected first segment timing: %+v", segments[0].TimeSpan)
	}
	if segments[1].Text != "How are you?" {
		t.Fatalf("unexpected second segment text: %q", segments[1].Text)
	}
	if segments[1].Start != 1.5 || segments[1].End != 2.6 {
		t.Fatalf("unexpected second segment timing: %+v", segments[1].TimeSpan)
	}
}

func TestAWSTranscribeUploadsAndRunsJob(t *testing.T) {
	wavPath := filepath.Join(t.TempDir(), "meeting.wav")
	if err := os.WriteFile(wavPath, []byte("fake wav bytes"), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}

	s3Fake := &fakeS3{objects: map[string][]byte{}}
	jobFake := &fakeTranscribe{
		jobs:    map[string]transcribetypes.TranscriptionJobStatus{},
		s3Store: s3Fake,
		doc:     sampleDocument(),
	}

	rec := &AWSTranscriber{bucket: "bkt", pollInterval: time.Millisecond}
	rec.WithClients(s3Fake, jobFake)

	result, err := rec.Transcribe(context.Background(), wavPath, "")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if len(s3Fake.puts) != 1 {
		t.Fatalf("expected one upload, got %d", len(s3Fake.puts))
	}
	if len(jobFake.started) != 1 {
		t.Fatalf("expected one job start, got %d", len(jobFake.started))
	}
	if result.FullText != "Hello there. How are you?" {
		t.Fatalf("unexpected full text: %q", result.FullText)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}

	// Rerunning the same audio reuses the uploaded object and finished job.
	if _, err := rec.Transcribe(context.Background(), wavPath, ""); err != nil {
		t.Fatalf("second Transcribe returned error: %v", err)
	}
	if len(s3Fake.puts) != 1 {
		t.Fatalf("expected upload reuse, got %d puts", len(s3Fake.puts))
	}
	if len(jobFake.started) != 1 {
		t.Fatalf("expected job reuse, got %d starts", len(jobFake.started))
	}
}
