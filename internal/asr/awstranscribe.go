package asr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
	"github.com/aws/smithy-go"

	"parley/internal/align"
	"parley/internal/config"
	"parley/internal/services"
)

// DefaultLanguageCode is used when no transcriber language is configured.
const DefaultLanguageCode = "en-US"

const defaultPollInterval = 10 * time.Second

// s3API is the subset of the S3 client the recognizer uses.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// transcribeAPI is the subset of the Transcribe client the recognizer uses.
type transcribeAPI interface {
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
}

// AWSTranscriber recognizes speech with Amazon Transcribe. The recording is
// uploaded to S3 under a content-hash key, so rerunning the same audio reuses
// the uploaded object and any finished job.
type AWSTranscriber struct {
	bucket       string
	language     string
	pollInterval time.Duration
	s3Client     s3API
	jobClient    transcribeAPI
}

// NewAWSTranscriber builds the AWS recognizer from configuration. Credentials
// come from the standard AWS resolution chain.
func NewAWSTranscriber(cfg config.Transcriber) (*AWSTranscriber, error) {
	if strings.TrimSpace(cfg.AWS.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "aws", "bucket required", nil)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "aws", "load aws config", err)
	}

	poll := defaultPollInterval
	if cfg.AWS.PollIntervalSeconds > 0 {
		poll = time.Duration(cfg.AWS.PollIntervalSeconds) * time.Second
	}

	return &AWSTranscriber{
		bucket:       cfg.AWS.Bucket,
		language:     cfg.Language,
		pollInterval: poll,
		s3Client:     s3.NewFromConfig(awsCfg),
		jobClient:    transcribe.NewFromConfig(awsCfg),
	}, nil
}

// WithClients replaces the AWS clients (for testing).
func (a *AWSTranscriber) WithClients(s3Client s3API, jobClient transcribeAPI) {
	a.s3Client = s3Client
	a.jobClient = jobClient
}

// Transcribe uploads the recording if absent, runs a transcription job to
// completion, and parses the transcript document.
func (a *AWSTranscriber) Transcribe(ctx context.Context, wavPath, _ string) (Result, error) {
	var result Result

	digest, err := fileDigest(wavPath)
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "transcribe", "aws", "hash input", err)
	}
	mediaKey := "audio/" + digest + ".wav"
	jobName := "parley-" + digest[:16]

	if err := a.ensureUploaded(ctx, mediaKey, wavPath); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "aws", "upload", err)
	}
	if err := a.ensureJobComplete(ctx, jobName, mediaKey); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "aws", "job", err)
	}

	doc, err := a.fetchTranscript(ctx, jobName+".json")
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "aws", "fetch transcript", err)
	}

	result.Segments = doc.segments()
	result.FullText = doc.fullText()
	if result.FullText == "" {
		result.FullText = joinSegmentText(result.Segments)
	}
	return result, nil
}

// ensureUploaded puts the recording into S3 unless the key already exists.
func (a *AWSTranscriber) ensureUploaded(ctx context.Context, key, path string) error {
	_, err := a.s3Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &a.bucket, Key: &key})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{Bucket: &a.bucket, Key: &key, Body: f})
	return err
}

// ensureJobComplete starts the job if it does not exist and polls until it
// finishes. An already-completed job from a previous run is reused as-is.
func (a *AWSTranscriber) ensureJobComplete(ctx context.Context, jobName, mediaKey string) error {
	exists, status, err := a.jobStatus(ctx, jobName)
	if err != nil {
		return err
	}
	if !exists {
		if err := a.startJob(ctx, jobName, mediaKey); err != nil {
			return fmt.Errorf("start job %s: %w", jobName, err)
		}
	} else if status == transcribetypes.TranscriptionJobStatusCompleted {
		return nil
	} else if status == transcribetypes.TranscriptionJobStatusFailed {
		return fmt.Errorf("job %s failed", jobName)
	}

	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, status, err := a.jobStatus(ctx, jobName)
			if err != nil {
				return err
			}
			switch status {
			case transcribetypes.TranscriptionJobStatusCompleted:
				return nil
			case transcribetypes.TranscriptionJobStatusFailed:
				return fmt.Errorf("job %s failed", jobName)
			}
		}
	}
}

func (a *AWSTranscriber) jobStatus(ctx context.Context, jobName string) (bool, transcribetypes.TranscriptionJobStatus, error) {
	out, err := a.jobClient.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
		TranscriptionJobName: &jobName,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BadRequestException" {
			return false, "", nil
		}
		if strings.Contains(err.Error(), "couldn't be found") {
			return false, "", nil
		}
		return false, "", err
	}
	return true, out.TranscriptionJob.TranscriptionJobStatus, nil
}

func (a *AWSTranscriber) startJob(ctx context.Context, jobName, mediaKey string) error {
	mediaURI := fmt.Sprintf("s3://%s/%s", a.bucket, mediaKey)
	language := strings.TrimSpace(a.language)
	if language == "" {
		language = DefaultLanguageCode
	}
	_, err := a.jobClient.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: &jobName,
		LanguageCode:         transcribetypes.LanguageCode(language),
		MediaFormat:          transcribetypes.MediaFormatWav,
		Media:                &transcribetypes.Media{MediaFileUri: &mediaURI},
		OutputBucketName:     &a.bucket,
	})
	return err
}

// fetchTranscript downloads and decodes the transcript document the job wrote
// to the output bucket.
func (a *AWSTranscriber) fetchTranscript(ctx context.Context, key string) (*transcriptDocument, error) {
	out, err := a.s3Client.GetObject(ctx, &s3.GetObjectInput{Bucket: &a.bucket, Key: &key})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	var doc transcriptDocument
	if err := json.NewDecoder(out.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &doc, nil
}

// transcriptDocument is the JSON structure Amazon Transcribe writes.
type transcriptDocument struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []transcriptItem `json:"items"`
	} `json:"results"`
	Status string `json:"status"`
}

// transcriptItem is a single recognized word or punctuation mark.
type transcriptItem struct {
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Type         string `json:"type"`
	Alternatives []struct {
		Content string `json:"content"`
	} `json:"alternatives"`
}

func (d *transcriptDocument) fullText() string {
	if len(d.Results.Transcripts) == 0 {
		return ""
	}
	return strings.TrimSpace(d.Results.Transcripts[0].Transcript)
}

// segments groups word items into sentence segments split at terminal
// punctuation, carrying the word-level timestamps onto the sentence.
func (d *transcriptDocument) segments() []align.TranscriptSegment {
	var (
		out   []align.TranscriptSegment
		words []string
		span  align.TimeSpan
		open  bool
	)

	flush := func() {
		if !open || len(words) == 0 {
			words, open = nil, false
			return
		}
		out = append(out, align.TranscriptSegment{
			TimeSpan: span,
			Text:     strings.Join(words, " "),
		})
		words, open = nil, false
	}

	for _, item := range d.Results.Items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content

		if item.Type == "punctuation" {
			if len(words) > 0 {
				words[len(words)-1] += content
			}
			if content == "." || content == "?" || content == "!" {
				flush()
			}
			continue
		}

		start, errStart := strconv.ParseFloat(item.StartTime, 64)
		end, errEnd := strconv.ParseFloat(item.EndTime, 64)
		if errStart != nil || errEnd != nil {
			continue
		}
		if !open {
			span.Start = start
			open = true
		}
		span.End = end
		words = append(words, content)
	}
	flush()

	return out
}

// fileDigest returns the hex SHA-256 of the file contents.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// isNotFound reports whether an AWS error indicates a missing object.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return strings.Contains(err.Error(), "NotFound")
}
