// Package asr wraps speech recognition backends behind one Recognizer
// interface. The default backend drives WhisperX through uvx; the aws
// backend uploads the recording to S3 and runs an Amazon Transcribe job.
package asr
