// Package analysis computes per-segment acoustic feature vectors from the
// normalized recording. The features are time-domain summaries that stand in
// for the usual prosody descriptors without an external DSP dependency.
package analysis

import (
	"math"

	"parley/internal/align"
)

// FeatureDimension is the fixed length of every extracted vector.
const FeatureDimension = 8

// Feature vector layout. Kept stable because downstream consumers index by
// position.
const (
	FeatDuration = iota
	FeatRMS
	FeatLogEnergy
	FeatZeroCrossRate
	FeatPeak
	FeatMeanAbs
	FeatAmplitudeStdDev
	FeatSpectralTilt
)

// Extractor slices a WAV recording per segment and summarizes each slice.
type Extractor struct{}

// NewExtractor returns a ready Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns one FeatureDimension-length vector per span, in span order.
// Spans that are inverted, empty, or outside the recording produce a zero
// vector rather than an error; only an unreadable WAV file fails the call.
func (e *Extractor) Extract(wavPath string, spans []align.TimeSpan) ([][]float64, error) {
	wave, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(spans))
	for i, span := range spans {
		vectors[i] = featuresOf(wave.Slice(span.Start, span.End), wave.SampleRate)
	}
	return vectors, nil
}

// featuresOf summarizes one sample slice. A nil or empty slice yields the
// zero vector.
func featuresOf(samples []float64, sampleRate int) []float64 {
	vec := make([]float64, FeatureDimension)
	n := len(samples)
	if n == 0 || sampleRate <= 0 {
		return vec
	}

	var (
		sumSq     float64
		sumAbs    float64
		peak      float64
		crossings int
		diffSq    float64
	)
	for i, s := range samples {
		sumSq += s * s
		abs := math.Abs(s)
		sumAbs += abs
		if abs > peak {
			peak = abs
		}
		if i > 0 {
			if (s >= 0) != (samples[i-1] >= 0) {
				crossings++
			}
			d := s - samples[i-1]
			diffSq += d * d
		}
	}

	mean := sumAbs / float64(n)
	var varAcc float64
	for _, s := range samples {
		d := math.Abs(s) - mean
		varAcc += d * d
	}

	vec[FeatDuration] = float64(n) / float64(sampleRate)
	vec[FeatRMS] = math.Sqrt(sumSq / float64(n))
	vec[FeatLogEnergy] = math.Log1p(sumSq)
	vec[FeatZeroCrossRate] = float64(crossings) / float64(n)
	vec[FeatPeak] = peak
	vec[FeatMeanAbs] = mean
	vec[FeatAmplitudeStdDev] = math.Sqrt(varAcc / float64(n))
	// Ratio of first-difference energy to signal energy. Rises with
	// high-frequency content, a cheap proxy for spectral tilt.
	if sumSq > 0 {
		vec[FeatSpectralTilt] = diffSq / sumSq
	}
	return vec
}

// ZeroVector returns an all-zero feature vector, used for segments that
// cannot be analyzed.
func ZeroVector() []float64 {
	return make([]float64, FeatureDimension)
}
