package analysis

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Waveform holds decoded mono PCM audio as float64 samples in [-1, 1].
type Waveform struct {
	SampleRate int
	Samples    []float64
}

// Duration returns the waveform length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Slice returns the samples covering the half-open time range [start, end),
// clamped to the waveform. An inverted or out-of-range span yields nil.
func (w *Waveform) Slice(start, end float64) []float64 {
	if w.SampleRate <= 0 || end <= start {
		return nil
	}
	lo := int(start * float64(w.SampleRate))
	hi := int(end * float64(w.SampleRate))
	if lo < 0 {
		lo = 0
	}
	if hi > len(w.Samples) {
		hi = len(w.Samples)
	}
	if lo >= hi {
		return nil
	}
	return w.Samples[lo:hi]
}

// ReadWAV decodes a mono 16-bit PCM WAV file. This is the format the
// normalizer produces, so anything else is rejected.
func ReadWAV(path string) (*Waveform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%s: not a RIFF/WAVE file", path)
	}

	var (
		sampleRate int
		pcm        []byte
		haveFmt    bool
	)

	// Walk the chunk list; fmt and data may appear after optional chunks.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkLen := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkLen > len(data) {
			chunkLen = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return nil, fmt.Errorf("%s: short fmt chunk", path)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])
			if format != 1 || channels != 1 || bits != 16 {
				return nil, fmt.Errorf("%s: want mono 16-bit PCM, got format=%d channels=%d bits=%d", path, format, channels, bits)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+chunkLen]
		}

		// Chunks are word aligned.
		offset = body + chunkLen
		if chunkLen%2 == 1 {
			offset++
		}
	}

	if !haveFmt {
		return nil, fmt.Errorf("%s: missing fmt chunk", path)
	}
	if pcm == nil {
		return nil, fmt.Errorf("%s: missing data chunk", path)
	}

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float64(v) / 32768.0
	}
	return &Waveform{SampleRate: sampleRate, Samples: samples}, nil
}
