package testsupport

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// WriteWAV writes a mono 16-bit PCM WAV file of the given duration filled
// with a quiet sine tone. Returns the file path.
func WriteWAV(t testing.TB, dir, name string, sampleRate int, seconds float64) string {
	t.Helper()

	samples := int(float64(sampleRate) * seconds)
	dataLen := samples * 2
	buf := make([]byte, 44+dataLen)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i := 0; i < samples; i++ {
		v := 0.25 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(int16(v*math.MaxInt16)))
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}
