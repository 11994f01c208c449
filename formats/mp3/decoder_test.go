package mp3

import (
	"bytes"
	"io"
	"testing"
)

// mockMP3Reader simulates go-mp3's byte-oriented PCM output.
type mockMP3Reader struct {
	data []byte
	pos  int
	rate int
}

func (m *mockMP3Reader) Read(p []byte) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *mockMP3Reader) SampleRate() int { return m.rate }

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	// Two int16 little-endian samples: 16384 (0.5) and -16384 (-0.5).
	data := []byte{0x00, 0x40, 0x00, 0xC0}

	s := &source{
		dec:        &mockMP3Reader{data: data, rate: 44100},
		sampleRate: 44100,
		channels:   2,
	}

	dst := make([]float32, 2)
	n, err := s.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("ReadSamples() = %d samples, want 2", n)
	}
	if dst[0] != 0.5 {
		t.Errorf("dst[0] = %v, want 0.5", dst[0])
	}
	if dst[1] != -0.5 {
		t.Errorf("dst[1] = %v, want -0.5", dst[1])
	}

	if n, err := s.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() after end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("definitely not an mp3"))); err == nil {
		t.Error("Decode(garbage) succeeded, want error")
	}
}
