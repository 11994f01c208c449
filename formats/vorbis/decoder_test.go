package vorbis

import (
	"bytes"
	"io"
	"testing"
)

// mockOggReader simulates oggvorbis.Reader's Read, which returns the
// number of float32 values decoded.
type mockOggReader struct {
	data     []float32
	pos      int
	rate     int
	channels int
}

func (m *mockOggReader) SampleRate() int { return m.rate }
func (m *mockOggReader) Channels() int   { return m.channels }

func (m *mockOggReader) Read(p []float32) (int, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	s := &source{
		dec:        &mockOggReader{data: []float32{0.1, 0.2, 0.3, 0.4}, rate: 48000, channels: 2},
		sampleRate: 48000,
		channels:   2,
		frameBuf:   make([]float32, 16),
	}

	dst := make([]float32, 4)
	n, err := s.ReadSamples(dst)
	if err != nil && err != io.EOF {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadSamples() = %d samples, want 4", n)
	}
	for i, want := range []float32{0.1, 0.2, 0.3, 0.4} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("not an ogg stream"))); err == nil {
		t.Error("Decode(garbage) succeeded, want error")
	}
}
