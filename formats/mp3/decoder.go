// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audalyze/audio"
)

const bytesPerSample = 2

// pcmReader is the part of gomp3.Decoder the source needs; an interface so
// tests can script the byte stream.
type pcmReader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

// source adapts go-mp3's byte-oriented PCM output to audio.Source. go-mp3
// always produces 16-bit little-endian stereo, whatever the file carried.
type source struct {
	dec        pcmReader
	sampleRate int
	channels   int

	buf   []byte
	carry byte
	held  bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) BufSize() int { return cap(s.buf) / bytesPerSample }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	bytesNeeded := len(dst) * bytesPerSample
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	// A previous read may have ended mid-sample.
	offset := 0
	if s.held {
		s.buf[0] = s.carry
		s.held = false
		offset = 1
	}

	n, err := s.dec.Read(s.buf[offset:])
	n += offset

	if n%bytesPerSample != 0 {
		s.carry = s.buf[n-1]
		s.held = true
		n--
	}

	samples := n / bytesPerSample
	if samples == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	for i := 0; i < samples; i++ {
		v := int16(binary.LittleEndian.Uint16(s.buf[i*bytesPerSample:]))
		dst[i] = float32(v) / 32768.0
	}

	return samples, err
}

// Decoder decodes MP3 streams. The resulting Source is typically drained
// by decode.Run into a decode cache.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("open mp3 stream: %w", err)
	}

	// go-mp3 upmixes everything to stereo.
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   2,
		buf:        make([]byte, 8192),
	}, nil
}
