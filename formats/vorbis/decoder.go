// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audalyze/audio"
)

// frameReader is the part of oggvorbis.Reader the source needs; an
// interface so tests can script the stream.
type frameReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

// source adapts oggvorbis's reads to audio.Source. The underlying decoder
// already produces interleaved float32 and reports how many values it
// decoded, so this mostly clamps request lengths to whole frames.
type source struct {
	dec        frameReader
	sampleRate int
	channels   int

	frameBuf []float32
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) BufSize() int { return cap(s.frameBuf) }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// oggvorbis requires the request length to be a multiple of the
	// channel count, and returns the number of values decoded.
	samplesWanted := (len(dst) / s.channels) * s.channels
	if samplesWanted == 0 {
		return 0, nil
	}

	if cap(s.frameBuf) < samplesWanted {
		s.frameBuf = make([]float32, samplesWanted)
	}
	s.frameBuf = s.frameBuf[:samplesWanted]

	samples, err := s.dec.Read(s.frameBuf)
	if samples == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	copy(dst, s.frameBuf[:samples])

	return samples, err
}

// Decoder decodes Ogg Vorbis streams. The resulting Source is typically
// drained by decode.Run into a decode cache.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open ogg vorbis stream: %w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		frameBuf:   make([]float32, 4096),
	}, nil
}
