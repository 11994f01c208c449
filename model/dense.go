// SPDX-License-Identifier: EPL-2.0

package model

import (
	"sync"
)

// DenseTimeValue is a dense audio model: a logical vector of interleaved
// float samples at a known rate and channel count. The model may still be
// growing; readers consult Completion/IsReady and re-read as it fills.
type DenseTimeValue interface {
	Model

	Channels() int
	FrameCount() int64

	// InterleavedFrames returns up to count*channels samples starting at
	// the given frame, clamped to the available content. It is safe to
	// call while the model is still being filled.
	InterleavedFrames(start, count int64) []float32
}

var _ DenseTimeValue = (*Samples)(nil)

// Samples is an in-memory dense audio model backed by a plain interleaved
// slice. It serves as transform input in tests and for audio that is
// already resident.
type Samples struct {
	Base

	rate     int
	channels int

	mtx  sync.Mutex
	data []float32
}

// NewSamples wraps interleaved data as a complete dense model.
func NewSamples(rate, channels int, data []float32) *Samples {
	s := &Samples{
		Base:     NewBase(),
		rate:     rate,
		channels: channels,
		data:     data,
	}
	s.SetCompletion(100, false)
	return s
}

// NewGrowableSamples returns an empty, incomplete dense model to be filled
// with Append and finished with SetCompletion(100, true).
func NewGrowableSamples(rate, channels int) *Samples {
	return &Samples{
		Base:     NewBase(),
		rate:     rate,
		channels: channels,
	}
}

func (s *Samples) TypeName() string { return "samples" }
func (s *Samples) SampleRate() int  { return s.rate }
func (s *Samples) Channels() int    { return s.channels }
func (s *Samples) IsOK() bool       { return true }

func (s *Samples) StartFrame() int64 { return 0 }

func (s *Samples) EndFrame() int64 { return s.FrameCount() }

func (s *Samples) FrameCount() int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return int64(len(s.data) / s.channels)
}

// Append adds interleaved samples to the end of the model.
func (s *Samples) Append(samples []float32) {
	s.mtx.Lock()
	start := int64(len(s.data) / s.channels)
	s.data = append(s.data, samples...)
	end := int64(len(s.data) / s.channels)
	s.mtx.Unlock()

	s.EmitChangedWithin(start, end)
}

func (s *Samples) InterleavedFrames(start, count int64) []float32 {
	if start < 0 {
		count += start
		start = 0
	}
	if count <= 0 {
		return nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	ix0 := start * int64(s.channels)
	ix1 := ix0 + count*int64(s.channels)
	n := int64(len(s.data))
	if ix0 >= n {
		return nil
	}
	if ix1 > n {
		ix1 = n
	}

	out := make([]float32, ix1-ix0)
	copy(out, s.data[ix0:ix1])
	return out
}
