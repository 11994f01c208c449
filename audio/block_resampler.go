// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"github.com/ik5/audalyze/utils"
)

// BlockResampler converts interleaved sample blocks from a source rate to a
// target rate using cubic interpolation. Unlike a pull-style resampler it is
// fed blocks as they are decoded, which is the shape a streaming decode
// cache needs: push a block in, get the resampled block out.
//
// Includes basic anti-aliasing filtering when downsampling.
type BlockResampler struct {
	channels int

	// step is how many source frames one output frame advances
	// (srcRate / dstRate).
	step float64

	// Ring buffer holding 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool

	// Position of the next output frame relative to frames[1], in source
	// frames. Kept in [0, 1) while output is produced.
	pos float64

	// Simple low-pass filter state for anti-aliasing (when downsampling)
	filterState []float32
	useFilter   bool
	filterAlpha float32

	out []float32
}

// NewBlockResampler creates a resampler for interleaved blocks with the
// given channel count. srcRate and dstRate are in Hz.
func NewBlockResampler(channels, srcRate, dstRate int) *BlockResampler {
	step := float64(srcRate) / float64(dstRate)

	// Enable simple low-pass filter when downsampling
	useFilter := step > 1.0
	var filterAlpha float32
	if useFilter {
		// One-pole low-pass with a fixed coefficient; the cutoff does not
		// depend on the source or destination rate.
		filterAlpha = 0.5
	}

	r := &BlockResampler{
		channels:    channels,
		step:        step,
		useFilter:   useFilter,
		filterAlpha: filterAlpha,
		filterState: make([]float32, channels),
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

// Ratio returns output frames per input frame (dstRate / srcRate).
func (r *BlockResampler) Ratio() float64 { return 1.0 / r.step }

// Resample pushes one interleaved block through the resampler and returns
// the produced interleaved output. The returned slice is reused by the next
// call. len(in) must be a multiple of the channel count.
func (r *BlockResampler) Resample(in []float32) ([]float32, error) {
	if len(in)%r.channels != 0 {
		return nil, ErrInvalidBlockSize
	}

	r.out = r.out[:0]
	nframes := len(in) / r.channels

	for f := 0; f < nframes; f++ {
		r.push(in[f*r.channels : (f+1)*r.channels])
	}

	return r.out, nil
}

// push feeds one source frame into the ring and emits any output frames
// that become computable.
func (r *BlockResampler) push(frame []float32) {
	if r.useFilter {
		if !r.hasFrame[1] {
			// Initialize filter state with the first frame to avoid
			// warm-up transients.
			copy(r.filterState, frame)
		}
		for c := 0; c < r.channels; c++ {
			// One-pole low-pass: y[n] = alpha * x[n] + (1-alpha) * y[n-1]
			r.filterState[c] = r.filterAlpha*frame[c] + (1-r.filterAlpha)*r.filterState[c]
		}
		frame = r.filterState
	}

	switch {
	case !r.hasFrame[1]:
		// The first frame doubles as its own predecessor, so output
		// starts at the first source frame rather than one frame in.
		copy(r.frames[0], frame)
		copy(r.frames[1], frame)
		r.hasFrame[0], r.hasFrame[1] = true, true
	case !r.hasFrame[2]:
		copy(r.frames[2], frame)
		r.hasFrame[2] = true
	case !r.hasFrame[3]:
		copy(r.frames[3], frame)
		r.hasFrame[3] = true
	default:
		// Shift frames: [0,1,2,3] -> [1,2,3,new]
		recycled := r.frames[0]
		r.frames[0] = r.frames[1]
		r.frames[1] = r.frames[2]
		r.frames[2] = r.frames[3]
		copy(recycled, frame)
		r.frames[3] = recycled
		r.pos -= 1.0
	}

	r.emit()
}

// emit produces every output frame whose position falls between frames[1]
// and frames[2].
func (r *BlockResampler) emit() {
	if !r.hasFrame[1] || !r.hasFrame[2] {
		return
	}

	for r.pos < 1.0 {
		alpha := float32(r.pos)

		for c := 0; c < r.channels; c++ {
			y0 := r.frames[0][c]
			y1 := r.frames[1][c]
			y2 := r.frames[2][c]

			// Duplicate the edge frame when the lookahead slot has not
			// been filled yet.
			y3 := y2
			if r.hasFrame[3] {
				y3 = r.frames[3][c]
			}

			r.out = append(r.out, utils.CubicInterpolate(y0, y1, y2, y3, alpha))
		}

		r.pos += r.step
	}
}
