// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/audalyze/audio"
	"github.com/ik5/audalyze/model"
)

// FFTColumns serves windowed FFT columns of one channel of a dense audio
// model. Column i is the transform of a block centred on frame i*step,
// which is the frequency-domain layout feature-extraction plugins expect.
type FFTColumns struct {
	input     model.DenseTimeValue
	channel   int // -1 mixes all channels down
	blockSize int
	stepSize  int

	window []float64
	fft    *fourier.FFT

	frame []float32
	mono  []float32
	seq   []float64
	coeff []complex128
}

// NewFFTColumns prepares an FFT column provider over input. channel is a
// zero-based channel index, or -1 for a mean of all channels.
func NewFFTColumns(input model.DenseTimeValue, channel int,
	windowType WindowType, blockSize, stepSize int) *FFTColumns {

	return &FFTColumns{
		input:     input,
		channel:   channel,
		blockSize: blockSize,
		stepSize:  stepSize,
		window:    makeWindow(windowType, blockSize),
		fft:       fourier.NewFFT(blockSize),
		seq:       make([]float64, blockSize),
		coeff:     make([]complex128, blockSize/2+1),
	}
}

// BinCount returns the number of complex bins per column (blockSize/2+1).
func (f *FFTColumns) BinCount() int { return f.blockSize/2 + 1 }

// ValuesAt fills reals and imags (each BinCount long) with the transform
// of the column centred on frame col*step. Frames outside the model are
// read as zero.
func (f *FFTColumns) ValuesAt(col int, reals, imags []float64) {
	start := int64(col)*int64(f.stepSize) - int64(f.blockSize)/2

	mono := f.readMono(start, f.blockSize)

	for i := 0; i < f.blockSize; i++ {
		f.seq[i] = float64(mono[i]) * f.window[i]
	}

	f.fft.Coefficients(f.coeff, f.seq)

	for i := range f.coeff {
		reals[i] = real(f.coeff[i])
		imags[i] = imag(f.coeff[i])
	}
}

// readMono returns size frames of the selected channel starting at start,
// zero-padded where the model has no content.
func (f *FFTColumns) readMono(start int64, size int) []float32 {
	if cap(f.mono) < size {
		f.mono = make([]float32, size)
	}
	f.mono = f.mono[:size]
	for i := range f.mono {
		f.mono[i] = 0
	}

	offset := 0
	if start < 0 {
		offset = int(-start)
		if offset >= size {
			return f.mono
		}
		start = 0
	}

	channels := f.input.Channels()
	interleaved := f.input.InterleavedFrames(start, int64(size-offset))
	got := len(interleaved) / channels

	switch {
	case channels == 1:
		copy(f.mono[offset:], interleaved[:got])

	case f.channel >= 0 && f.channel < channels:
		for i := 0; i < got; i++ {
			f.mono[offset+i] = interleaved[i*channels+f.channel]
		}

	default:
		if cap(f.frame) < got {
			f.frame = make([]float32, got)
		}
		audio.MixDownTo(f.frame[:got], interleaved[:got*channels], channels)
		copy(f.mono[offset:], f.frame[:got])
	}

	return f.mono
}
