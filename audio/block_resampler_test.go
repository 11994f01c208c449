package audio

import (
	"math"
	"testing"
)

func sineBlock(rate, totalFrames, channels int, freq float64) []float32 {
	out := make([]float32, totalFrames*channels)
	for f := 0; f < totalFrames; f++ {
		v := float32(math.Sin(2 * math.Pi * freq * float64(f) / float64(rate)))
		for c := 0; c < channels; c++ {
			out[f*channels+c] = v
		}
	}
	return out
}

func resampleAll(t *testing.T, r *BlockResampler, in []float32, channels, blockFrames int) []float32 {
	t.Helper()

	var out []float32
	for i := 0; i < len(in); i += blockFrames * channels {
		end := i + blockFrames*channels
		if end > len(in) {
			end = len(in)
		}
		got, err := r.Resample(in[i:end])
		if err != nil {
			t.Fatalf("Resample() error = %v", err)
		}
		out = append(out, got...)
	}
	return out
}

func TestBlockResampler_InvalidBlockSize(t *testing.T) {
	t.Parallel()

	r := NewBlockResampler(2, 44100, 22050)
	if _, err := r.Resample(make([]float32, 3)); err != ErrInvalidBlockSize {
		t.Errorf("Resample(odd block) error = %v, want ErrInvalidBlockSize", err)
	}
}

func TestBlockResampler_Downsampling(t *testing.T) {
	t.Parallel()

	in := sineBlock(44100, 44100, 1, 440)
	r := NewBlockResampler(1, 44100, 8000)

	out := resampleAll(t, r, in, 1, 1024)
	// Trailing frames need lookahead; flush with a few zero frames.
	flush, err := r.Resample(make([]float32, 16))
	if err != nil {
		t.Fatalf("flush Resample() error = %v", err)
	}
	out = append(out, flush...)

	expected := 8000
	tolerance := 16
	if len(out) < expected-tolerance || len(out) > expected+tolerance {
		t.Errorf("resampled %d frames, want ≈%d (±%d)", len(out), expected, tolerance)
	}

	for i, s := range out {
		if s < -1.5 || s > 1.5 {
			t.Fatalf("out[%d] = %v, outside reasonable range [-1.5, 1.5]", i, s)
		}
	}
}

func TestBlockResampler_Upsampling(t *testing.T) {
	t.Parallel()

	in := sineBlock(8000, 8000, 1, 440)
	r := NewBlockResampler(1, 8000, 44100)

	out := resampleAll(t, r, in, 1, 512)
	flush, err := r.Resample(make([]float32, 8))
	if err != nil {
		t.Fatalf("flush Resample() error = %v", err)
	}
	out = append(out, flush...)

	expected := 44100
	tolerance := 64
	if len(out) < expected-tolerance || len(out) > expected+tolerance {
		t.Errorf("resampled %d frames, want ≈%d (±%d)", len(out), expected, tolerance)
	}
}

func TestBlockResampler_PreservesChannels(t *testing.T) {
	t.Parallel()

	// Two channels carrying distinct constants must stay distinct.
	const frames = 2000
	in := make([]float32, frames*2)
	for f := 0; f < frames; f++ {
		in[f*2] = 0.25
		in[f*2+1] = -0.5
	}

	r := NewBlockResampler(2, 48000, 16000)
	out := resampleAll(t, r, in, 2, 256)

	if len(out)%2 != 0 {
		t.Fatalf("output length %d not a multiple of channel count", len(out))
	}

	// Skip the filter warm-up region at the start.
	for f := 16; f < len(out)/2; f++ {
		if math.Abs(float64(out[f*2]-0.25)) > 0.05 {
			t.Fatalf("out[%d] channel 0 = %v, want ≈0.25", f, out[f*2])
		}
		if math.Abs(float64(out[f*2+1]+0.5)) > 0.05 {
			t.Fatalf("out[%d] channel 1 = %v, want ≈-0.5", f, out[f*2+1])
		}
	}
}

func TestBlockResampler_UnityRatioPassesThrough(t *testing.T) {
	t.Parallel()

	in := sineBlock(8000, 100, 1, 100)
	r := NewBlockResampler(1, 8000, 8000)

	out := resampleAll(t, r, in, 1, 100)

	// With a unity ratio every source frame maps to one output frame,
	// delayed by the interpolation lookahead.
	if len(out) < 95 || len(out) > 100 {
		t.Fatalf("unity ratio produced %d frames from 100", len(out))
	}
	for i := 0; i < len(out); i++ {
		if math.Abs(float64(out[i]-in[i])) > 1e-4 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestMixDownTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		src      []float32
		want     []float32
	}{
		{"mono passthrough", 1, []float32{0.1, 0.2}, []float32{0.1, 0.2}},
		{"stereo", 2, []float32{1, 0, 0.5, 0.5}, []float32{0.5, 0.5}},
		{"quad", 4, []float32{1, 1, 0, 0}, []float32{0.5}},
		{"three channels", 3, []float32{0.3, 0.3, 0.3}, []float32{0.3}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dst := make([]float32, len(tt.want))
			n := MixDownTo(dst, tt.src, tt.channels)
			if n != len(tt.want) {
				t.Fatalf("MixDownTo() = %d frames, want %d", n, len(tt.want))
			}
			for i := range tt.want {
				if math.Abs(float64(dst[i]-tt.want[i])) > 1e-6 {
					t.Errorf("dst[%d] = %v, want %v", i, dst[i], tt.want[i])
				}
			}
		})
	}
}
