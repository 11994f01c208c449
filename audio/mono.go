package audio

// MixDownTo averages interleaved multi-channel samples into dst, one value
// per frame. dst must have room for len(src)/channels values. Returns the
// number of frames written.
func MixDownTo(dst, src []float32, channels int) int {
	if channels <= 1 {
		n := copy(dst, src)
		return n
	}

	frames := len(src) / channels
	if frames > len(dst) {
		frames = len(dst)
	}

	// Optimize: cache division result
	invChannels := float32(1.0) / float32(channels)

	// Unrolled loop for common cases
	switch channels {
	case 2: // Stereo (most common)
		for f := 0; f < frames; f++ {
			idx := f << 1 // f * 2
			dst[f] = (src[idx] + src[idx+1]) * 0.5
		}
	case 4: // Quad
		for f := 0; f < frames; f++ {
			idx := f << 2 // f * 4
			sum := src[idx] + src[idx+1] + src[idx+2] + src[idx+3]
			dst[f] = sum * 0.25
		}
	default: // Generic path
		for f := 0; f < frames; f++ {
			sum := float32(0)
			baseIdx := f * channels
			for c := 0; c < channels; c++ {
				sum += src[baseIdx+c]
			}
			dst[f] = sum * invChannels
		}
	}

	return frames
}
