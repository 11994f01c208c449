// SPDX-License-Identifier: EPL-2.0

// Package audio provides low-level audio processing primitives.
//
// This package contains the building blocks shared by the decoders and the
// streaming decode cache:
//   - Source interface for audio input
//   - BlockResampler for push-style sample rate conversion
//   - MixDownTo for interleaved channel averaging
//   - Format registry for decoder registration
//
// # Source Interface
//
// The Source interface is the foundation of audio decoding:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// All audio decoders implement this interface, so any format can feed the
// same downstream pipeline.
//
// # Resampling
//
// BlockResampler changes the sample rate of interleaved blocks using cubic
// interpolation. It is push-driven: a decode loop hands it blocks as they
// arrive and appends whatever output is produced:
//
//	rs := audio.NewBlockResampler(channels, 44100, 22050)
//	out, err := rs.Resample(block)
//
// Because interpolation needs lookahead, the final few output frames only
// appear once trailing (zero) frames have been pushed; a streaming consumer
// pads at end of stream and clips the total to the expected length.
//
// Resampling works for both upsampling and downsampling.
package audio
