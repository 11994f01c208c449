// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 streams to the audio.Source interface using
// github.com/hajimehoshi/go-mp3.
//
//	src, err := mp3.Decoder{}.Decode(file)
//
// The decoder yields interleaved float32 samples in [-1, 1]; go-mp3
// always produces two channels. A source is typically handed to
// decode.Run, which pushes the stream into a decode cache on its own
// goroutine.
package mp3
