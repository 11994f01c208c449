// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV decoding plus the float cache codec used by the
// streaming decode cache.
//
// # Decoding
//
// Decoder adapts the go-audio WAV decoder to the audio.Source interface:
//
//	src, err := wav.Decoder{}.Decode(file)
//
// Samples are normalised to float32 in [-1, 1] according to the source bit
// depth.
//
// # Cache codec
//
// CacheWriter and CacheReader implement the on-disk backing store for
// decoded audio: a 32-bit IEEE float WAV whose data chunk grows while the
// decode is still in progress. The writer patches the header sizes on
// Close; the reader derives the frame count from the file length and can
// be refreshed with UpdateFrameCount while the writer is appending, so one
// goroutine can write while others read.
package wav
