// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams to the audio.Source interface
// using github.com/jfreymuth/oggvorbis.
//
//	src, err := vorbis.Decoder{}.Decode(file)
//
// Samples arrive as interleaved float32 straight from the underlying
// decoder.
package vorbis
