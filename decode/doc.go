// SPDX-License-Identifier: EPL-2.0

// Package decode turns streams of pushed PCM blocks into randomly readable
// dense audio models.
//
// A Cache accepts interleaved (or per-channel) sample blocks at a source
// rate discovered at stream start, optionally resamples them to a target
// rate and either clips or peak-normalises, and stores the result in
// memory or in a temporary 32-bit float WAV file that stays readable while
// the decode is still writing. Normalisation gain is applied at read time,
// so it remains correct as the running peak grows.
//
//	c := decode.NewCache(decode.Options{
//	    Mode:       decode.InTemporaryFile,
//	    TargetRate: 22050,
//	    Normalise:  true,
//	})
//	c.Initialise(srcRate, channels)
//	c.AddSamples(block)      // repeatedly, from the decode goroutine
//	c.Finish()
//
// Run drives a whole audio.Source through a cache, and Open assembles
// decoder, cache and decode goroutine from a format registry in one call.
//
// If the backing cache file cannot be created the mode degrades silently
// to in-memory. A short write (full disc) surfaces as ErrShortWrite and
// stops the decode.
package decode
