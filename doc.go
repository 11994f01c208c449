// SPDX-License-Identifier: EPL-2.0

// Package audalyze provides a streaming audio-analysis engine: decoded
// audio flows into dense sample models, feature-extraction plugins run
// over them, and the results land in sparse annotation models.
//
// # Supported Formats
//
// The package decodes the following audio formats into its cache:
//   - WAV via formats/wav
//   - MP3 via formats/mp3
//   - Ogg Vorbis via formats/vorbis
//
// # Quick Start
//
// The simplest way to analyse a stream end to end is Analyze:
//
//	decoders := audio.NewRegistry()
//	decoders.Register("wav", wav.Decoder{})
//
//	plugins := plugin.NewRegistry()
//	plugins.Register("vamp:example:onsets", myFactory)
//
//	models, message, err := audalyze.Analyze(file, "wav",
//	    decoders, plugins,
//	    []transform.Transform{{PluginIdentifier: "vamp:example:onsets"}},
//	    decode.Options{TargetRate: 22050})
//
// Analyze decodes on a background goroutine into a decode.Cache, drives
// the plugin block by block once the decode completes, and returns one
// output model per transform.
//
// For finer control, assemble the pieces directly: decode.Open or
// decode.Run to fill a cache, transform.NewTransformer plus Run on a
// goroutine of your choosing, and the model package's observers for
// progress.
package audalyze
