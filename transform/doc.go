// SPDX-License-Identifier: EPL-2.0

// Package transform runs feature-extraction plugins over dense audio
// models and streams the emitted features into output models.
//
// A Transformer is built from an Input (a dense audio model plus channel
// selection) and one or more Transforms that differ only in which plugin
// output they capture. Construction resolves the plugin through a
// registry, negotiates channel count and block geometry, and classifies
// each selected output's declared shape to pick an output model:
// instants, time-values, notes, regions, or a dense grid.
//
//	tr, err := transform.NewTransformer(in, transforms, registry)
//	if err != nil { ... }
//	go tr.Run()
//
// Run waits for the input model to become ready, then pumps fixed-size
// blocks through the plugin: raw samples for time-domain plugins, windowed
// FFT columns (via FFTColumns) for frequency-domain ones. Completion of
// every output rises monotonically and reaches exactly 100 on all exit
// paths; Abandon cancels cooperatively between blocks.
package transform
