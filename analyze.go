package audalyze

import (
	"fmt"
	"io"
	"time"

	"github.com/ik5/audalyze/audio"
	"github.com/ik5/audalyze/decode"
	"github.com/ik5/audalyze/model"
	"github.com/ik5/audalyze/plugin"
	"github.com/ik5/audalyze/transform"
)

// Analyze is a high-level convenience function that decodes an audio
// stream and runs one plugin over it, returning the output models.
//
// The pipeline it assembles:
//  1. Resolves a decoder for format from the decoder registry and starts
//     a decode goroutine filling a decode.Cache per opts
//  2. Builds a transformer for the given transforms (which must differ
//     only in their chosen plugin output)
//  3. Runs the transformer to completion on the calling goroutine
//
// The returned message carries any warnings the transformer accumulated
// (adjusted block sizes, version mismatches); it is empty when all went
// cleanly. The decode cache is released before returning: the output
// models own copies of everything they need.
//
// Note: This is a convenience function for common use cases. For more
// control over the pipeline — several plugins over one decode, progress
// observation, cancellation — use decode.Open and transform.NewTransformer
// directly.
func Analyze(r io.Reader, format string,
	decoders *audio.Registry, plugins *plugin.Registry,
	transforms []transform.Transform, opts decode.Options) ([]model.Model, string, error) {

	cache, err := decode.Open(r, format, decoders, opts)
	if err != nil {
		return nil, "", fmt.Errorf("%w", err)
	}
	defer cache.Close()

	// The transformer reads the input's rate and channel count when it is
	// built; wait until the decode goroutine has initialised the cache.
	for cache.SampleRate() == 0 && !cache.IsReady() {
		time.Sleep(time.Millisecond)
	}

	tr, err := transform.NewTransformer(
		transform.Input{Model: cache, Channel: -1}, transforms, plugins)
	if err != nil {
		return nil, "", fmt.Errorf("%w", err)
	}

	tr.Run()

	return tr.Outputs(), tr.Message(), nil
}
