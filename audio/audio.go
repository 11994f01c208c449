// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"sort"
	"sync"
)

// Source is a pull-style stream of decoded PCM, the contract between the
// format decoders and the decode cache that drains them. Samples are
// interleaved float32 in [-1, 1]; frame and channel geometry is fixed for
// the life of the source.
type Source interface {
	// SampleRate of the stream in Hz. For formats that only discover the
	// rate mid-stream, it is valid by the time the Source exists.
	SampleRate() int

	// Channels in each frame (1=mono, 2=stereo).
	Channels() int

	// ReadSamples fills dst with interleaved samples and returns how many
	// float32 values were written (not frames). A return of 0 with
	// io.EOF means the stream is finished; 0 with another error means
	// the current frame could not be decoded.
	ReadSamples(dst []float32) (n int, err error)

	// BufSize suggests a read buffer size in samples.
	BufSize() int

	// Close releases any resources held by the decoder.
	Close() error
}

// Decoder constructs a Source from an encoded input stream.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry maps format keys ("wav", "mp3", "ogg") to decoders, so a decode
// pipeline can be assembled from nothing but a file extension.
type Registry struct {
	mtx      sync.Mutex
	decoders map[string]Decoder
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: make(map[string]Decoder),
	}
}

// Register adds or replaces the decoder for a format key.
func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.decoders[format] = d
}

// Get resolves the decoder for a format key.
func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.decoders[format]
	return d, ok
}

// Formats lists the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make([]string, 0, len(r.decoders))
	for format := range r.decoders {
		out = append(out, format)
	}
	sort.Strings(out)

	return out
}
