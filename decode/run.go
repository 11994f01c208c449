// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audalyze/audio"
	"github.com/ik5/audalyze/internal/log"
)

// ErrUnknownFormat reports a format key with no registered decoder.
var ErrUnknownFormat = errors.New("no decoder registered for format")

// maxBarrenReads bounds how many consecutive sample-less error reads are
// tolerated before the stream is considered unrecoverable.
const maxBarrenReads = 64

// Run drives one decode: it initialises the cache from the source's rate
// and channel count, pulls samples until the stream ends, and finishes the
// cache. It blocks until the stream is done and is normally run on its own
// goroutine. The cache is always finished on return, so readers waiting on
// completion are unblocked even after an error.
//
// A decode error from the source is logged and skipped; the stream
// continues past the bad frame. Only a cache write failure, or a source
// that yields nothing but errors, ends the decode early.
func Run(src audio.Source, c *Cache) error {
	if err := c.Initialise(src.SampleRate(), src.Channels()); err != nil {
		c.Finish()
		return err
	}

	bufSize := src.BufSize()
	if bufSize <= 0 {
		bufSize = 4096
	}
	if rem := bufSize % src.Channels(); rem != 0 {
		bufSize += src.Channels() - rem
	}
	buf := make([]float32, bufSize)

	var runErr error
	barren := 0
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			barren = 0
			if perr := c.AddSamples(buf[:n]); perr != nil {
				runErr = perr
				break
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			if n == 0 {
				barren++
				if barren >= maxBarrenReads {
					log.Warn("decode produced errors only, giving up", "error", err)
					runErr = err
					break
				}
			}
			log.Warn("decode error, continuing past bad frame", "error", err)
			continue
		}
	}

	if ferr := c.Finish(); ferr != nil && runErr == nil {
		runErr = ferr
	}
	return runErr
}

// Open resolves a decoder for format from the registry, starts a decode
// goroutine feeding a new cache, and returns the cache immediately. The
// caller observes progress through the cache's completion.
func Open(r io.Reader, format string, reg *audio.Registry, opts Options) (*Cache, error) {
	dec, ok := reg.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	src, err := dec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	c := NewCache(opts)

	go func() {
		defer src.Close()
		if err := Run(src, c); err != nil {
			log.Warn("decode failed", "format", format, "error", err)
		}
	}()

	return c, nil
}
