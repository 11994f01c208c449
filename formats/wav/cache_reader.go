// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"
)

// CacheReader provides thread-safe random access to a 32-bit float WAV
// file that may still be growing. The frame count is derived from the file
// length, not the header, and refreshed by UpdateFrameCount; all reads use
// positional I/O so concurrent readers never share seek state.
type CacheReader struct {
	mtx        sync.Mutex
	f          *os.File
	sampleRate int
	channels   int
	frames     int64
}

// OpenCacheReader opens a float WAV file for concurrent reading. The header
// must describe 32-bit IEEE float samples in the canonical 44-byte layout.
func OpenCacheReader(path string) (*CacheReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache file: %w", err)
	}

	header := make([]byte, headerSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("read cache header: %w", err)
	}

	if !bytes.HasPrefix(header[:4], []byte("RIFF")) || !bytes.HasPrefix(header[8:12], []byte("WAVE")) {
		f.Close()
		return nil, ErrNotWavFile
	}
	if !bytes.HasPrefix(header[12:16], []byte("fmt ")) {
		f.Close()
		return nil, ErrUnsupportedWavLayout
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	channels := int(binary.LittleEndian.Uint16(header[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(header[24:28]))
	bitsPerSample := int(binary.LittleEndian.Uint16(header[34:36]))

	if audioFormat != formatFloat || bitsPerSample != 32 {
		f.Close()
		return nil, ErrOnlyFloat32Supported
	}
	if !bytes.HasPrefix(header[36:40], []byte("data")) {
		f.Close()
		return nil, ErrUnsupportedWavLayout
	}

	r := &CacheReader{
		f:          f,
		sampleRate: sampleRate,
		channels:   channels,
	}
	r.UpdateFrameCount()

	return r, nil
}

func (r *CacheReader) SampleRate() int { return r.sampleRate }
func (r *CacheReader) Channels() int   { return r.channels }

// FrameCount returns the frame count as of the last UpdateFrameCount.
func (r *CacheReader) FrameCount() int64 {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.frames
}

// UpdateFrameCount re-derives the frame count from the current file size.
// The writer side calls this periodically while the file grows.
func (r *CacheReader) UpdateFrameCount() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	info, err := r.f.Stat()
	if err != nil {
		return
	}

	dataBytes := info.Size() - headerSize
	if dataBytes < 0 {
		dataBytes = 0
	}
	r.frames = dataBytes / int64(4*r.channels)
}

// InterleavedFrames reads up to count frames starting at start, clamped to
// the known frame count. It is safe to call concurrently with writes to
// the underlying file.
func (r *CacheReader) InterleavedFrames(start, count int64) []float32 {
	r.mtx.Lock()
	frames := r.frames
	r.mtx.Unlock()

	if start < 0 {
		count += start
		start = 0
	}
	if start >= frames || count <= 0 {
		return nil
	}
	if start+count > frames {
		count = frames - start
	}

	nsamples := count * int64(r.channels)
	raw := make([]byte, nsamples*4)
	offset := headerSize + start*int64(4*r.channels)

	n, err := r.f.ReadAt(raw, offset)
	if err != nil && n == 0 {
		return nil
	}
	raw = raw[:n-n%4]

	out := make([]float32, len(raw)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}

	return out
}

// Close closes the underlying file.
func (r *CacheReader) Close() error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.f.Close()
}
