// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

const (
	headerSize = 44

	// IEEE float format tag.
	formatFloat = 3
)

// CacheWriter writes an incrementally growing 32-bit float WAV file. The
// header is written up front with zero sizes and patched on Close, so the
// file can be read while still being written by a reader that derives the
// frame count from the file length rather than the header.
type CacheWriter struct {
	f          *os.File
	sampleRate int
	channels   int
	frames     int64
	buf        []byte
	closed     bool
}

// NewCacheWriter creates path (truncating any existing file) and writes a
// float WAV header for the given rate and channel count.
func NewCacheWriter(path string, sampleRate, channels int) (*CacheWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cache file: %w", err)
	}

	w := &CacheWriter{
		f:          f,
		sampleRate: sampleRate,
		channels:   channels,
	}

	if err := w.writeHeader(0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	// writeHeader uses WriteAt, which leaves the file offset untouched.
	if _, err := f.Seek(headerSize, 0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("seek past cache header: %w", err)
	}

	return w, nil
}

func (w *CacheWriter) writeHeader(dataSize uint32) error {
	numChannels := uint16(w.channels)
	bitsPerSample := uint16(32)
	byteRate := uint32(w.sampleRate) * uint32(numChannels) * uint32(bitsPerSample/8)
	blockAlign := numChannels * bitsPerSample / 8
	riffSize := 36 + dataSize

	header := make([]byte, headerSize)

	// RIFF header (12 bytes)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)
	copy(header[8:12], "WAVE")

	// fmt chunk (24 bytes)
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatFloat)
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	// data chunk header (8 bytes)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.f.WriteAt(header, 0); err != nil {
		return fmt.Errorf("write cache header: %w", err)
	}

	return nil
}

// WriteFrames appends interleaved float32 samples. len(samples) must be a
// multiple of the channel count. A short write (typically a full disc)
// returns an error wrapping ErrShortWrite.
func (w *CacheWriter) WriteFrames(samples []float32) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(samples)%w.channels != 0 {
		return ErrInvalidSampleCount
	}
	if len(samples) == 0 {
		return nil
	}

	need := len(samples) * 4
	if cap(w.buf) < need {
		w.buf = make([]byte, need)
	}
	w.buf = w.buf[:need]

	for i, s := range samples {
		binary.LittleEndian.PutUint32(w.buf[i*4:i*4+4], math.Float32bits(s))
	}

	n, err := w.f.Write(w.buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShortWrite, err)
	}
	if n < need {
		return ErrShortWrite
	}

	w.frames += int64(len(samples) / w.channels)
	return nil
}

// Frames returns the number of frames written so far.
func (w *CacheWriter) Frames() int64 { return w.frames }

// Close patches the header sizes and closes the file.
func (w *CacheWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	dataSize := uint32(w.frames * int64(w.channels) * 4)
	if err := w.writeHeader(dataSize); err != nil {
		w.f.Close()
		return err
	}

	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	return nil
}
