// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/ik5/audalyze/audio"
	wavf "github.com/ik5/audalyze/formats/wav"
	"github.com/ik5/audalyze/internal/log"
	"github.com/ik5/audalyze/model"
)

// CacheMode selects where decoded samples are kept.
type CacheMode int

const (
	// InMemory keeps the decoded stream in a float slice.
	InMemory CacheMode = iota
	// InTemporaryFile keeps it in a float WAV under the Env's temp
	// directory, readable while the decode is still writing.
	InTemporaryFile
)

// Options configures a Cache.
type Options struct {
	Mode CacheMode
	// TargetRate is the rate the cache stores, 0 meaning the source rate.
	TargetRate int
	// Normalise applies peak normalisation at read time instead of
	// clipping at write time.
	Normalise bool
	// Env supplies the temp directory; nil means DefaultEnv.
	Env *Env
}

const writeBufferFrames = 16384

var _ model.DenseTimeValue = (*Cache)(nil)

// Cache turns a stream of pushed PCM blocks at a source rate into a
// randomly readable dense audio model at the target rate. Reads are safe
// concurrently with pushes.
type Cache struct {
	model.Base

	opts Options
	env  *Env

	// cacheMtx guards the write path: buffer, file handles, state.
	cacheMtx sync.Mutex

	initialised bool
	finished    bool
	mode        CacheMode

	fileRate   int
	sampleRate int
	channels   int

	writeBuffer      []float32
	writeBufferIndex int

	resampler *audio.BlockResampler

	fileFrameCount int64
	frameCount     int64

	// dataMtx guards the in-memory sample vector and the normalisation
	// gain on the hot read path.
	dataMtx sync.Mutex
	data    []float32
	max     float32
	gain    float32

	cacheFileName string
	cacheWriter   *wavf.CacheWriter
	cacheReader   *wavf.CacheReader
}

// NewCache creates an uninitialised cache. Initialise must be called once
// the source rate and channel count are known, before the first AddSamples.
func NewCache(opts Options) *Cache {
	env := opts.Env
	if env == nil {
		env = DefaultEnv
	}

	return &Cache{
		Base: model.NewBase(),
		opts: opts,
		env:  env,
		mode: opts.Mode,
		gain: 1,
	}
}

func (c *Cache) TypeName() string { return "decoded-audio" }

func (c *Cache) IsOK() bool { return true }

// SampleRate returns the rate samples are stored at (the target rate, or
// the source rate when no target was requested).
func (c *Cache) SampleRate() int {
	c.cacheMtx.Lock()
	defer c.cacheMtx.Unlock()
	return c.sampleRate
}

func (c *Cache) Channels() int {
	c.cacheMtx.Lock()
	defer c.cacheMtx.Unlock()
	return c.channels
}

func (c *Cache) StartFrame() int64 { return 0 }

func (c *Cache) EndFrame() int64 { return c.FrameCount() }

// FrameCount returns the number of frames stored so far.
func (c *Cache) FrameCount() int64 {
	c.cacheMtx.Lock()
	defer c.cacheMtx.Unlock()
	return c.frameCount
}

// Initialise prepares the backing store. sourceRate must be known; an
// unknown (zero) rate is a programming error in the caller and panics.
// Initialising twice is a no-op.
func (c *Cache) Initialise(sourceRate, channels int) error {
	c.cacheMtx.Lock()
	defer c.cacheMtx.Unlock()

	if c.initialised {
		return nil
	}
	if sourceRate == 0 {
		panic("decode: source sample rate unknown at initialisation")
	}
	if channels < 1 {
		channels = 1
	}

	c.fileRate = sourceRate
	c.channels = channels

	c.sampleRate = c.opts.TargetRate
	if c.sampleRate == 0 {
		c.sampleRate = sourceRate
	}

	if c.sampleRate != c.fileRate {
		log.Debug("decode cache resampling",
			"from", c.fileRate, "to", c.sampleRate)
		c.resampler = audio.NewBlockResampler(channels, c.fileRate, c.sampleRate)
	}

	c.writeBuffer = make([]float32, writeBufferFrames*channels)
	c.writeBufferIndex = 0

	if c.mode == InTemporaryFile {
		c.openCacheFile()
	}

	c.initialised = true
	return nil
}

// openCacheFile prepares the on-disc backing store, degrading silently to
// the in-memory mode on any failure. Caller holds cacheMtx.
func (c *Cache) openCacheFile() {
	path, err := c.env.CacheFilePath(int64(c.ID()))
	if err != nil {
		log.Warn("decode cache falling back to memory", "error", err)
		c.mode = InMemory
		return
	}

	writer, err := wavf.NewCacheWriter(path, c.sampleRate, c.channels)
	if err != nil {
		log.Warn("decode cache falling back to memory", "error", err)
		c.mode = InMemory
		return
	}

	reader, err := wavf.OpenCacheReader(path)
	if err != nil {
		log.Warn("decode cache falling back to memory", "error", err)
		writer.Close()
		os.Remove(path)
		c.mode = InMemory
		return
	}

	c.cacheFileName = path
	c.cacheWriter = writer
	c.cacheReader = reader
}

// AddSamples pushes interleaved samples at the source rate. len(samples)
// must be a multiple of the channel count.
func (c *Cache) AddSamples(samples []float32) error {
	c.cacheMtx.Lock()
	defer c.cacheMtx.Unlock()

	if !c.initialised {
		return ErrNotInitialised
	}
	if c.finished {
		return ErrFinished
	}

	for _, sample := range samples {
		c.writeBuffer[c.writeBufferIndex] = sample
		c.writeBufferIndex++

		if c.writeBufferIndex == len(c.writeBuffer) {
			if err := c.pushBuffer(c.writeBuffer, writeBufferFrames, false); err != nil {
				return err
			}
			c.writeBufferIndex = 0
		}

		if c.writeBufferIndex%10240 == 0 && c.cacheReader != nil {
			c.cacheReader.UpdateFrameCount()
		}
	}

	return nil
}

// AddSamplesByChannel pushes one block of per-channel sample slices, all
// the same length.
func (c *Cache) AddSamplesByChannel(channels [][]float32) error {
	if len(channels) == 0 {
		return nil
	}

	nframes := len(channels[0])
	interleaved := make([]float32, 0, nframes*len(channels))
	for i := 0; i < nframes; i++ {
		for ch := range channels {
			interleaved = append(interleaved, channels[ch][i])
		}
	}

	return c.AddSamples(interleaved)
}

// Finish drains the write buffer, flushes the resampler's internal delay
// with zero padding, and seals the backing store. Finishing twice is a
// no-op.
func (c *Cache) Finish() error {
	c.cacheMtx.Lock()

	if !c.initialised {
		log.Warn("decode cache finished without being initialised")
		c.cacheMtx.Unlock()
		return nil
	}
	if c.finished {
		c.cacheMtx.Unlock()
		return nil
	}

	err := c.pushBuffer(c.writeBuffer[:c.writeBufferIndex],
		int64(c.writeBufferIndex/c.channels), true)
	c.writeBufferIndex = 0
	c.finished = true

	if c.cacheWriter != nil {
		if cerr := c.cacheWriter.Close(); cerr != nil && err == nil {
			err = cerr
		}
		c.cacheWriter = nil
	}
	if c.cacheReader != nil {
		c.cacheReader.UpdateFrameCount()
	}

	c.cacheMtx.Unlock()

	c.SetCompletion(100, true)
	return err
}

// pushBuffer sends sz frames through the resample / normalise pipeline to
// the backing store. Caller holds cacheMtx.
func (c *Cache) pushBuffer(buf []float32, sz int64, final bool) error {
	c.fileFrameCount += sz

	if c.resampler == nil {
		return c.pushBufferNonResampling(buf[:sz*int64(c.channels)])
	}
	return c.pushBufferResampling(buf[:sz*int64(c.channels)], final)
}

func (c *Cache) pushBufferResampling(buf []float32, final bool) error {
	ratio := c.resampler.Ratio()

	if len(buf) > 0 {
		out, err := c.resampler.Resample(buf)
		if err != nil {
			return err
		}
		if err := c.pushBufferNonResampling(out); err != nil {
			return err
		}
	}

	if !final {
		return nil
	}

	// Push a zero pad to flush the resampler's delay, then clip the total
	// so output never exceeds round(fileFrames * ratio).
	padFrames := int64(1)
	if float64(c.frameCount)/ratio < float64(c.fileFrameCount) {
		padFrames = c.fileFrameCount - int64(float64(c.frameCount)/ratio) + 1
	}

	padding := make([]float32, padFrames*int64(c.channels))
	out, err := c.resampler.Resample(padding)
	if err != nil {
		return err
	}

	limit := int64(math.Round(float64(c.fileFrameCount) * ratio))
	outFrames := int64(len(out)) / int64(c.channels)
	if c.frameCount+outFrames > limit {
		outFrames = limit - c.frameCount
		if outFrames < 0 {
			outFrames = 0
		}
	}

	return c.pushBufferNonResampling(out[:outFrames*int64(c.channels)])
}

func (c *Cache) pushBufferNonResampling(buf []float32) error {
	if len(buf) == 0 {
		return nil
	}

	if c.opts.Normalise {
		c.dataMtx.Lock()
		for _, v := range buf {
			if a := float32(math.Abs(float64(v))); a > c.max {
				c.max = a
				c.gain = 1 / c.max
			}
		}
		c.dataMtx.Unlock()
	} else {
		const clip = 1.0
		for i, v := range buf {
			if v > clip {
				buf[i] = clip
			} else if v < -clip {
				buf[i] = -clip
			}
		}
	}

	c.frameCount += int64(len(buf) / c.channels)

	switch c.mode {
	case InTemporaryFile:
		if err := c.cacheWriter.WriteFrames(buf); err != nil {
			c.cacheWriter.Close()
			c.cacheWriter = nil
			return fmt.Errorf("%w: %v", ErrShortWrite, err)
		}

	case InMemory:
		c.dataMtx.Lock()
		c.data = append(c.data, buf...)
		c.dataMtx.Unlock()
	}

	return nil
}

// InterleavedFrames returns up to count frames starting at start, as far
// as the cache holds them. It may be called concurrently with AddSamples.
// When normalising, the current peak gain is applied to the returned copy.
func (c *Cache) InterleavedFrames(start, count int64) []float32 {
	c.cacheMtx.Lock()
	initialised := c.initialised
	mode := c.mode
	reader := c.cacheReader
	channels := c.channels
	c.cacheMtx.Unlock()

	if !initialised || count <= 0 {
		return nil
	}

	var frames []float32

	switch mode {
	case InTemporaryFile:
		if reader != nil {
			frames = reader.InterleavedFrames(start, count)
		}

	case InMemory:
		if start < 0 {
			count += start
			start = 0
		}
		if count <= 0 {
			return nil
		}

		ix0 := start * int64(channels)
		ix1 := ix0 + count*int64(channels)

		c.dataMtx.Lock()
		n := int64(len(c.data))
		if ix0 > n {
			ix0 = n
		}
		if ix1 > n {
			ix1 = n
		}
		frames = make([]float32, ix1-ix0)
		copy(frames, c.data[ix0:ix1])
		c.dataMtx.Unlock()
	}

	if c.opts.Normalise {
		c.dataMtx.Lock()
		gain := c.gain
		c.dataMtx.Unlock()

		for i := range frames {
			frames[i] *= gain
		}
	}

	return frames
}

// Close releases the backing store, deleting any cache file. Observers are
// warned first so they can detach.
func (c *Cache) Close() error {
	c.EmitAboutToBeDeleted()

	c.cacheMtx.Lock()
	defer c.cacheMtx.Unlock()

	if c.cacheWriter != nil {
		c.cacheWriter.Close()
		c.cacheWriter = nil
	}
	if c.cacheReader != nil {
		c.cacheReader.Close()
		c.cacheReader = nil
	}
	if c.cacheFileName != "" {
		if err := os.Remove(c.cacheFileName); err != nil {
			log.Warn("failed to delete cache file",
				"path", c.cacheFileName, "error", err)
		}
		c.cacheFileName = ""
	}

	return nil
}
