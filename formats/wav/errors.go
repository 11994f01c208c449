package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrOnlyFloat32Supported = errors.New("only 32-bit float WAV supported")
	ErrShortWrite           = errors.New("short write to cache file")
	ErrInvalidSampleCount   = errors.New("sample count must be multiple of channels")
	ErrWriterClosed         = errors.New("cache writer is closed")
)
