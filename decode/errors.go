package decode

import "errors"

var (
	// ErrShortWrite reports that the cache file could not be extended,
	// typically because the disc is full.
	ErrShortWrite = errors.New("short write to decode cache")

	// ErrNotInitialised reports an operation that needs an initialised
	// cache.
	ErrNotInitialised = errors.New("decode cache not initialised")

	// ErrFinished reports samples pushed after Finish.
	ErrFinished = errors.New("decode cache already finished")
)
