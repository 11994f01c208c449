// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"time"
)

// FrameToDuration converts a frame count at the given sample rate to a
// wall-clock duration.
func FrameToDuration(frame int64, sampleRate int) time.Duration {
	if sampleRate == 0 {
		return 0
	}

	seconds := float64(frame) / float64(sampleRate)
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// DurationToFrame converts a duration to a frame count at the given sample
// rate, rounding to the nearest frame.
func DurationToFrame(d time.Duration, sampleRate int) int64 {
	return int64(math.Round(d.Seconds() * float64(sampleRate)))
}
