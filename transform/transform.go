// SPDX-License-Identifier: EPL-2.0

package transform

import (
	"time"
)

// MultiValueMode selects how a multi-value feature lands in a sparse
// time-value model: one point per value with an index-prefixed label, or a
// single point using the first value only.
type MultiValueMode int

const (
	SplitValues MultiValueMode = iota
	FirstValueOnly
)

// Transform describes one requested plugin output: which plugin to run,
// with which parameters and block geometry, and which of its outputs to
// capture.
type Transform struct {
	PluginIdentifier string

	// Output names the plugin output to capture; empty means the first.
	Output string

	// PluginVersion, when non-empty, is checked against the loaded
	// plugin's version; a mismatch produces a warning, not a failure.
	PluginVersion string

	Parameters map[string]float32

	// StepSize and BlockSize of the block pump; zero means the plugin's
	// preference.
	StepSize  int
	BlockSize int

	WindowType WindowType

	// StartTime and Duration bound the processed context; zero duration
	// means to the end of the input.
	StartTime time.Duration
	Duration  time.Duration

	MultiValue MultiValueMode
}

// similarTo reports whether two transforms may share one transformer run:
// identical in every respect except the chosen output.
func (t Transform) similarTo(other Transform) bool {
	if t.PluginIdentifier != other.PluginIdentifier ||
		t.PluginVersion != other.PluginVersion ||
		t.StepSize != other.StepSize ||
		t.BlockSize != other.BlockSize ||
		t.WindowType != other.WindowType ||
		t.StartTime != other.StartTime ||
		t.Duration != other.Duration ||
		t.MultiValue != other.MultiValue {
		return false
	}

	if len(t.Parameters) != len(other.Parameters) {
		return false
	}
	for k, v := range t.Parameters {
		if ov, ok := other.Parameters[k]; !ok || ov != v {
			return false
		}
	}

	return true
}
