// SPDX-License-Identifier: EPL-2.0

// Package model provides the time-indexed model graph: the containers that
// audio samples and extracted features flow into.
//
// Every model has a process-unique id, a sample rate, a frame extent, and a
// completion percentage that rises monotonically to 100 as background work
// fills the model. Observers subscribe for change, completion, ready and
// about-to-be-deleted notifications; callbacks run synchronously on the
// goroutine that mutated the model.
//
// Inter-model relationships (source model, alignment, reference) are held
// as ids and resolved through a Registry rather than as pointers, so the
// graph has no ownership cycles.
//
// The sparse family (SparseOneDimensional, SparseTimeValue, Region, Note)
// is built on event.Series; the dense family covers interleaved audio
// (DenseTimeValue, with the in-memory Samples implementation) and the
// column-addressed Matrix. Alignment maps frames between two timelines via
// a monotone piecewise-linear path built from a streaming raw path model.
package model
