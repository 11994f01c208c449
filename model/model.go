// SPDX-License-Identifier: EPL-2.0

package model

import (
	"sync"
	"sync/atomic"
)

// ID identifies a model uniquely within the process.
type ID int64

var nextID atomic.Int64

// NewID allocates a fresh process-unique model id.
func NewID() ID {
	return ID(nextID.Add(1))
}

// Model is the contract shared by every time-indexed data model. Frames are
// counted at the model's sample rate.
type Model interface {
	ID() ID
	TypeName() string

	// StartFrame returns the first audio frame spanned by the model.
	StartFrame() int64
	// EndFrame returns the frame just after the model's content.
	EndFrame() int64
	SampleRate() int

	IsOK() bool

	// Completion reports background-fill progress from 0 to 100; it is
	// monotone non-decreasing over the model's life.
	Completion() int
	IsReady() bool

	Subscribe(o *Observer)
	Unsubscribe(o *Observer)
}

// Observer receives model lifecycle callbacks. Callbacks are invoked
// synchronously on the goroutine that mutated the model; observers that
// need a particular executor must marshal themselves. Any field may be nil.
type Observer struct {
	Changed           func()
	ChangedWithin     func(start, end int64)
	CompletionChanged func()
	// Ready fires exactly once, when completion first reaches 100.
	Ready func()
	// AboutToBeDeleted fires before the model is released so observers
	// can detach.
	AboutToBeDeleted func()
}

// Base carries identity, completion state and observer plumbing. Concrete
// models embed it and drive notifications through the emit* helpers.
type Base struct {
	id ID

	mtx        *sync.Mutex
	observers  []*Observer
	completion int
	readyFired bool

	// Non-owning upstream reference, zero when none.
	sourceModel ID
	// Alignment model owned by this model, zero when none.
	alignmentID ID
}

// NewBase returns a Base with a fresh id and zero completion.
func NewBase() Base {
	return Base{
		id:  NewID(),
		mtx: &sync.Mutex{},
	}
}

func (b *Base) ID() ID { return b.id }

func (b *Base) Completion() int {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.completion
}

func (b *Base) IsReady() bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.completion >= 100
}

// SourceModel returns the id of the model this one was derived from, or 0.
func (b *Base) SourceModel() ID {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.sourceModel
}

func (b *Base) SetSourceModel(id ID) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.sourceModel = id
}

// Alignment returns the id of the alignment model owned by this model, or 0.
func (b *Base) Alignment() ID {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.alignmentID
}

func (b *Base) SetAlignment(id ID) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.alignmentID = id
}

func (b *Base) Subscribe(o *Observer) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.observers = append(b.observers, o)
}

func (b *Base) Unsubscribe(o *Observer) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for i, x := range b.observers {
		if x == o {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return
		}
	}
}

func (b *Base) snapshotObservers() []*Observer {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	out := make([]*Observer, len(b.observers))
	copy(out, b.observers)
	return out
}

// EmitChanged notifies observers of a content change over the whole model.
func (b *Base) EmitChanged() {
	for _, o := range b.snapshotObservers() {
		if o.Changed != nil {
			o.Changed()
		}
	}
}

// EmitChangedWithin notifies observers of a content change in [start, end).
func (b *Base) EmitChangedWithin(start, end int64) {
	for _, o := range b.snapshotObservers() {
		if o.Changed != nil {
			o.Changed()
		}
		if o.ChangedWithin != nil {
			o.ChangedWithin(start, end)
		}
	}
}

// SetCompletion raises completion to c (decreases are ignored) and fires
// CompletionChanged when emit is set. Ready fires exactly once when 100 is
// first reached.
func (b *Base) SetCompletion(c int, emit bool) {
	if c > 100 {
		c = 100
	}

	b.mtx.Lock()
	if c <= b.completion {
		b.mtx.Unlock()
		return
	}
	b.completion = c

	fireReady := false
	if c >= 100 && !b.readyFired {
		b.readyFired = true
		fireReady = true
	}

	observers := make([]*Observer, len(b.observers))
	copy(observers, b.observers)
	b.mtx.Unlock()

	if emit {
		for _, o := range observers {
			if o.CompletionChanged != nil {
				o.CompletionChanged()
			}
		}
	}

	if fireReady {
		for _, o := range observers {
			if o.Ready != nil {
				o.Ready()
			}
		}
	}
}

// EmitAboutToBeDeleted warns observers that the model is going away.
func (b *Base) EmitAboutToBeDeleted() {
	for _, o := range b.snapshotObservers() {
		if o.AboutToBeDeleted != nil {
			o.AboutToBeDeleted()
		}
	}
}
