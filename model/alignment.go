// SPDX-License-Identifier: EPL-2.0

package model

import (
	"math"
	"sort"
	"sync"
)

var _ Model = (*Alignment)(nil)

// Alignment maps frames between two audio timelines. It is built from a
// streaming "raw path" time-value model in which each point's frame is a
// time on the aligned model's timeline and value*alignedRate is the
// corresponding time on the reference timeline. Forward and reverse paths
// are rebuilt from the full point set whenever the raw path grows, so
// out-of-order growth is harmless.
type Alignment struct {
	Base

	reg         *Registry
	referenceID ID
	alignedID   ID
	alignedRate int
	ok          bool

	mtx          sync.Mutex
	rawPath      *SparseTimeValue
	input        Model
	path         *Path
	reversePath  *Path
	pathBegun    bool
	pathComplete bool

	obs *Observer
}

// NewAlignment creates an alignment between the reference and aligned
// models (resolved through reg). input is a transient model owned by the
// alignment and released when the raw path completes; it may be nil.
// rawPath may be nil, in which case the alignment is the identity and
// immediately ready.
func NewAlignment(reg *Registry, referenceID, alignedID ID,
	input Model, rawPath *SparseTimeValue) *Alignment {

	a := &Alignment{
		Base:        NewBase(),
		reg:         reg,
		referenceID: referenceID,
		alignedID:   alignedID,
		rawPath:     rawPath,
		input:       input,
	}

	ref, refOK := reg.Lookup(referenceID)
	_, alignedOK := reg.Lookup(alignedID)
	a.ok = refOK && alignedOK
	if refOK {
		a.alignedRate = ref.SampleRate()
	}

	if rawPath != nil {
		a.obs = &Observer{
			ChangedWithin:     func(int64, int64) { a.pathChanged() },
			CompletionChanged: func() { a.pathCompletionChanged() },
		}
		rawPath.Subscribe(a.obs)

		a.mtx.Lock()
		a.constructPaths()
		a.mtx.Unlock()
	}

	return a
}

func (a *Alignment) TypeName() string { return "alignment" }

func (a *Alignment) IsOK() bool { return a.ok }

func (a *Alignment) SampleRate() int {
	if ref, ok := a.reg.Lookup(a.referenceID); ok {
		return ref.SampleRate()
	}
	return 0
}

func (a *Alignment) StartFrame() int64 {
	start := int64(math.MaxInt64)
	n := 0
	for _, id := range []ID{a.referenceID, a.alignedID} {
		if m, ok := a.reg.Lookup(id); ok {
			if m.StartFrame() < start {
				start = m.StartFrame()
			}
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return start
}

func (a *Alignment) EndFrame() int64 {
	var end int64
	for _, id := range []ID{a.referenceID, a.alignedID} {
		if m, ok := a.reg.Lookup(id); ok && m.EndFrame() > end {
			end = m.EndFrame()
		}
	}
	return end
}

// ReferenceModel returns the id of the reference timeline's model.
func (a *Alignment) ReferenceModel() ID { return a.referenceID }

// AlignedModel returns the id of the aligned timeline's model.
func (a *Alignment) AlignedModel() ID { return a.alignedID }

// IsReady reports whether the mapping is authoritative: the raw path has
// completed, or never existed.
func (a *Alignment) IsReady() bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.rawPath == nil || a.pathComplete {
		return true
	}
	if !a.pathBegun {
		return false
	}
	return a.rawPath.IsReady()
}

// pathChanged runs whenever the raw path's content changes.
func (a *Alignment) pathChanged() {
	a.mtx.Lock()
	a.constructPaths()
	a.mtx.Unlock()

	a.EmitChanged()
}

// pathCompletionChanged tracks the raw path towards completion; when it
// arrives the derived paths become authoritative and the transient input
// and raw path are released.
func (a *Alignment) pathCompletionChanged() {
	a.mtx.Lock()

	raw := a.rawPath
	if raw == nil {
		a.mtx.Unlock()
		return
	}

	a.pathBegun = true

	var released []Model
	if !a.pathComplete && raw.IsReady() {
		a.pathComplete = true
		a.constructPaths()

		if a.input != nil {
			released = append(released, a.input)
			a.input = nil
		}

		raw.Unsubscribe(a.obs)
		released = append(released, raw)
		a.rawPath = nil
	}

	a.mtx.Unlock()

	for _, m := range released {
		a.reg.Release(m.ID())
	}

	a.SetCompletion(a.completionNow(), true)
}

func (a *Alignment) completionNow() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.pathComplete || a.rawPath == nil {
		return 100
	}
	return a.rawPath.Completion()
}

// constructPaths rebuilds the forward and reverse paths from the raw
// path's full point set. Caller holds a.mtx.
func (a *Alignment) constructPaths() {
	if a.rawPath == nil {
		return
	}

	if a.path == nil {
		a.path = NewPath(a.rawPath.SampleRate(), a.rawPath.Resolution())
		a.reversePath = NewPath(a.rawPath.SampleRate(), a.rawPath.Resolution())
	}
	a.path.Clear()
	a.reversePath.Clear()

	rate := float64(a.alignedRate)
	for _, e := range a.rawPath.AllEvents() {
		frame := e.Frame()
		mapped := int64(math.Round(float64(e.Value()) * rate))
		a.path.Add(PathPoint{SourceFrame: frame, TargetFrame: mapped})
		a.reversePath.Add(PathPoint{SourceFrame: mapped, TargetFrame: frame})
	}
}

// ToReference maps a frame on the aligned timeline to the reference
// timeline.
func (a *Alignment) ToReference(frame int64) int64 {
	a.mtx.Lock()
	path := a.path
	a.mtx.Unlock()
	return align(path, frame)
}

// FromReference maps a frame on the reference timeline to the aligned
// timeline.
func (a *Alignment) FromReference(frame int64) int64 {
	a.mtx.Lock()
	path := a.reversePath
	a.mtx.Unlock()
	return align(path, frame)
}

// align maps frame through the piecewise-linear path: the greatest vertex
// at or below frame anchors the segment, and queries beyond the final
// vertex clamp to its mapped value. Negative mapped values clamp to 0.
func align(path *Path, frame int64) int64 {
	if path == nil {
		return frame
	}

	points := path.Points()
	if len(points) == 0 {
		return frame
	}

	i := sort.Search(len(points), func(i int) bool {
		return points[i].SourceFrame >= frame
	})
	if i == len(points) {
		i--
	}
	for i > 0 && points[i].SourceFrame > frame {
		i--
	}

	foundFrame := points[i].SourceFrame
	foundMapFrame := points[i].TargetFrame

	followingFrame := foundFrame
	followingMapFrame := foundMapFrame
	if i+1 < len(points) {
		followingFrame = points[i+1].SourceFrame
		followingMapFrame = points[i+1].TargetFrame
	}

	if foundMapFrame < 0 {
		return 0
	}

	result := foundMapFrame
	if followingFrame != foundFrame && frame > foundFrame {
		interp := float64(frame-foundFrame) / float64(followingFrame-foundFrame)
		result += int64(math.Round(float64(followingMapFrame-foundMapFrame) * interp))
	}

	if result < 0 {
		result = 0
	}
	return result
}
