// SPDX-License-Identifier: EPL-2.0

package model

import (
	"sync"

	"github.com/ik5/audalyze/event"
)

// sparseEvents is the shared core of the sparse model family: an event
// series guarded by the model mutex, plus rate and resolution. Concrete
// models embed it and add their own typed entry points.
type sparseEvents struct {
	Base

	mtx        *sync.Mutex
	series     event.Series
	rate       int
	resolution int
}

func newSparseEvents(rate, resolution int) sparseEvents {
	if resolution < 1 {
		resolution = 1
	}
	return sparseEvents{
		Base:       NewBase(),
		mtx:        &sync.Mutex{},
		rate:       rate,
		resolution: resolution,
	}
}

func (s *sparseEvents) SampleRate() int { return s.rate }

// Resolution returns the model's frame quantum (frames per "unit" of the
// model, e.g. one step of the transform that filled it).
func (s *sparseEvents) Resolution() int { return s.resolution }

func (s *sparseEvents) IsOK() bool { return true }

func (s *sparseEvents) StartFrame() int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.StartFrame()
}

func (s *sparseEvents) EndFrame() int64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	end := s.series.EndFrame()
	if end == 0 && s.series.IsEmpty() {
		return 0
	}

	// Round up to the resolution granularity.
	res := int64(s.resolution)
	if end%res != 0 {
		end = (end/res + 1) * res
	}
	return end
}

// AddEvent inserts an event and notifies observers of the touched range.
func (s *sparseEvents) AddEvent(e event.Event) {
	s.mtx.Lock()
	s.series.Add(e)
	s.mtx.Unlock()

	s.EmitChangedWithin(e.Frame(), e.EndFrame()+int64(s.resolution))
}

// RemoveEvent removes one instance of e; removing an absent event is a
// no-op and emits nothing.
func (s *sparseEvents) RemoveEvent(e event.Event) {
	s.mtx.Lock()
	present := s.series.Contains(e)
	if present {
		s.series.Remove(e)
	}
	s.mtx.Unlock()

	if present {
		s.EmitChangedWithin(e.Frame(), e.EndFrame()+int64(s.resolution))
	}
}

func (s *sparseEvents) ContainsEvent(e event.Event) bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.Contains(e)
}

func (s *sparseEvents) EventCount() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.Count()
}

func (s *sparseEvents) IsEmpty() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.IsEmpty()
}

// AllEvents returns a snapshot of the stored events in sorted order.
func (s *sparseEvents) AllEvents() []event.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.All()
}

func (s *sparseEvents) EventsCovering(frame int64) []event.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.EventsCovering(frame)
}

func (s *sparseEvents) EventsSpanning(frame, duration int64) []event.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.EventsSpanning(frame, duration)
}

func (s *sparseEvents) EventsWithin(frame, duration int64, overspill int) []event.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.EventsWithin(frame, duration, overspill)
}

func (s *sparseEvents) EventsStartingWithin(frame, duration int64) []event.Event {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.series.EventsStartingWithin(frame, duration)
}

// valueExtents tracks the observed value range of a sparse value model.
type valueExtents struct {
	have     bool
	min, max float32
	units    string
}

func (v *valueExtents) observe(value float32) {
	if !v.have {
		v.min, v.max = value, value
		v.have = true
		return
	}
	if value < v.min {
		v.min = value
	}
	if value > v.max {
		v.max = value
	}
}

var (
	_ Model = (*SparseOneDimensional)(nil)
	_ Model = (*SparseTimeValue)(nil)
	_ Model = (*Region)(nil)
	_ Model = (*Note)(nil)
)

// SparseOneDimensional is a sparse model of durationless, valueless
// instants, one event per occurrence.
type SparseOneDimensional struct {
	sparseEvents
}

func NewSparseOneDimensional(rate, resolution int) *SparseOneDimensional {
	return &SparseOneDimensional{sparseEvents: newSparseEvents(rate, resolution)}
}

func (m *SparseOneDimensional) TypeName() string { return "instants" }

// AddInstant records an instant at the given frame.
func (m *SparseOneDimensional) AddInstant(frame int64, label string) {
	m.AddEvent(event.New(frame).WithLabel(label))
}

// SparseTimeValue is a sparse model of (frame, value) points.
type SparseTimeValue struct {
	sparseEvents

	extMtx  sync.Mutex
	extents valueExtents
}

func NewSparseTimeValue(rate, resolution int) *SparseTimeValue {
	return &SparseTimeValue{sparseEvents: newSparseEvents(rate, resolution)}
}

func (m *SparseTimeValue) TypeName() string { return "time-values" }

// AddPoint records a value at the given frame.
func (m *SparseTimeValue) AddPoint(frame int64, value float32, label string) {
	m.extMtx.Lock()
	m.extents.observe(value)
	m.extMtx.Unlock()

	m.AddEvent(event.New(frame).WithValue(value).WithLabel(label))
}

func (m *SparseTimeValue) SetUnits(units string) {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	m.extents.units = units
}

func (m *SparseTimeValue) Units() string {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	return m.extents.units
}

// ValueExtents returns the observed minimum and maximum values; ok is
// false while the model is empty.
func (m *SparseTimeValue) ValueExtents() (min, max float32, ok bool) {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	return m.extents.min, m.extents.max, m.extents.have
}

// Region is a sparse model of valued intervals.
type Region struct {
	sparseEvents

	extMtx  sync.Mutex
	extents valueExtents
}

func NewRegion(rate, resolution int) *Region {
	return &Region{sparseEvents: newSparseEvents(rate, resolution)}
}

func (m *Region) TypeName() string { return "regions" }

// AddRegion records an interval [frame, frame+duration) carrying a value.
func (m *Region) AddRegion(frame int64, value float32, duration int64, label string) {
	m.extMtx.Lock()
	m.extents.observe(value)
	m.extMtx.Unlock()

	m.AddEvent(event.New(frame).WithValue(value).WithDuration(duration).WithLabel(label))
}

func (m *Region) SetUnits(units string) {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	m.extents.units = units
}

func (m *Region) Units() string {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	return m.extents.units
}

func (m *Region) ValueExtents() (min, max float32, ok bool) {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	return m.extents.min, m.extents.max, m.extents.have
}

// Note is a sparse model of pitched intervals: pitch as the event value,
// velocity (0..1) as the event level.
type Note struct {
	sparseEvents

	extMtx  sync.Mutex
	extents valueExtents
}

func NewNote(rate, resolution int) *Note {
	return &Note{sparseEvents: newSparseEvents(rate, resolution)}
}

func (m *Note) TypeName() string { return "notes" }

// AddNote records a note: pitch is unit-dependent (Hz or MIDI), level is a
// velocity in [0, 1].
func (m *Note) AddNote(frame int64, pitch float32, duration int64, level float32, label string) {
	m.extMtx.Lock()
	m.extents.observe(pitch)
	m.extMtx.Unlock()

	m.AddEvent(event.New(frame).
		WithValue(pitch).
		WithDuration(duration).
		WithLevel(level).
		WithLabel(label))
}

func (m *Note) SetUnits(units string) {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	m.extents.units = units
}

func (m *Note) Units() string {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	return m.extents.units
}

func (m *Note) ValueExtents() (min, max float32, ok bool) {
	m.extMtx.Lock()
	defer m.extMtx.Unlock()
	return m.extents.min, m.extents.max, m.extents.have
}
