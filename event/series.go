// SPDX-License-Identifier: EPL-2.0

package event

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Direction selects which way a nearest-event search walks.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// seam records a frame boundary together with the durationful events that
// are active immediately to its right.
type seam struct {
	frame  int64
	active []Event
}

// Series is a time-ordered multiset of events with a seam index for fast
// stabbing and interval-overlap queries.
//
// Series is not safe for concurrent use; the enclosing model is expected to
// serialise access.
type Series struct {
	events []Event
	seams  []seam

	// Largest frame among durationless events currently present.
	finalDurationlessFrame int64
}

// lowerBound returns the index of the first stored event not sorting before e.
func (s *Series) lowerBound(e Event) int {
	return sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Compare(e) >= 0
	})
}

// lowerBoundFrame returns the index of the first stored event at or after
// the given frame.
func (s *Series) lowerBoundFrame(frame int64) int {
	return sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Frame() >= frame
	})
}

// seamLowerBound returns the index of the first seam at or after frame.
func (s *Series) seamLowerBound(frame int64) int {
	return sort.Search(len(s.seams), func(i int) bool {
		return s.seams[i].frame >= frame
	})
}

// createSeam ensures a seam exists exactly at frame, splitting by copying
// the nearest seam below it if one exists.
func (s *Series) createSeam(frame int64) {
	i := s.seamLowerBound(frame)
	if i < len(s.seams) && s.seams[i].frame == frame {
		return
	}

	var active []Event
	if i > 0 {
		active = slices.Clone(s.seams[i-1].active)
	}

	s.seams = slices.Insert(s.seams, i, seam{frame: frame, active: active})
}

// IsEmpty reports whether the series contains no events.
func (s *Series) IsEmpty() bool {
	return len(s.events) == 0
}

// Count returns the number of events in the series. Panics if the count
// exceeds the signed 32-bit range.
func (s *Series) Count() int {
	if len(s.events) > math.MaxInt32 {
		panic("event: too many events")
	}
	return len(s.events)
}

// Add inserts an event, keeping the stored order and seam index coherent.
// Identical events may be added more than once.
func (s *Series) Add(e Event) {
	idx := s.lowerBound(e)
	isUnique := !(idx < len(s.events) && s.events[idx].Equal(e))
	s.events = slices.Insert(s.events, idx, e)

	if !e.HasDuration() && e.Frame() > s.finalDurationlessFrame {
		s.finalDurationlessFrame = e.Frame()
	}

	if !e.HasDuration() || !isUnique {
		return
	}

	frame := e.Frame()
	endFrame := e.EndFrame()

	s.createSeam(frame)
	s.createSeam(endFrame)

	// Both must exist after createSeam above.
	for i := s.seamLowerBound(frame); i < len(s.seams); i++ {
		if s.seams[i].frame >= endFrame {
			break
		}
		s.seams[i].active = append(s.seams[i].active, e)
	}
}

// Remove deletes one instance of the event. Removing an event that is not
// present is a no-op. The seam index is only rebuilt when the last instance
// of a durationful event goes.
func (s *Series) Remove(e Event) {
	idx := s.lowerBound(e)
	if idx >= len(s.events) || !s.events[idx].Equal(e) {
		return
	}

	isUnique := !(idx+1 < len(s.events) && s.events[idx+1].Equal(e))
	s.events = slices.Delete(s.events, idx, idx+1)

	if !e.HasDuration() && isUnique && e.Frame() == s.finalDurationlessFrame {
		s.finalDurationlessFrame = 0
		for i := len(s.events) - 1; i >= 0; i-- {
			if !s.events[i].HasDuration() {
				s.finalDurationlessFrame = s.events[i].Frame()
				break
			}
		}
	}

	if !e.HasDuration() || !isUnique {
		return
	}

	frame := e.Frame()
	endFrame := e.EndFrame()

	i0 := s.seamLowerBound(frame)
	i1 := s.seamLowerBound(endFrame)

	// Remove any and all appearances of e from the seams it spans; this is
	// only reached when the last instance leaves the series.
	for i := i0; i < i1; i++ {
		if i >= len(s.seams) {
			panic("event: unexpectedly reached end of seam index")
		}
		kept := s.seams[i].active[:0]
		for _, a := range s.seams[i].active {
			if !a.Equal(e) {
				kept = append(kept, a)
			}
		}
		s.seams[i].active = kept
	}

	// Tidy up: delete seams now identical to their predecessor.
	var redundant []int64
	prev := i0 - 1
	for i := i0; i < len(s.seams); i++ {
		if prev >= 0 && activeEqual(s.seams[i].active, s.seams[prev].active) {
			redundant = append(redundant, s.seams[i].frame)
		}
		prev = i
		if i == i1 {
			break
		}
	}

	for _, f := range redundant {
		j := s.seamLowerBound(f)
		if j < len(s.seams) && s.seams[j].frame == f {
			s.seams = slices.Delete(s.seams, j, j+1)
		}
	}

	// And drop empty seams from the front.
	for len(s.seams) > 0 && len(s.seams[0].active) == 0 {
		s.seams = slices.Delete(s.seams, 0, 1)
	}
}

// Contains reports whether at least one instance of e is present.
func (s *Series) Contains(e Event) bool {
	idx := s.lowerBound(e)
	return idx < len(s.events) && s.events[idx].Equal(e)
}

// Clear removes all events and seams.
func (s *Series) Clear() {
	s.events = nil
	s.seams = nil
	s.finalDurationlessFrame = 0
}

// StartFrame returns the frame of the earliest event, or 0 when empty.
func (s *Series) StartFrame() int64 {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[0].Frame()
}

// EndFrame returns the frame just after the latest event content: the
// maximum of the latest durationless event frame and the largest seam key.
func (s *Series) EndFrame() int64 {
	if len(s.events) == 0 {
		return 0
	}

	latest := s.finalDurationlessFrame

	if len(s.seams) > 0 {
		if last := s.seams[len(s.seams)-1].frame; last > latest {
			latest = last
		}
	}

	return latest
}

// All returns a snapshot of the stored events in sorted order.
func (s *Series) All() []Event {
	return slices.Clone(s.events)
}

// EventsSpanning returns every event whose extent intersects
// [frame, frame+duration); durationless events within the range included.
func (s *Series) EventsSpanning(frame, duration int64) []Event {
	var span []Event

	start := frame
	end := frame + duration

	// First any durationless events within the range.
	for i := s.lowerBoundFrame(start); i < len(s.events); i++ {
		if s.events[i].Frame() >= end {
			break
		}
		if !s.events[i].HasDuration() {
			span = append(span, s.events[i])
		}
	}

	// Then durationful events from the seam index.
	i := s.seamLowerBound(start)
	if (i >= len(s.seams) || s.seams[i].frame > start) && i > 0 {
		i--
	}

	var found []Event
	for ; i < len(s.seams) && s.seams[i].frame < end; i++ {
		found = append(found, s.seams[i].active...)
	}

	return s.appendInstances(span, found)
}

// EventsWithin returns events fully contained in [frame, frame+duration).
// When overspill is non-zero, up to that many earlier and later events (in
// frame order) are prepended and appended.
func (s *Series) EventsWithin(frame, duration int64, overspill int) []Event {
	var span []Event

	start := frame
	end := frame + duration

	// Events that end within but started without need never be "looked back"
	// at, so this works entirely from the sorted list.
	reference := s.lowerBoundFrame(start)

	first := reference
	for i := 0; i < overspill && first > 0; i++ {
		first--
	}
	for i := first; i < reference; i++ {
		span = append(span, s.events[i])
	}

	last := reference
	for i := reference; i < len(s.events) && s.events[i].Frame() < end; i++ {
		if !s.events[i].HasDuration() || s.events[i].EndFrame() <= end {
			span = append(span, s.events[i])
			last = i + 1
		}
	}

	for i := 0; i < overspill && last < len(s.events); i++ {
		span = append(span, s.events[last])
		last++
	}

	return span
}

// EventsStartingWithin returns events whose start frame lies in
// [frame, frame+duration).
func (s *Series) EventsStartingWithin(frame, duration int64) []Event {
	var span []Event

	end := frame + duration
	for i := s.lowerBoundFrame(frame); i < len(s.events); i++ {
		if s.events[i].Frame() >= end {
			break
		}
		span = append(span, s.events[i])
	}

	return span
}

// EventsCovering returns durationless events at frame plus durationful
// events whose interval covers frame.
func (s *Series) EventsCovering(frame int64) []Event {
	var cover []Event

	for i := s.lowerBoundFrame(frame); i < len(s.events); i++ {
		if s.events[i].Frame() != frame {
			break
		}
		if !s.events[i].HasDuration() {
			cover = append(cover, s.events[i])
		}
	}

	i := s.seamLowerBound(frame)
	if (i >= len(s.seams) || s.seams[i].frame > frame) && i > 0 {
		i--
	}

	var found []Event
	if i < len(s.seams) && s.seams[i].frame <= frame {
		found = append(found, s.seams[i].active...)
	}

	return s.appendInstances(cover, found)
}

// appendInstances deduplicates found, then appends every stored instance of
// each distinct event in sort order.
func (s *Series) appendInstances(dst, found []Event) []Event {
	if len(found) == 0 {
		return dst
	}

	slices.SortFunc(found, Event.Compare)
	found = slices.CompactFunc(found, Event.Equal)

	for _, e := range found {
		for i := s.lowerBound(e); i < len(s.events) && s.events[i].Equal(e); i++ {
			dst = append(dst, e)
		}
	}

	return dst
}

// EventPreceding returns the event strictly before e in sort order.
// The second result is false when e is absent or first.
func (s *Series) EventPreceding(e Event) (Event, bool) {
	idx := s.lowerBound(e)
	if idx >= len(s.events) || !s.events[idx].Equal(e) {
		return Event{}, false
	}
	if idx == 0 {
		return Event{}, false
	}
	return s.events[idx-1], true
}

// EventFollowing returns the event strictly after the run of events equal
// to e in sort order. The second result is false when e is absent or last.
func (s *Series) EventFollowing(e Event) (Event, bool) {
	idx := s.lowerBound(e)
	if idx >= len(s.events) || !s.events[idx].Equal(e) {
		return Event{}, false
	}
	for idx < len(s.events) && s.events[idx].Equal(e) {
		idx++
	}
	if idx >= len(s.events) {
		return Event{}, false
	}
	return s.events[idx], true
}

// NearestEventMatching walks the sorted list from startSearchAt in the
// given direction and returns the first event satisfying predicate.
func (s *Series) NearestEventMatching(startSearchAt int64,
	predicate func(Event) bool, direction Direction) (Event, bool) {

	idx := s.lowerBoundFrame(startSearchAt)

	for {
		if direction == Backward {
			if idx == 0 {
				break
			}
			idx--
		} else {
			if idx >= len(s.events) {
				break
			}
		}

		if predicate(s.events[idx]) {
			return s.events[idx], true
		}

		if direction == Forward {
			idx++
		}
	}

	return Event{}, false
}

// EventByIndex returns the event at the given position in sort order.
// Panics when index is out of range.
func (s *Series) EventByIndex(index int) Event {
	if index < 0 || index >= s.Count() {
		panic(fmt.Sprintf("event: index %d out of range", index))
	}
	return s.events[index]
}

// IndexForEvent returns the sort-order position of the first instance of e,
// or of the insertion point if e is absent.
func (s *Series) IndexForEvent(e Event) int {
	d := s.lowerBound(e)
	if d < 0 || d > math.MaxInt32 {
		return 0
	}
	return d
}

func activeEqual(a, b []Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
