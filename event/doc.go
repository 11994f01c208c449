// SPDX-License-Identifier: EPL-2.0

// Package event provides the sparse time-indexed containers that annotation
// models are built on.
//
// An Event is an immutable value placed at an audio frame, optionally
// spanning a half-open interval [frame, frame+duration). A Series holds a
// sorted multiset of events together with a seam index: a sorted mapping
// from frame boundaries to the durationful events active immediately after
// each boundary. The seam index makes point stabbing ("which events cover
// frame f?") and interval-overlap queries O(log n) in the number of seams.
//
// # Building events
//
// Events are constructed with New and refined with the With* methods:
//
//	e := event.New(1000).WithDuration(500).WithValue(440).WithLabel("A4")
//
// # Queries
//
//	series.EventsCovering(1200)        // stabbing query
//	series.EventsSpanning(0, 44100)    // anything intersecting the range
//	series.EventsWithin(0, 44100, 2)   // fully contained, ±2 overspill
//
// Series is not safe for concurrent use; callers serialise access, normally
// under the enclosing model's mutex.
package event
