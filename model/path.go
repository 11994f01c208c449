// SPDX-License-Identifier: EPL-2.0

package model

import (
	"sort"
	"sync"
)

// PathPoint links a frame on a source timeline to the corresponding frame
// on a target timeline.
type PathPoint struct {
	SourceFrame int64
	TargetFrame int64
}

var _ Model = (*Path)(nil)

// Path is a sparse monotone mapping between two timelines, stored as
// points sorted by source frame.
type Path struct {
	Base

	rate       int
	resolution int

	mtx    sync.Mutex
	points []PathPoint
}

func NewPath(rate, resolution int) *Path {
	if resolution < 1 {
		resolution = 1
	}
	return &Path{
		Base:       NewBase(),
		rate:       rate,
		resolution: resolution,
	}
}

func (p *Path) TypeName() string { return "path" }
func (p *Path) SampleRate() int  { return p.rate }
func (p *Path) Resolution() int  { return p.resolution }
func (p *Path) IsOK() bool       { return true }

func (p *Path) StartFrame() int64 {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if len(p.points) == 0 {
		return 0
	}
	return p.points[0].SourceFrame
}

func (p *Path) EndFrame() int64 {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if len(p.points) == 0 {
		return 0
	}
	return p.points[len(p.points)-1].SourceFrame
}

// Add inserts a point, keeping source-frame order.
func (p *Path) Add(pt PathPoint) {
	p.mtx.Lock()
	i := sort.Search(len(p.points), func(i int) bool {
		return p.points[i].SourceFrame >= pt.SourceFrame
	})
	p.points = append(p.points, PathPoint{})
	copy(p.points[i+1:], p.points[i:])
	p.points[i] = pt
	p.mtx.Unlock()

	p.EmitChangedWithin(pt.SourceFrame, pt.SourceFrame+1)
}

func (p *Path) Clear() {
	p.mtx.Lock()
	p.points = nil
	p.mtx.Unlock()

	p.EmitChanged()
}

func (p *Path) PointCount() int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return len(p.points)
}

// Points returns a snapshot of the points in source-frame order.
func (p *Path) Points() []PathPoint {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	out := make([]PathPoint, len(p.points))
	copy(out, p.points)
	return out
}
