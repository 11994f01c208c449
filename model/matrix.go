// SPDX-License-Identifier: EPL-2.0

package model

import (
	"sync"
)

var _ Model = (*Matrix)(nil)

// Matrix is a dense three-dimensional model: a column-addressed grid of
// float bins, one column per resolution-sized span of frames.
type Matrix struct {
	Base

	rate       int
	resolution int
	binCount   int

	mtx      sync.Mutex
	columns  [][]float32
	binNames []string
	have     bool
	min, max float32
}

func NewMatrix(rate, resolution, binCount int) *Matrix {
	if resolution < 1 {
		resolution = 1
	}
	if binCount < 1 {
		binCount = 1
	}
	return &Matrix{
		Base:       NewBase(),
		rate:       rate,
		resolution: resolution,
		binCount:   binCount,
	}
}

func (m *Matrix) TypeName() string { return "grid" }
func (m *Matrix) SampleRate() int  { return m.rate }
func (m *Matrix) Resolution() int  { return m.resolution }
func (m *Matrix) BinCount() int    { return m.binCount }
func (m *Matrix) IsOK() bool       { return true }

func (m *Matrix) StartFrame() int64 { return 0 }

func (m *Matrix) EndFrame() int64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return int64(len(m.columns)) * int64(m.resolution)
}

func (m *Matrix) ColumnCount() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return len(m.columns)
}

// SetBinNames attaches display names to bins; extra names are ignored.
func (m *Matrix) SetBinNames(names []string) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if len(names) > m.binCount {
		names = names[:m.binCount]
	}
	m.binNames = append([]string(nil), names...)
}

func (m *Matrix) BinName(bin int) string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if bin < 0 || bin >= len(m.binNames) {
		return ""
	}
	return m.binNames[bin]
}

// SetColumn stores values at the given column index, growing the grid as
// needed. Values beyond the bin count are dropped; missing bins are zero.
func (m *Matrix) SetColumn(col int, values []float32) {
	if col < 0 {
		return
	}

	m.mtx.Lock()

	for len(m.columns) <= col {
		m.columns = append(m.columns, nil)
	}

	column := make([]float32, m.binCount)
	copy(column, values)
	m.columns[col] = column

	for _, v := range column {
		if !m.have {
			m.min, m.max = v, v
			m.have = true
			continue
		}
		if v < m.min {
			m.min = v
		}
		if v > m.max {
			m.max = v
		}
	}

	res := int64(m.resolution)
	m.mtx.Unlock()

	m.EmitChangedWithin(int64(col)*res, int64(col+1)*res)
}

// Column returns the stored values at col, or a zero column when it was
// never set.
func (m *Matrix) Column(col int) []float32 {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if col < 0 || col >= len(m.columns) || m.columns[col] == nil {
		return make([]float32, m.binCount)
	}

	out := make([]float32, m.binCount)
	copy(out, m.columns[col])
	return out
}

// ValueExtents returns the observed bin value range; ok is false while no
// column has been set.
func (m *Matrix) ValueExtents() (min, max float32, ok bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.min, m.max, m.have
}
