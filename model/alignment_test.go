package model

import (
	"testing"
)

// alignmentFixture builds a reference model at 1000 Hz, an aligned model,
// and a raw path connecting them.
func alignmentFixture(t *testing.T) (*Registry, *Samples, *Samples, *SparseTimeValue) {
	t.Helper()

	reg := NewRegistry()

	reference := NewSamples(1000, 1, make([]float32, 2000))
	aligned := NewSamples(1000, 1, make([]float32, 2000))
	reg.Register(reference)
	reg.Register(aligned)

	rawPath := NewSparseTimeValue(1000, 1)
	reg.Register(rawPath)

	return reg, reference, aligned, rawPath
}

func TestAlignment_Interpolation(t *testing.T) {
	t.Parallel()

	reg, reference, aligned, rawPath := alignmentFixture(t)

	// Raw path: source frame -> value in seconds on the reference
	// timeline. At a 1000 Hz reference rate, (0, 0.0) and (1000, 0.5)
	// give a forward path of (0,0) and (1000,500).
	rawPath.AddPoint(0, 0.0, "")
	rawPath.AddPoint(1000, 0.5, "")

	a := NewAlignment(reg, reference.ID(), aligned.ID(), nil, rawPath)

	if got := a.ToReference(0); got != 0 {
		t.Errorf("ToReference(0) = %d, want 0", got)
	}
	if got := a.ToReference(1000); got != 500 {
		t.Errorf("ToReference(1000) = %d, want 500", got)
	}
	if got := a.ToReference(500); got != 250 {
		t.Errorf("ToReference(500) = %d, want 250", got)
	}
	if got := a.FromReference(250); got != 500 {
		t.Errorf("FromReference(250) = %d, want 500", got)
	}

	// Extrapolation beyond the final vertex clamps to its mapped value.
	if got := a.ToReference(1500); got != 500 {
		t.Errorf("ToReference(1500) = %d, want 500 (clamped)", got)
	}
}

func TestAlignment_RoundTripAtVertices(t *testing.T) {
	t.Parallel()

	reg, reference, aligned, rawPath := alignmentFixture(t)

	points := []struct {
		frame int64
		value float32
	}{
		{0, 0.0}, {400, 0.3}, {1000, 0.5}, {1600, 1.2},
	}
	for _, p := range points {
		rawPath.AddPoint(p.frame, p.value, "")
	}

	a := NewAlignment(reg, reference.ID(), aligned.ID(), nil, rawPath)

	for _, p := range points {
		target := int64(float64(p.value) * 1000)
		if got := a.ToReference(p.frame); got != target {
			t.Errorf("ToReference(%d) = %d, want %d", p.frame, got, target)
		}
		if got := a.FromReference(target); got != p.frame {
			t.Errorf("FromReference(%d) = %d, want %d", target, got, p.frame)
		}
	}
}

func TestAlignment_Monotonicity(t *testing.T) {
	t.Parallel()

	reg, reference, aligned, rawPath := alignmentFixture(t)

	rawPath.AddPoint(0, 0.0, "")
	rawPath.AddPoint(300, 0.2, "")
	rawPath.AddPoint(900, 0.9, "")
	rawPath.AddPoint(1500, 1.1, "")

	a := NewAlignment(reg, reference.ID(), aligned.ID(), nil, rawPath)

	prev := int64(-1)
	for q := int64(0); q <= 1500; q += 7 {
		got := a.ToReference(q)
		if got < prev {
			t.Fatalf("ToReference(%d) = %d < previous %d", q, got, prev)
		}
		prev = got
	}
}

func TestAlignment_NoRawPathIsIdentity(t *testing.T) {
	t.Parallel()

	reg, reference, aligned, _ := alignmentFixture(t)

	a := NewAlignment(reg, reference.ID(), aligned.ID(), nil, nil)

	if !a.IsReady() {
		t.Error("IsReady() = false with no raw path, want true")
	}
	if got := a.ToReference(123); got != 123 {
		t.Errorf("ToReference(123) = %d, want identity", got)
	}
	if got := a.FromReference(321); got != 321 {
		t.Errorf("FromReference(321) = %d, want identity", got)
	}
}

func TestAlignment_StreamingPathGrowth(t *testing.T) {
	t.Parallel()

	reg, reference, aligned, rawPath := alignmentFixture(t)

	input := NewSparseTimeValue(1000, 1)
	reg.Register(input)

	a := NewAlignment(reg, reference.ID(), aligned.ID(), input, rawPath)

	if a.IsReady() {
		t.Error("IsReady() = true while the raw path is still growing")
	}

	// Points may arrive in any order; the maps rebuild from the full set.
	rawPath.AddPoint(1000, 0.5, "")
	rawPath.AddPoint(0, 0.0, "")

	if got := a.ToReference(500); got != 250 {
		t.Errorf("ToReference(500) = %d during growth, want 250", got)
	}

	rawPath.SetCompletion(100, true)

	if !a.IsReady() {
		t.Error("IsReady() = false after raw path completion")
	}

	// The transient input and raw path are released on completion; the
	// derived paths stay authoritative.
	if _, ok := reg.Lookup(input.ID()); ok {
		t.Error("transient input model still registered after completion")
	}
	if _, ok := reg.Lookup(rawPath.ID()); ok {
		t.Error("raw path model still registered after completion")
	}
	if got := a.ToReference(500); got != 250 {
		t.Errorf("ToReference(500) = %d after release, want 250", got)
	}
}
