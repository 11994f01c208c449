package event

import (
	"testing"
)

func TestEvent_Builders(t *testing.T) {
	t.Parallel()

	e := New(100).WithDuration(50).WithValue(440).WithLevel(0.8).WithLabel("A4")

	if e.Frame() != 100 {
		t.Errorf("Frame() = %d, want 100", e.Frame())
	}
	if e.Duration() != 50 {
		t.Errorf("Duration() = %d, want 50", e.Duration())
	}
	if !e.HasDuration() {
		t.Error("HasDuration() = false, want true")
	}
	if e.Value() != 440 {
		t.Errorf("Value() = %v, want 440", e.Value())
	}
	if e.Level() != 0.8 {
		t.Errorf("Level() = %v, want 0.8", e.Level())
	}
	if e.Label() != "A4" {
		t.Errorf("Label() = %q, want %q", e.Label(), "A4")
	}
	if e.EndFrame() != 150 {
		t.Errorf("EndFrame() = %d, want 150", e.EndFrame())
	}
}

func TestEvent_DefaultsToUnsetValue(t *testing.T) {
	t.Parallel()

	e := New(10)
	if e.HasValue() {
		t.Error("HasValue() = true for a fresh event, want false")
	}
	if e.HasDuration() {
		t.Error("HasDuration() = true for a fresh event, want false")
	}
}

func TestEvent_NegativeDurationPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithDuration(-1) did not panic")
		}
	}()

	New(0).WithDuration(-1)
}

func TestEvent_Equal(t *testing.T) {
	t.Parallel()

	a := New(100).WithDuration(50).WithValue(1).WithLabel("x")
	b := New(100).WithDuration(50).WithValue(1).WithLabel("x")
	c := b.WithLabel("y")

	if !a.Equal(b) {
		t.Error("identical events compare unequal")
	}
	if a.Equal(c) {
		t.Error("events with different labels compare equal")
	}

	// Two unset values are equal.
	if !New(5).Equal(New(5)) {
		t.Error("two valueless events at the same frame compare unequal")
	}
	if New(5).Equal(New(5).WithValue(0)) {
		t.Error("unset value compares equal to 0")
	}
}

func TestEvent_Ordering(t *testing.T) {
	t.Parallel()

	// Lexicographic over (frame, duration, value, level, label).
	ordered := []Event{
		New(10),
		New(10).WithValue(1),
		New(10).WithDuration(5),
		New(10).WithDuration(5).WithValue(-3),
		New(10).WithDuration(5).WithValue(2),
		New(10).WithDuration(5).WithValue(2).WithLevel(0.5),
		New(10).WithDuration(5).WithValue(2).WithLevel(0.5).WithLabel("a"),
		New(10).WithDuration(5).WithValue(2).WithLevel(0.5).WithLabel("b"),
		New(11),
	}

	for i := 0; i+1 < len(ordered); i++ {
		if !ordered[i].Less(ordered[i+1]) {
			t.Errorf("%v should sort before %v", ordered[i], ordered[i+1])
		}
		if ordered[i+1].Less(ordered[i]) {
			t.Errorf("%v should not sort before %v", ordered[i+1], ordered[i])
		}
	}
}
