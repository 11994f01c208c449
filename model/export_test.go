package model

import (
	"fmt"
	"strings"
	"testing"
)

func TestSparseTimeValue_ToXML(t *testing.T) {
	t.Parallel()

	m := NewSparseTimeValue(44100, 1024)
	m.SetUnits("Hz")
	m.AddPoint(0, 440, "a<b")
	m.AddPoint(1024, 220, "")

	var b strings.Builder
	if err := m.ToXML(&b, "  "); err != nil {
		t.Fatalf("ToXML() error = %v", err)
	}
	got := b.String()

	wantModel := fmt.Sprintf(
		`<model id="%d" type="sparse" dimensions="2" resolution="1024" sampleRate="44100" minimum="220" maximum="440" units="Hz" valueQuantization="0"/>`,
		m.ID())
	if !strings.Contains(got, wantModel) {
		t.Errorf("ToXML() missing model element:\n%s\nwant to contain:\n%s", got, wantModel)
	}
	if !strings.Contains(got, `<point frame="0" value="440" label="a&lt;b"/>`) {
		t.Errorf("ToXML() missing escaped point:\n%s", got)
	}
	if !strings.Contains(got, `<point frame="1024" value="220" label=""/>`) {
		t.Errorf("ToXML() missing second point:\n%s", got)
	}
	if !strings.Contains(got, "<dataset ") || !strings.Contains(got, "</dataset>") {
		t.Errorf("ToXML() missing dataset block:\n%s", got)
	}
}

func TestNote_ToXMLCarriesDurationAndLevel(t *testing.T) {
	t.Parallel()

	m := NewNote(44100, 1)
	m.AddNote(100, 69, 50, 0.5, "A4")

	var b strings.Builder
	if err := m.ToXML(&b, ""); err != nil {
		t.Fatalf("ToXML() error = %v", err)
	}
	got := b.String()

	if !strings.Contains(got, `subtype="note"`) {
		t.Errorf("ToXML() missing note subtype:\n%s", got)
	}
	if !strings.Contains(got, `<point frame="100" value="69" duration="50" level="0.5" label="A4"/>`) {
		t.Errorf("ToXML() missing note point:\n%s", got)
	}
}

func TestToDelimited(t *testing.T) {
	t.Parallel()

	m := NewSparseTimeValue(10, 1)
	m.AddPoint(5, 1.5, "x")
	m.AddPoint(20, -2, "")

	var b strings.Builder
	if err := m.ToDelimited(&b, ",", false); err != nil {
		t.Fatalf("ToDelimited() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("ToDelimited() produced %d rows, want 2", len(lines))
	}
	if lines[0] != "5,1.5,x" {
		t.Errorf("row 0 = %q, want %q", lines[0], "5,1.5,x")
	}
	if lines[1] != "20,-2" {
		t.Errorf("row 1 = %q, want %q", lines[1], "20,-2")
	}

	// Time mode writes seconds: frame 5 at 10 Hz is 0.5 s.
	b.Reset()
	if err := m.ToDelimited(&b, ",", true); err != nil {
		t.Fatalf("ToDelimited() error = %v", err)
	}
	if !strings.HasPrefix(b.String(), "0.500000000,") {
		t.Errorf("time-mode row = %q, want to start with 0.500000000,", b.String())
	}
}

func TestRegion_ToDelimitedRowOrder(t *testing.T) {
	t.Parallel()

	m := NewRegion(10, 1)
	m.AddRegion(30, 2, 10, "")
	m.AddRegion(10, 1, 10, "")

	var b strings.Builder
	if err := m.ToDelimited(&b, "\t", false); err != nil {
		t.Fatalf("ToDelimited() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("ToDelimited() produced %d rows, want 2", len(lines))
	}
	// Rows are ordered by frame regardless of insertion order.
	if !strings.HasPrefix(lines[0], "10\t1\t10") {
		t.Errorf("row 0 = %q, want frame 10 first", lines[0])
	}
	if !strings.HasPrefix(lines[1], "30\t2\t10") {
		t.Errorf("row 1 = %q, want frame 30 second", lines[1])
	}
}
