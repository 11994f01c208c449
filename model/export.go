// SPDX-License-Identifier: EPL-2.0

package model

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ik5/audalyze/event"
	"github.com/ik5/audalyze/utils"
)

// XMLExportable is the capability of emitting the persisted <model> /
// <dataset> representation.
type XMLExportable interface {
	ToXML(w io.Writer, indent string) error
}

// DelimitedExportable is the capability of emitting one delimited row per
// point, ordered by frame.
type DelimitedExportable interface {
	ToDelimited(w io.Writer, delim string, asTime bool) error
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

// writeModelOpen emits the <model> element shared by every exporter.
// extra carries the per-type attribute tail ("" for none).
func writeModelOpen(w io.Writer, indent string, id ID, typ string,
	dimensions, resolution, sampleRate int, extra string) error {

	_, err := fmt.Fprintf(w,
		"%s<model id=\"%d\" type=\"%s\" dimensions=\"%d\" resolution=\"%d\" sampleRate=\"%d\"%s/>\n",
		indent, id, typ, dimensions, resolution, sampleRate, extra)
	return err
}

func valueAttrs(ext *valueExtents, subtype string) string {
	var b strings.Builder
	if ext.have {
		fmt.Fprintf(&b, " minimum=\"%g\" maximum=\"%g\"", ext.min, ext.max)
	}
	if ext.units != "" {
		fmt.Fprintf(&b, " units=\"%s\"", xmlEscape(ext.units))
	}
	fmt.Fprintf(&b, " valueQuantization=\"0\"")
	if subtype != "" {
		fmt.Fprintf(&b, " subtype=\"%s\"", subtype)
	}
	return b.String()
}

func writeDataset(w io.Writer, indent string, id ID, events []event.Event,
	withValue, withDuration, withLevel bool) error {

	if _, err := fmt.Fprintf(w, "%s<dataset id=\"%d\" dimensions=\"1\">\n", indent, id); err != nil {
		return err
	}

	for _, e := range events {
		var b strings.Builder
		fmt.Fprintf(&b, "%s  <point frame=\"%d\"", indent, e.Frame())
		if withValue {
			fmt.Fprintf(&b, " value=\"%g\"", e.Value())
		}
		if withDuration {
			fmt.Fprintf(&b, " duration=\"%d\"", e.Duration())
		}
		if withLevel {
			fmt.Fprintf(&b, " level=\"%g\"", e.Level())
		}
		fmt.Fprintf(&b, " label=\"%s\"/>\n", xmlEscape(e.Label()))

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s</dataset>\n", indent)
	return err
}

func writeDelimitedRows(w io.Writer, delim string, asTime bool, rate int,
	events []event.Event, withValue, withDuration, withLevel bool) error {

	for _, e := range events {
		var b strings.Builder

		if asTime {
			secs := utils.FrameToDuration(e.Frame(), rate).Seconds()
			fmt.Fprintf(&b, "%.9f", secs)
		} else {
			fmt.Fprintf(&b, "%d", e.Frame())
		}

		if withValue {
			fmt.Fprintf(&b, "%s%g", delim, e.Value())
		}
		if withDuration {
			if asTime {
				fmt.Fprintf(&b, "%s%.9f", delim,
					utils.FrameToDuration(e.Duration(), rate).Seconds())
			} else {
				fmt.Fprintf(&b, "%s%d", delim, e.Duration())
			}
		}
		if withLevel {
			fmt.Fprintf(&b, "%s%g", delim, e.Level())
		}
		if e.Label() != "" {
			fmt.Fprintf(&b, "%s%s", delim, e.Label())
		}
		b.WriteString("\n")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}

	return nil
}

func (m *SparseOneDimensional) ToXML(w io.Writer, indent string) error {
	if err := writeModelOpen(w, indent, m.ID(), "sparse", 1,
		m.Resolution(), m.SampleRate(), ""); err != nil {
		return err
	}
	return writeDataset(w, indent, m.ID(), m.AllEvents(), false, false, false)
}

func (m *SparseOneDimensional) ToDelimited(w io.Writer, delim string, asTime bool) error {
	return writeDelimitedRows(w, delim, asTime, m.SampleRate(),
		m.AllEvents(), false, false, false)
}

func (m *SparseTimeValue) ToXML(w io.Writer, indent string) error {
	m.extMtx.Lock()
	extra := valueAttrs(&m.extents, "")
	m.extMtx.Unlock()

	if err := writeModelOpen(w, indent, m.ID(), "sparse", 2,
		m.Resolution(), m.SampleRate(), extra); err != nil {
		return err
	}
	return writeDataset(w, indent, m.ID(), m.AllEvents(), true, false, false)
}

func (m *SparseTimeValue) ToDelimited(w io.Writer, delim string, asTime bool) error {
	return writeDelimitedRows(w, delim, asTime, m.SampleRate(),
		m.AllEvents(), true, false, false)
}

func (m *Region) ToXML(w io.Writer, indent string) error {
	m.extMtx.Lock()
	extra := valueAttrs(&m.extents, "region")
	m.extMtx.Unlock()

	if err := writeModelOpen(w, indent, m.ID(), "sparse", 2,
		m.Resolution(), m.SampleRate(), extra); err != nil {
		return err
	}
	return writeDataset(w, indent, m.ID(), m.AllEvents(), true, true, false)
}

func (m *Region) ToDelimited(w io.Writer, delim string, asTime bool) error {
	return writeDelimitedRows(w, delim, asTime, m.SampleRate(),
		m.AllEvents(), true, true, false)
}

func (m *Note) ToXML(w io.Writer, indent string) error {
	m.extMtx.Lock()
	extra := valueAttrs(&m.extents, "note")
	m.extMtx.Unlock()

	if err := writeModelOpen(w, indent, m.ID(), "sparse", 3,
		m.Resolution(), m.SampleRate(), extra); err != nil {
		return err
	}
	return writeDataset(w, indent, m.ID(), m.AllEvents(), true, true, true)
}

func (m *Note) ToDelimited(w io.Writer, delim string, asTime bool) error {
	return writeDelimitedRows(w, delim, asTime, m.SampleRate(),
		m.AllEvents(), true, true, true)
}

func (m *Matrix) ToXML(w io.Writer, indent string) error {
	return writeModelOpen(w, indent, m.ID(), "dense", 3,
		m.Resolution(), m.SampleRate(), "")
}

func (s *Samples) ToXML(w io.Writer, indent string) error {
	return writeModelOpen(w, indent, s.ID(), "dense", 1, 1, s.SampleRate(), "")
}
