// Package index turns array subscript expressions into the start/stride/extent
// vectors consumed by hyperslab reads.
//
// A subscript is one of an Int, a Slice, the Ellipsis marker, or a Tuple of
// those. The forms mirror array indexing in scientific scripting languages:
//
//	index.Int(179)                                   // [179]
//	index.All()                                      // [:]
//	index.Ellipsis                                   // [...]
//	index.Tuple{index.Int(179), index.Range(0, 2), index.All()} // [179, 0:2, :]
package index

import (
	"strconv"
	"strings"
)

// Subscript is implemented by Int, Slice, Tuple and the Ellipsis marker.
type Subscript interface {
	subscript()
	String() string
}

// Int selects a single position and drops the axis from the result.
type Int int

// Slice selects a range of positions along one axis. Nil fields take their
// defaults: Start 0, Stop the axis length, Step 1.
type Slice struct {
	Start, Stop, Step *int
}

// Tuple addresses several axes at once, one component per axis.
type Tuple []Subscript

type ellipsis struct{}

// Ellipsis stands for as many full slices as are needed to cover the axes
// not addressed by the other components.
var Ellipsis Subscript = ellipsis{}

func (Int) subscript()      {}
func (Slice) subscript()    {}
func (Tuple) subscript()    {}
func (ellipsis) subscript() {}

// All returns the bare ":" slice.
func All() Slice { return Slice{} }

// Range returns start:stop.
func Range(start, stop int) Slice { return Slice{Start: &start, Stop: &stop} }

// Stepped returns start:stop:step.
func Stepped(start, stop, step int) Slice {
	return Slice{Start: &start, Stop: &stop, Step: &step}
}

// From returns start:.
func From(start int) Slice { return Slice{Start: &start} }

// To returns :stop.
func To(stop int) Slice { return Slice{Stop: &stop} }

// IsAll reports whether s is the bare ":" slice.
func (s Slice) IsAll() bool { return s.Start == nil && s.Stop == nil && s.Step == nil }

func (i Int) String() string { return strconv.Itoa(int(i)) }

func (s Slice) String() string {
	var b strings.Builder
	if s.Start != nil {
		b.WriteString(strconv.Itoa(*s.Start))
	}
	b.WriteByte(':')
	if s.Stop != nil {
		b.WriteString(strconv.Itoa(*s.Stop))
	}
	if s.Step != nil {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(*s.Step))
	}
	return b.String()
}

func (ellipsis) String() string { return "..." }

func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, c := range t {
		if c == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
