package eos

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rtm0/eos/internal/driver"
)

// Swath is an attached swath. It has fields and attributes like a Grid but
// no projection.
type Swath struct {
	s      driver.Swath
	dims   []driver.Dim
	fields []*Field
	attrs  Attrs
}

func newSwath(s driver.Swath, src attrSource) (*Swath, error) {
	sw := &Swath{s: s}
	var err error
	if sw.dims, err = s.Dims(); err != nil {
		return nil, err
	}
	names, err := s.Fields()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		f, err := newField(s, name, src)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		sw.fields = append(sw.fields, f)
	}
	sw.attrs = src.objectAttrs(s)
	return sw, nil
}

func (s *Swath) Name() string { return s.s.Name() }

func (s *Swath) Dims() []Dim { return slices.Clone(s.dims) }

func (s *Swath) Fields() []string { return fieldNames(s.fields) }

func (s *Swath) Field(name string) (*Field, error) { return findField(s.Name(), s.fields, name) }

func (s *Swath) Attrs() Attrs { return s.attrs }

func (s *Swath) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Swath:  %s\n", s.Name())
	b.WriteString("    Dimensions:\n")
	for _, d := range s.dims {
		fmt.Fprintf(&b, "        %s:  %d\n", d.Name, d.Size)
	}
	b.WriteString("    Fields:\n")
	for _, f := range s.fields {
		b.WriteString(indent(f.String(), 8))
	}
	b.WriteString("    Swath Attributes:\n")
	b.WriteString(indent(s.attrs.String(), 8))
	return b.String()
}
