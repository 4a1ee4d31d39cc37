package eos

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rtm0/eos/internal/driver"
)

// Attrs is an attribute table in storage order.
type Attrs struct {
	keys []string
	vals map[string]any
}

func newAttrs(list []driver.Attr) Attrs {
	a := Attrs{vals: make(map[string]any, len(list))}
	for _, at := range list {
		if _, dup := a.vals[at.Name]; !dup {
			a.keys = append(a.keys, at.Name)
		}
		a.vals[at.Name] = at.Value
	}
	return a
}

// Keys returns the attribute names in storage order.
func (a Attrs) Keys() []string { return append([]string(nil), a.keys...) }

// Get returns the value of an attribute.
func (a Attrs) Get(name string) (any, bool) {
	v, ok := a.vals[name]
	return v, ok
}

// Len is the number of attributes.
func (a Attrs) Len() int { return len(a.keys) }

// String formats the table one "name:  value" line per attribute.
func (a Attrs) String() string {
	var b strings.Builder
	for _, k := range a.keys {
		fmt.Fprintf(&b, "%s:  %v\n", k, a.vals[k])
	}
	return b.String()
}

// attrSource picks where attribute tables come from based on the file's
// capabilities. Failures are logged and yield an empty table.
type attrSource struct {
	file driver.File
	log  *slog.Logger
}

func (s attrSource) fileAttrs() Attrs {
	l, ok := s.file.(driver.AttrLister)
	if !ok {
		return Attrs{}
	}
	list, err := l.Attrs()
	if err != nil {
		s.log.Warn("cannot read file attributes", "err", err)
		return Attrs{}
	}
	return newAttrs(list)
}

func (s attrSource) objectAttrs(obj driver.Object) Attrs {
	l, ok := obj.(driver.AttrLister)
	if !ok {
		return Attrs{}
	}
	list, err := l.Attrs()
	if err != nil {
		s.log.Warn("cannot read object attributes", "object", obj.Name(), "err", err)
		return Attrs{}
	}
	return newAttrs(list)
}

func (s attrSource) fieldAttrs(obj driver.Object, field string) Attrs {
	var (
		list []driver.Attr
		err  error
	)
	caps := s.file.Capabilities()
	switch {
	case caps.Has(driver.LocalAttrs):
		r, ok := obj.(driver.LocalAttrReader)
		if !ok {
			return Attrs{}
		}
		list, err = r.FieldAttrs(field)
	case caps.Has(driver.DatasetAttrs):
		r, ok := s.file.(driver.DatasetAttrReader)
		if !ok {
			return Attrs{}
		}
		s.log.Debug("reading field attributes from dataset index", "object", obj.Name(), "field", field)
		list, err = r.DatasetAttrs(field)
	default:
		return Attrs{}
	}
	if err != nil {
		s.log.Warn("cannot read field attributes", "object", obj.Name(), "field", field, "err", err)
		return Attrs{}
	}
	return newAttrs(list)
}
