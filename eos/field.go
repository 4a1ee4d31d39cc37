package eos

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/index"
	"github.com/rtm0/eos/internal/driver"
)

// Field is a named array of a grid or swath.
type Field struct {
	obj   driver.Object
	info  driver.FieldInfo
	attrs Attrs
}

func newField(obj driver.Object, name string, src attrSource) (*Field, error) {
	info, err := obj.FieldInfo(name)
	if err != nil {
		return nil, err
	}
	return &Field{obj: obj, info: info, attrs: src.fieldAttrs(obj, name)}, nil
}

func (f *Field) Name() string { return f.info.Name }

// Shape returns the declared size of every axis.
func (f *Field) Shape() []int { return slices.Clone(f.info.Shape) }

func (f *Field) DType() array.DType { return f.info.DType }

// DimNames returns the dimension name of every axis.
func (f *Field) DimNames() []string { return slices.Clone(f.info.Dims) }

func (f *Field) Attrs() Attrs { return f.attrs }

// Read returns the selection sub of the field. Axes addressed by an Int are
// dropped from the result.
//
// Subscript errors from the index package are returned as is. A failed
// storage read is returned as a *ReadError.
func (f *Field) Read(sub index.Subscript) (*array.Array, error) {
	plan, err := index.Normalize(f.info.Shape, sub)
	if err != nil {
		return nil, err
	}
	raw, err := f.obj.ReadField(f.info.Name, plan.Start, plan.Stride, plan.Extent)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		return nil, &ReadError{Object: f.obj.Name(), Field: f.info.Name, Plan: plan, Err: err}
	}
	out, err := raw.Squeeze(plan.Squeeze)
	if err != nil {
		return nil, &ReadError{Object: f.obj.Name(), Field: f.info.Name, Plan: plan, Err: err}
	}
	return out, nil
}

func (f *Field) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]:\n", f.info.Name, strings.Join(f.info.Dims, ", "))
	for _, k := range f.attrs.keys {
		fmt.Fprintf(&b, "    %s:  %v ;\n", k, f.attrs.vals[k])
	}
	return b.String()
}
