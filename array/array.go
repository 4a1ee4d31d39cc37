// Package array holds the row-major N-dimensional arrays returned by field
// reads.
package array

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/ctessum/sparse"
)

// DType is the element type of an Array.
type DType int

const (
	Invalid DType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	String
)

var dtypeNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

func (d DType) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return fmt.Sprintf("DType(%d)", int(d))
	}
	return dtypeNames[d]
}

var kindDTypes = map[reflect.Kind]DType{
	reflect.Int8:    Int8,
	reflect.Uint8:   Uint8,
	reflect.Int16:   Int16,
	reflect.Uint16:  Uint16,
	reflect.Int32:   Int32,
	reflect.Uint32:  Uint32,
	reflect.Int64:   Int64,
	reflect.Uint64:  Uint64,
	reflect.Float32: Float32,
	reflect.Float64: Float64,
	reflect.String:  String,
}

// Array is a dense row-major array. Data is a flat slice of the element type
// ([]int16, []float32, ...) holding product(Shape) elements. An empty Shape
// is a scalar with one element.
type Array struct {
	Shape []int
	Data  any
}

// New checks that data is a supported flat slice of product(shape) elements.
func New(shape []int, data any) (*Array, error) {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("array: data is %T, not a slice", data)
	}
	if _, ok := kindDTypes[v.Type().Elem().Kind()]; !ok {
		return nil, fmt.Errorf("array: unsupported element type %s", v.Type().Elem())
	}
	if n := size(shape); v.Len() != n {
		return nil, fmt.Errorf("array: %d elements for shape %v (want %d)", v.Len(), shape, n)
	}
	return &Array{Shape: slices.Clone(shape), Data: data}, nil
}

// DType reports the element type.
func (a *Array) DType() DType {
	return kindDTypes[reflect.TypeOf(a.Data).Elem().Kind()]
}

// Len is the number of elements.
func (a *Array) Len() int { return reflect.ValueOf(a.Data).Len() }

// Rank is the number of axes.
func (a *Array) Rank() int { return len(a.Shape) }

// At returns the element at the given position.
func (a *Array) At(idx ...int) (any, error) {
	off, err := offset(a.Shape, idx)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(a.Data).Index(off).Interface(), nil
}

// Squeeze removes the given axes, each of which must have length 1. Axes are
// removed from the highest down so earlier indices stay valid.
func (a *Array) Squeeze(axes []int) (*Array, error) {
	shape := slices.Clone(a.Shape)
	sorted := slices.Clone(axes)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for i := len(sorted) - 1; i >= 0; i-- {
		ax := sorted[i]
		if ax < 0 || ax >= len(shape) {
			return nil, fmt.Errorf("array: squeeze axis %d out of range for shape %v", ax, a.Shape)
		}
		if shape[ax] != 1 {
			return nil, fmt.Errorf("array: cannot squeeze axis %d of length %d", ax, shape[ax])
		}
		shape = slices.Delete(shape, ax, ax+1)
	}
	// Removing unit axes leaves the row-major order untouched.
	return &Array{Shape: shape, Data: a.Data}, nil
}

// Subset copies the strided selection start + k*stride, k < extent, on every
// axis into a new array.
func (a *Array) Subset(start, stride, extent []int) (*Array, error) {
	n := len(a.Shape)
	if len(start) != n || len(stride) != n || len(extent) != n {
		return nil, fmt.Errorf("array: selection rank does not match shape %v", a.Shape)
	}
	for i := range a.Shape {
		last := start[i] + stride[i]*(extent[i]-1)
		if start[i] < 0 || stride[i] < 1 || extent[i] < 1 || last >= a.Shape[i] {
			return nil, fmt.Errorf("array: axis %d selection start=%d stride=%d extent=%d outside length %d",
				i, start[i], stride[i], extent[i], a.Shape[i])
		}
	}
	src := reflect.ValueOf(a.Data)
	total := size(extent)
	dst := reflect.MakeSlice(src.Type(), total, total)
	strides := rowStrides(a.Shape)
	pos := make([]int, n)
	for k := 0; k < total; k++ {
		off := 0
		for i, p := range pos {
			off += (start[i] + p*stride[i]) * strides[i]
		}
		dst.Index(k).Set(src.Index(off))
		for i := n - 1; i >= 0; i-- {
			pos[i]++
			if pos[i] < extent[i] {
				break
			}
			pos[i] = 0
		}
	}
	return &Array{Shape: slices.Clone(extent), Data: dst.Interface()}, nil
}

// Dense converts a numeric array to float64.
func (a *Array) Dense() (*sparse.DenseArray, error) {
	vals, err := Float64s(a.Data)
	if err != nil {
		return nil, err
	}
	d := sparse.ZerosDense(a.Shape...)
	copy(d.Elements, vals)
	return d, nil
}

// Float64s converts a flat numeric slice to []float64.
func Float64s(data any) ([]float64, error) {
	switch v := data.(type) {
	case []int8:
		return convert(v), nil
	case []uint8:
		return convert(v), nil
	case []int16:
		return convert(v), nil
	case []uint16:
		return convert(v), nil
	case []int32:
		return convert(v), nil
	case []uint32:
		return convert(v), nil
	case []int64:
		return convert(v), nil
	case []uint64:
		return convert(v), nil
	case []float32:
		return convert(v), nil
	case []float64:
		return slices.Clone(v), nil
	}
	return nil, fmt.Errorf("array: %T is not numeric", data)
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func convert[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func size(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func rowStrides(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func offset(shape, idx []int) (int, error) {
	if len(idx) != len(shape) {
		return 0, fmt.Errorf("array: %d indices for rank %d", len(idx), len(shape))
	}
	strides := rowStrides(shape)
	off := 0
	for i, x := range idx {
		if x < 0 || x >= shape[i] {
			return 0, fmt.Errorf("array: index %d out of range on axis %d of length %d", x, i, shape[i])
		}
		off += x * strides[i]
	}
	return off, nil
}
