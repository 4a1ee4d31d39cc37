package array

import (
	"fmt"
	"reflect"
)

// Flatten turns the nested slices produced by the HDF5 reader ([][]int16,
// [][][]float32, ...) into an Array. Every level must be rectangular.
func Flatten(nested any) (*Array, error) {
	v := reflect.ValueOf(nested)
	if v.Kind() != reflect.Slice {
		// Scalars come back unwrapped.
		if _, ok := kindDTypes[v.Kind()]; !ok {
			return nil, fmt.Errorf("array: cannot flatten %T", nested)
		}
		s := reflect.MakeSlice(reflect.SliceOf(v.Type()), 1, 1)
		s.Index(0).Set(v)
		return &Array{Shape: []int{}, Data: s.Interface()}, nil
	}

	var shape []int
	t := v.Type()
	for cur := v; t.Kind() == reflect.Slice; t = t.Elem() {
		shape = append(shape, cur.Len())
		if cur.Len() > 0 {
			cur = cur.Index(0)
		}
	}
	if _, ok := kindDTypes[t.Kind()]; !ok {
		return nil, fmt.Errorf("array: unsupported element type %s", t)
	}

	n := size(shape)
	out := reflect.MakeSlice(reflect.SliceOf(t), 0, n)
	var walk func(reflect.Value, int) error
	walk = func(cur reflect.Value, depth int) error {
		if cur.Len() != shape[depth] {
			return fmt.Errorf("array: ragged input at depth %d: length %d, want %d", depth, cur.Len(), shape[depth])
		}
		if depth == len(shape)-1 {
			out = reflect.AppendSlice(out, cur)
			return nil
		}
		for i := 0; i < cur.Len(); i++ {
			if err := walk(cur.Index(i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(v, 0); err != nil {
		return nil, err
	}
	return &Array{Shape: shape, Data: out.Interface()}, nil
}
