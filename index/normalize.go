package index

import "slices"

type mode int

const (
	fieldMode mode = iota
	gridMode
)

// Normalize resolves sub against the shape of a field.
//
// A bare Int selects one position along axis 0 and keeps every other axis
// whole. The Ellipsis marker and the bare ":" slice select everything. A bare
// slice with any bound set is rejected: once a constraint is given, every axis
// it applies to must be spelled out with a Tuple.
func Normalize(shape []int, sub Subscript) (*Plan, error) {
	return normalize(shape, sub, fieldMode)
}

// NormalizeGrid resolves sub against the geolocation shape of a grid. It
// differs from Normalize in rejecting a bare Int, which does not say which
// axis it addresses, and any Tuple with more components than the grid has
// axes.
func NormalizeGrid(shape []int, sub Subscript) (*Plan, error) {
	return normalize(shape, sub, gridMode)
}

// normalize runs the stages in order: reduce the subscript to tuple form,
// expand the ellipsis, rewrite integers as unit slices, then compute the
// start/stride/extent vectors and the squeeze axes.
func normalize(shape []int, sub Subscript, m mode) (*Plan, error) {
	if len(shape) == 0 {
		return nil, invalidf("cannot subscript a rank-0 shape")
	}
	items, err := tupleForm(sub, len(shape), m)
	if err != nil {
		return nil, err
	}
	items = expandEllipsis(items, len(shape))
	comps, err := unitSlices(items, shape)
	if err != nil {
		return nil, err
	}
	return resolve(shape, comps)
}

func tupleForm(sub Subscript, ndims int, m mode) (Tuple, error) {
	switch s := sub.(type) {
	case nil:
		return nil, invalidf("nil subscript")
	case Int:
		if m == gridMode {
			return nil, invalidf("a scalar integer does not name a grid axis")
		}
		return Tuple{s}, nil
	case ellipsis:
		return Tuple{}, nil
	case Slice:
		if !s.IsAll() {
			return nil, invalidf("a single slice argument is only legal as ':', got %q", s.String())
		}
		return Tuple{}, nil
	case Tuple:
		if m == gridMode && len(s) > ndims {
			return nil, invalidf("%d components for a grid with %d axes", len(s), ndims)
		}
		n := 0
		for _, c := range s {
			switch c.(type) {
			case Int, Slice:
				n++
			case ellipsis:
			case nil:
				return nil, invalidf("nil component in %q", s.String())
			default:
				return nil, invalidf("nested %T in tuple", c)
			}
		}
		if n > ndims {
			return nil, invalidf("%d components for %d axes", n, ndims)
		}
		return s, nil
	}
	return nil, invalidf("unsupported subscript %T", sub)
}

// expandEllipsis replaces the first ellipsis with as many full slices as
// there are axes not consumed by the other components, and repeats while an
// ellipsis remains.
func expandEllipsis(items Tuple, ndims int) Tuple {
	for {
		i := slices.IndexFunc(items, isEllipsis)
		if i < 0 {
			return items
		}
		width := max(ndims-(len(items)-1), 0)
		out := make(Tuple, 0, len(items)-1+width)
		out = append(out, items[:i]...)
		for range width {
			out = append(out, All())
		}
		out = append(out, items[i+1:]...)
		items = out
	}
}

func isEllipsis(s Subscript) bool {
	_, ok := s.(ellipsis)
	return ok
}

type component struct {
	Slice
	squeeze bool
}

// unitSlices rewrites every Int as the slice i:i+1:1 marked for squeezing,
// and pads missing trailing axes with full slices.
func unitSlices(items Tuple, shape []int) ([]component, error) {
	comps := make([]component, len(shape))
	for axis, size := range shape {
		if axis >= len(items) {
			comps[axis] = component{Slice: All()}
			continue
		}
		switch c := items[axis].(type) {
		case Int:
			i := int(c)
			if i < 0 || i >= size {
				return nil, &BoundsError{Axis: axis, Start: i, Stop: i + 1, Size: size}
			}
			comps[axis] = component{Slice: Stepped(i, i+1, 1), squeeze: true}
		case Slice:
			comps[axis] = component{Slice: c}
		}
	}
	return comps, nil
}

func resolve(shape []int, comps []component) (*Plan, error) {
	p := &Plan{
		Start:  make([]int, len(shape)),
		Stride: make([]int, len(shape)),
		Extent: make([]int, len(shape)),
	}
	for axis, c := range comps {
		size := shape[axis]
		start, stop, step := 0, size, 1
		if c.Start != nil {
			start = *c.Start
		}
		if c.Stop != nil {
			stop = *c.Stop
		}
		if c.Step != nil {
			step = *c.Step
		}
		if step < 1 {
			return nil, invalidf("axis %d: step %d", axis, step)
		}
		if start < 0 || stop < 0 || stop > size {
			return nil, &BoundsError{Axis: axis, Start: start, Stop: stop, Size: size}
		}
		extent := (stop - start) / step
		if extent < 1 {
			return nil, invalidf("axis %d: empty selection %s", axis, c.Slice.String())
		}
		p.Start[axis] = start
		p.Stride[axis] = step
		p.Extent[axis] = extent
		if c.squeeze {
			p.Squeeze = append(p.Squeeze, axis)
		}
	}
	return p, nil
}
