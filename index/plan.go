package index

import (
	"fmt"
	"slices"
)

// Plan is a normalized selection: for every axis the first position, the
// distance between positions and the number of positions. Squeeze lists, in
// ascending order, the axes addressed by a scalar index; they have extent 1
// and are dropped from the result.
type Plan struct {
	Start   []int
	Stride  []int
	Extent  []int
	Squeeze []int
}

// Full returns the plan that reads every position of shape.
func Full(shape []int) *Plan {
	p := &Plan{
		Start:  make([]int, len(shape)),
		Stride: make([]int, len(shape)),
		Extent: slices.Clone(shape),
	}
	for i := range p.Stride {
		p.Stride[i] = 1
	}
	return p
}

// Rank is the number of axes the plan addresses before squeezing.
func (p *Plan) Rank() int { return len(p.Start) }

// Shape is the shape of the raw hyperslab, before squeezing.
func (p *Plan) Shape() []int { return slices.Clone(p.Extent) }

// ResultShape is the shape after the squeezed axes are removed.
func (p *Plan) ResultShape() []int {
	out := make([]int, 0, len(p.Extent)-len(p.Squeeze))
	for i, n := range p.Extent {
		if !slices.Contains(p.Squeeze, i) {
			out = append(out, n)
		}
	}
	return out
}

// Size is the number of selected elements.
func (p *Plan) Size() int {
	n := 1
	for _, e := range p.Extent {
		n *= e
	}
	return n
}

// Last returns the final position selected along axis.
func (p *Plan) Last(axis int) int {
	return p.Start[axis] + p.Stride[axis]*(p.Extent[axis]-1)
}

// Coords expands the selection along axis into explicit positions.
func (p *Plan) Coords(axis int) []int {
	out := make([]int, p.Extent[axis])
	for k := range out {
		out[k] = p.Start[axis] + k*p.Stride[axis]
	}
	return out
}

// Check verifies the plan against shape: 0 <= start, stride >= 1, extent >= 1
// and start + stride*(extent-1) < shape on every axis.
func (p *Plan) Check(shape []int) error {
	if len(p.Start) != len(shape) || len(p.Stride) != len(shape) || len(p.Extent) != len(shape) {
		return invalidf("plan rank %d does not match shape rank %d", len(p.Start), len(shape))
	}
	for i, n := range shape {
		if p.Stride[i] < 1 {
			return invalidf("axis %d: stride %d", i, p.Stride[i])
		}
		if p.Extent[i] < 1 {
			return invalidf("axis %d: empty selection", i)
		}
		if p.Start[i] < 0 || p.Last(i) >= n {
			return &BoundsError{Axis: i, Start: p.Start[i], Stop: p.Last(i) + 1, Size: n}
		}
	}
	return nil
}

func (p *Plan) String() string {
	return fmt.Sprintf("start=%v stride=%v extent=%v squeeze=%v", p.Start, p.Stride, p.Extent, p.Squeeze)
}
