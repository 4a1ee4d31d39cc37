package eos

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/gctp"
	"github.com/rtm0/eos/index"
	"github.com/rtm0/eos/internal/driver"
)

// BlockDim names the dimension holding the block count of a Space Oblique
// Mercator grid.
const BlockDim = "SOMBlockDim"

// blockOffsetsAttr prefixes the attribute holding the relative block offsets
// of a Space Oblique Mercator grid, one per block after the first.
const blockOffsetsAttr = "_BLKSOM"

// Dim is a named dimension of a grid or swath.
type Dim = driver.Dim

// Grid is an attached grid: its geometry, projection, fields and attributes.
type Grid struct {
	fl     *file
	g      driver.Grid
	info   driver.GridInfo
	proj   gctp.Descriptor
	origin gctp.Origin
	pixreg gctp.PixReg
	dims   []driver.Dim
	blocks int
	fields []*Field
	attrs  Attrs
	tr     gctp.Transformer
}

// newGrid reads everything a Grid needs from an attached driver grid. The
// caller keeps ownership of g and detaches it when newGrid fails.
func newGrid(fl *file, g driver.Grid, tr gctp.Transformer) (*Grid, error) {
	src := fl.source()
	gr := &Grid{fl: fl, g: g, tr: tr}
	var err error
	if gr.info, err = g.GridInfo(); err != nil {
		return nil, err
	}
	if gr.proj, err = g.ProjInfo(); err != nil {
		return nil, err
	}
	if gr.origin, err = g.OriginInfo(); err != nil {
		return nil, err
	}
	if gr.pixreg, err = g.PixRegInfo(); err != nil {
		return nil, err
	}
	if gr.dims, err = g.Dims(); err != nil {
		return nil, err
	}
	if gr.proj.Code == gctp.SpaceObliqueMercator {
		for _, d := range gr.dims {
			if d.Name == BlockDim {
				gr.blocks = d.Size
			}
		}
	}
	names, err := g.Fields()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		f, err := newField(g, name, src)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		gr.fields = append(gr.fields, f)
	}
	gr.attrs = src.objectAttrs(g)
	return gr, nil
}

func (g *Grid) Name() string { return g.g.Name() }

// Shape returns the grid size as (rows, columns).
func (g *Grid) Shape() []int { return []int{g.info.Rows, g.info.Cols} }

// GeoShape is the shape Geolocate subscripts address: (rows, columns), or
// (blocks, columns, rows) for a block-structured grid, whose fields are laid
// out as (SOMBlockDim, XDim, YDim).
func (g *Grid) GeoShape() []int {
	if g.blocks > 0 {
		return []int{g.blocks, g.info.Cols, g.info.Rows}
	}
	return g.Shape()
}

// Dims returns the grid's named dimensions in storage order.
func (g *Grid) Dims() []Dim { return slices.Clone(g.dims) }

// UpperLeft is the upper left corner in projection units.
func (g *Grid) UpperLeft() [2]float64 { return g.info.UpperLeft }

// LowerRight is the lower right corner in projection units.
func (g *Grid) LowerRight() [2]float64 { return g.info.LowerRight }

func (g *Grid) Projection() gctp.Descriptor { return g.proj }

func (g *Grid) Origin() gctp.Origin { return g.origin }

func (g *Grid) PixReg() gctp.PixReg { return g.pixreg }

// Fields returns the field names in storage order.
func (g *Grid) Fields() []string { return fieldNames(g.fields) }

// Field returns the named field.
func (g *Grid) Field(name string) (*Field, error) { return findField(g.Name(), g.fields, name) }

func (g *Grid) Attrs() Attrs { return g.attrs }

// Geolocate returns the longitude and latitude in degrees of the cells
// selected by sub. Both arrays have the normalized shape of the selection,
// with axes addressed by an Int removed. Cells the projection cannot map are
// NaN.
//
// Block-structured grids take a third, leading, block axis. Block numbers
// passed to the transform count from 1.
func (g *Grid) Geolocate(sub index.Subscript) (lon, lat *sparse.DenseArray, err error) {
	if g.fl.closed {
		return nil, nil, fmt.Errorf("%w: grid %s", ErrClosed, g.Name())
	}
	plan, err := index.NormalizeGrid(g.GeoShape(), sub)
	if err != nil {
		return nil, nil, err
	}
	req := g.request(plan)
	lonv, latv, err := g.tr.Transform(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: grid %s: %w", ErrTransform, g.Name(), err)
	}
	if len(lonv) != len(req.Rows) || len(latv) != len(req.Rows) {
		return nil, nil, fmt.Errorf("%w: grid %s: %d cells requested, got %d longitudes and %d latitudes",
			ErrTransform, g.Name(), len(req.Rows), len(lonv), len(latv))
	}
	shape := plan.ResultShape()
	lon, lat = sparse.ZerosDense(shape...), sparse.ZerosDense(slices.Clone(shape)...)
	copy(lon.Elements, lonv)
	copy(lat.Elements, latv)
	return lon, lat, nil
}

// request builds the transform request for the row-major mesh of a plan.
func (g *Grid) request(plan *index.Plan) gctp.Request {
	req := gctp.Request{
		Projection: g.proj,
		Width:      g.info.Cols,
		Height:     g.info.Rows,
		UpperLeft:  g.info.UpperLeft,
		LowerRight: g.info.LowerRight,
		Origin:     g.origin,
		PixReg:     g.pixreg,
	}
	n := plan.Size()
	req.Rows = make([]int, 0, n)
	req.Cols = make([]int, 0, n)
	if plan.Rank() == 2 {
		for _, row := range plan.Coords(0) {
			for _, col := range plan.Coords(1) {
				req.Rows = append(req.Rows, row)
				req.Cols = append(req.Cols, col)
			}
		}
		return req
	}
	req.Blocks = make([]int, 0, n)
	req.BlockOffsets = g.blockOffsets()
	for _, b := range plan.Coords(0) {
		for _, col := range plan.Coords(1) {
			for _, row := range plan.Coords(2) {
				req.Rows = append(req.Rows, row)
				req.Cols = append(req.Cols, col)
				req.Blocks = append(req.Blocks, b+1)
			}
		}
	}
	return req
}

// blockOffsets looks up the relative block offsets on the grid, then on the
// file. A grid without them has aligned blocks.
func (g *Grid) blockOffsets() []float64 {
	keys := []string{blockOffsetsAttr + ":" + g.Name(), blockOffsetsAttr}
	for _, attrs := range []Attrs{g.attrs, g.fl.attrs} {
		for _, k := range keys {
			v, ok := attrs.Get(k)
			if !ok {
				continue
			}
			offs, err := array.Float64s(v)
			if err != nil {
				g.fl.log.Warn("ignoring block offsets", "grid", g.Name(), "attr", k, "err", err)
				return nil
			}
			return offs
		}
	}
	return nil
}

// Bounds returns the smallest and largest non-NaN element of a. ok is false
// when every element is NaN.
func Bounds(a *sparse.DenseArray) (lo, hi float64, ok bool) {
	vals := make([]float64, 0, len(a.Elements))
	for _, v := range a.Elements {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), false
	}
	return floats.Min(vals), floats.Max(vals), true
}

func (g *Grid) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grid:  %s\n", g.Name())
	fmt.Fprintf(&b, "    Shape:  (%d, %d)\n", g.info.Rows, g.info.Cols)
	b.WriteString("    Dimensions:\n")
	for _, d := range g.dims {
		fmt.Fprintf(&b, "        %s:  %d\n", d.Name, d.Size)
	}
	fmt.Fprintf(&b, "    Upper Left (x,y):  %s\n", formatPoint(g.info.UpperLeft))
	fmt.Fprintf(&b, "    Lower Right (x,y):  %s\n", formatPoint(g.info.LowerRight))
	fmt.Fprintf(&b, "    Sphere:  %s\n", g.proj.Sphere)
	b.WriteString(g.proj.Describe())
	b.WriteString("    Fields:\n")
	for _, f := range g.fields {
		b.WriteString(indent(f.String(), 8))
	}
	b.WriteString("    Grid Attributes:\n")
	b.WriteString(indent(g.attrs.String(), 8))
	return b.String()
}

func formatPoint(p [2]float64) string {
	return fmt.Sprintf("(%s, %s)", gctp.FormatFloat(p[0]), gctp.FormatFloat(p[1]))
}

// indent prefixes every non-empty line of s with n spaces.
func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "")
}

func fieldNames(fs []*Field) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name()
	}
	return names
}

func findField(object string, fs []*Field, name string) (*Field, error) {
	for _, f := range fs {
		if f.Name() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: field %q in %s", ErrNotFound, name, object)
}
