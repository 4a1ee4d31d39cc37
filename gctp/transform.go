package gctp

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	// ErrUnsupportedProjection is returned for projection codes with no
	// registered inverse.
	ErrUnsupportedProjection = errors.New("gctp: unsupported projection")

	// ErrOutsideProjection marks a projected point with no geographic
	// counterpart. Transform reports such cells as NaN instead of failing.
	ErrOutsideProjection = errors.New("gctp: point outside projection")
)

// Request carries everything needed to geolocate a set of grid cells.
type Request struct {
	Projection Descriptor

	// Width and Height are the grid's column and row counts.
	Width, Height int

	// UpperLeft and LowerRight are the outer corners of the grid in
	// projection units (packed DMS for Geographic grids).
	UpperLeft, LowerRight [2]float64

	Origin Origin
	PixReg PixReg

	// Rows and Cols address the cells to transform, pairwise.
	Rows, Cols []int

	// Blocks holds a block number per cell for block-structured grids,
	// counting from 1. It is nil for ordinary grids. Block b sits b-1 grid
	// widths along x from the first block.
	Blocks []int

	// BlockOffsets shifts each block after the first along y relative to
	// the block before it, in cells. Entry i applies to block i+2.
	BlockOffsets []float64
}

// Transformer maps grid cells to geographic coordinates in degrees.
type Transformer interface {
	Transform(req Request) (lon, lat []float64, err error)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(req Request) (lon, lat []float64, err error)

func (f TransformerFunc) Transform(req Request) ([]float64, []float64, error) { return f(req) }

// Inverse maps a projected point to longitude and latitude in degrees.
type Inverse func(x, y float64) (lon, lat float64, err error)

// Builder prepares the inverse mapping for one projection descriptor.
type Builder func(d Descriptor) (Inverse, error)

var (
	mu       sync.RWMutex
	builders = map[Code]Builder{
		Geographic:            geographic,
		UTM:                   utm,
		Albers:                albers,
		LambertConformalConic: lambertConformal,
		Mercator:              mercator,
		PolarStereographic:    polarStereographic,
		TransverseMercator:    transverseMercator,
		LambertAzimuthal:      lambertAzimuthal,
		Sinusoidal:            sinusoidal,
		EquidistantConic:      equidistantConic,
		SpaceObliqueMercator:  spaceObliqueMercator,
	}
)

// Register installs or replaces the inverse used for a projection code.
func Register(c Code, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	builders[c] = b
}

// Supported reports whether an inverse is registered for c.
func Supported(c Code) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := builders[c]
	return ok
}

func builder(c Code) (Builder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[c]
	return b, ok
}

// Default transforms with the registered inverses.
var Default Transformer = TransformerFunc(Transform)

// Transform computes the projected coordinate of every requested cell and
// maps it through the inverse registered for the request's projection code.
// Cells that fall outside the projection come back as NaN.
func Transform(req Request) (lon, lat []float64, err error) {
	if len(req.Rows) != len(req.Cols) {
		return nil, nil, fmt.Errorf("gctp: %d rows for %d columns", len(req.Rows), len(req.Cols))
	}
	if req.Blocks != nil && len(req.Blocks) != len(req.Rows) {
		return nil, nil, fmt.Errorf("gctp: %d blocks for %d cells", len(req.Blocks), len(req.Rows))
	}
	if req.Width < 1 || req.Height < 1 {
		return nil, nil, fmt.Errorf("gctp: grid size %dx%d", req.Width, req.Height)
	}
	code := req.Projection.Code
	b, ok := builder(code)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedProjection, code)
	}
	inv, err := b(req.Projection)
	if err != nil {
		return nil, nil, fmt.Errorf("gctp: %s: %w", code, err)
	}

	ul, lr := req.UpperLeft, req.LowerRight
	if code == Geographic {
		for i := range ul {
			ul[i], lr[i] = PackedDMS(ul[i]), PackedDMS(lr[i])
		}
	}
	lon = make([]float64, len(req.Rows))
	lat = make([]float64, len(req.Rows))
	for i := range req.Rows {
		x, y := cellXY(req, ul, lr, req.Rows[i], req.Cols[i])
		if req.Blocks != nil {
			dx, dy := blockShift(req, ul, lr, req.Blocks[i])
			x, y = x+dx, y+dy
		}
		lo, la, err := inv(x, y)
		switch {
		case errors.Is(err, ErrOutsideProjection):
			lon[i], lat[i] = math.NaN(), math.NaN()
		case err != nil:
			return nil, nil, fmt.Errorf("gctp: cell (%d, %d): %w", req.Rows[i], req.Cols[i], err)
		default:
			lon[i], lat[i] = lo, la
		}
	}
	return lon, lat, nil
}

// cellXY returns the projected coordinate of a cell. Rows and columns count
// from the origin corner; the pixel registration picks the cell's center or
// its origin-side corner.
func cellXY(req Request, ul, lr [2]float64, row, col int) (x, y float64) {
	off := 0.0
	if req.PixReg == Center {
		off = 0.5
	}
	sx := (lr[0] - ul[0]) / float64(req.Width)
	sy := (lr[1] - ul[1]) / float64(req.Height)

	c := float64(col) + off
	if req.Origin.right() {
		c = float64(req.Width) - float64(col) - off
	}
	r := float64(row) + off
	if req.Origin.lower() {
		r = float64(req.Height) - float64(row) - off
	}
	return ul[0] + c*sx, ul[1] + r*sy
}

// blockShift is the projected offset of block b from the first block.
func blockShift(req Request, ul, lr [2]float64, b int) (dx, dy float64) {
	cells := 0.0
	for i := 0; i < b-1 && i < len(req.BlockOffsets); i++ {
		cells += req.BlockOffsets[i]
	}
	sy := (lr[1] - ul[1]) / float64(req.Height)
	return float64(b-1) * (lr[0] - ul[0]), cells * sy
}
