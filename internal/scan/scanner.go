// Package scan walks grid fields one slab of the leading axis at a time and
// pairs every value with the location of its cell.
package scan

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/ctessum/sparse"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/index"
)

// Scanner retrieves field values from a grid one leading-axis slab at a time.
//
// Fields shaped like the grid's geolocation are read one row (or one block)
// per Scan. Fields with an extra leading layer axis are read one layer per
// Scan, with the geolocation of the whole grid computed once.
type Scanner struct {
	gf      *eos.GridFile
	grid    *eos.Grid
	fields  []*eos.Field
	ts      int64
	layered bool
	slabs   int
	cells   int
	lon     *sparse.DenseArray
	lat     *sparse.DenseArray
	pos     int
	recs    []Record
	err     error
}

// NewScanner opens filePath and prepares to scan the named fields of a grid.
// All fields must have the same shape. Every record carries the timestamp ts.
func NewScanner(filePath, gridName string, fieldNames []string, ts time.Time, opts ...eos.Option) (*Scanner, error) {
	gf, err := eos.OpenGrids(filePath, opts...)
	if err != nil {
		return nil, err
	}
	s, err := newScanner(gf, gridName, fieldNames, ts)
	if err != nil {
		gf.Close()
		return nil, err
	}
	return s, nil
}

func newScanner(gf *eos.GridFile, gridName string, fieldNames []string, ts time.Time) (*Scanner, error) {
	if len(fieldNames) == 0 {
		return nil, fmt.Errorf("no fields to scan in grid %s", gridName)
	}
	g, err := gf.Grid(gridName)
	if err != nil {
		return nil, err
	}
	s := &Scanner{gf: gf, grid: g, ts: ts.UnixMilli()}
	var shape []int
	for _, name := range fieldNames {
		f, err := g.Field(name)
		if err != nil {
			return nil, err
		}
		if shape == nil {
			shape = f.Shape()
		} else if !slices.Equal(shape, f.Shape()) {
			return nil, fmt.Errorf("field %s has shape %v, %s has %v", name, f.Shape(), fieldNames[0], shape)
		}
		s.fields = append(s.fields, f)
	}

	geo := g.GeoShape()
	switch {
	case slices.Equal(shape, geo):
	case len(shape) == len(geo)+1 && slices.Equal(shape[1:], geo):
		s.layered = true
	default:
		return nil, fmt.Errorf("fields of shape %v do not lie on grid %s of shape %v", shape, gridName, geo)
	}
	s.slabs = shape[0]
	s.cells = 1
	for _, n := range shape[1:] {
		s.cells *= n
	}
	return s, nil
}

// Close closes the underlying file.
func (s *Scanner) Close() error {
	return s.gf.Close()
}

// Fields returns the names of the scanned fields.
func (s *Scanner) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name()
	}
	return names
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (s *Scanner) Summary() []any {
	return []any{
		"grid", s.grid.Name(),
		"projection", s.grid.Projection().Code.String(),
		"dims", s.fields[0].DimNames(),
		"metrics", s.Fields(),
		"layered", s.layered,
		"slabCnt", s.slabs,
		"cellsPerSlab", s.cells,
		"totalRecCnt", s.TotalRecCount(),
	}
}

// TotalRecCount returns the total number of values within the scanned fields.
func (s *Scanner) TotalRecCount() int {
	return s.slabs * s.cells * len(s.fields)
}

// Scan reads all records of the next slab. Cells the projection cannot
// locate are skipped.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= s.slabs {
		return false
	}

	lon, lat, ok := s.geolocate()
	if !ok {
		return false
	}
	values := make([][]float64, len(s.fields))
	for i, f := range s.fields {
		if values[i], ok = s.scan(f); !ok {
			return false
		}
	}

	layer := -1
	if s.layered {
		layer = s.pos
	}
	s.recs = make([]Record, 0, s.cells)
	for k := range s.cells {
		la, lo := lat.Elements[k], lon.Elements[k]
		if math.IsNaN(la) || math.IsNaN(lo) {
			continue
		}
		r := Record{Timestamp: s.ts, Latitude: la, Longitude: lo, Layer: layer, Values: make([]float64, len(values))}
		for i := range values {
			r.Values[i] = values[i][k]
		}
		s.recs = append(s.recs, r)
	}
	s.pos++
	return true
}

func (s *Scanner) geolocate() (lon, lat *sparse.DenseArray, ok bool) {
	var err error
	switch {
	case !s.layered:
		lon, lat, err = s.grid.Geolocate(index.Tuple{index.Int(s.pos)})
	case s.lon == nil:
		s.lon, s.lat, err = s.grid.Geolocate(index.Ellipsis)
		lon, lat = s.lon, s.lat
	default:
		lon, lat = s.lon, s.lat
	}
	if err != nil {
		s.err = err
		return nil, nil, false
	}
	return lon, lat, true
}

func (s *Scanner) scan(f *eos.Field) ([]float64, bool) {
	a, err := f.Read(index.Int(s.pos))
	if err != nil {
		s.err = err
		return nil, false
	}
	v, err := array.Float64s(a.Data)
	if err != nil {
		s.err = fmt.Errorf("field %s: %w", f.Name(), err)
		return nil, false
	}
	return v, true
}

// Records returns the records that have been read by the last Scan() operation.
// The function transfers ownership of records to the caller and the subsequent
// calls to this function without prior invocation of Scan() will return nil.
func (s *Scanner) Records() []Record {
	recs := s.recs
	s.recs = nil
	return recs
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}
