package eos

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/gctp"
	"github.com/rtm0/eos/internal/driver"
)

// fakeDriver serves one fakeFile regardless of path.
type fakeDriver struct {
	file *fakeFile
	err  error
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Open(path string) (driver.File, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.file.opened++
	return d.file, nil
}

type fakeFile struct {
	caps      driver.Capability
	grids     []*fakeGrid
	swaths    []*fakeGrid
	attrs     []driver.Attr
	dsAttrs   map[string][]driver.Attr
	dsAttrErr error
	opened    int
	closed    int
}

func (f *fakeFile) Capabilities() driver.Capability { return f.caps }

func (f *fakeFile) Grids() ([]string, error) { return names(f.grids), nil }

func (f *fakeFile) Swaths() ([]string, error) { return names(f.swaths), nil }

func names(gs []*fakeGrid) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.name
	}
	return out
}

func (f *fakeFile) AttachGrid(name string) (driver.Grid, error) {
	for _, g := range f.grids {
		if g.name == name {
			if g.attachErr != nil {
				return nil, g.attachErr
			}
			g.attached++
			return g, nil
		}
	}
	return nil, driver.ErrNotFound
}

func (f *fakeFile) AttachSwath(name string) (driver.Swath, error) {
	for _, s := range f.swaths {
		if s.name == name {
			s.attached++
			return s, nil
		}
	}
	return nil, driver.ErrNotFound
}

func (f *fakeFile) Attrs() ([]driver.Attr, error) { return f.attrs, nil }

func (f *fakeFile) DatasetAttrs(field string) ([]driver.Attr, error) {
	if f.dsAttrErr != nil {
		return nil, f.dsAttrErr
	}
	return f.dsAttrs[field], nil
}

func (f *fakeFile) Close() error {
	f.closed++
	if f.closed > 1 {
		return driver.ErrClosed
	}
	return nil
}

type fakeField struct {
	dims  []string
	data  *array.Array
	attrs []driver.Attr
}

// fakeGrid serves as both grid and swath.
type fakeGrid struct {
	name      string
	info      driver.GridInfo
	proj      gctp.Descriptor
	projErr   error
	attachErr error
	dims      []driver.Dim
	order     []string
	fields    map[string]fakeField
	attrs     []driver.Attr
	readErr   error
	reads     int
	attached  int
	detached  int
}

func (g *fakeGrid) Name() string { return g.name }

func (g *fakeGrid) Dims() ([]driver.Dim, error) { return g.dims, nil }

func (g *fakeGrid) Fields() ([]string, error) { return g.order, nil }

func (g *fakeGrid) FieldInfo(name string) (driver.FieldInfo, error) {
	f, ok := g.fields[name]
	if !ok {
		return driver.FieldInfo{}, driver.ErrNotFound
	}
	return driver.FieldInfo{Name: name, Shape: f.data.Shape, DType: f.data.DType(), Dims: f.dims}, nil
}

func (g *fakeGrid) ReadField(name string, start, stride, extent []int) (*array.Array, error) {
	if g.detached > 0 {
		return nil, driver.ErrClosed
	}
	g.reads++
	if g.readErr != nil {
		return nil, g.readErr
	}
	f := g.fields[name]
	if err := driver.CheckRange(f.data.Shape, start, stride, extent); err != nil {
		return nil, err
	}
	return f.data.Subset(start, stride, extent)
}

func (g *fakeGrid) Attrs() ([]driver.Attr, error) { return g.attrs, nil }

func (g *fakeGrid) FieldAttrs(name string) ([]driver.Attr, error) {
	f, ok := g.fields[name]
	if !ok {
		return nil, driver.ErrNotFound
	}
	return f.attrs, nil
}

func (g *fakeGrid) Detach() error {
	g.detached++
	if g.detached > 1 {
		return driver.ErrClosed
	}
	return nil
}

func (g *fakeGrid) GridInfo() (driver.GridInfo, error) { return g.info, nil }

func (g *fakeGrid) ProjInfo() (gctp.Descriptor, error) {
	if g.projErr != nil {
		return gctp.Descriptor{}, g.projErr
	}
	return g.proj, nil
}

func (g *fakeGrid) OriginInfo() (gctp.Origin, error) { return gctp.UpperLeft, nil }

func (g *fakeGrid) PixRegInfo() (gctp.PixReg, error) { return gctp.Center, nil }

func (g *fakeGrid) addField(name string, dims []string, data *array.Array, attrs ...driver.Attr) {
	if g.fields == nil {
		g.fields = map[string]fakeField{}
	}
	g.order = append(g.order, name)
	g.fields[name] = fakeField{dims: dims, data: data, attrs: attrs}
}

// ramp returns a float32 array of shape whose elements count up from 0.
func ramp(t *testing.T, shape ...int) *array.Array {
	t.Helper()
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	a, err := array.New(shape, data)
	require.NoError(t, err)
	return a
}

// misrPath117 is the Space Oblique Mercator projection of MISR path 117.
var misrPath117 = gctp.Descriptor{
	Code:   gctp.SpaceObliqueMercator,
	Sphere: gctp.Sphere(12),
	Params: gctp.Params{3: 98018013.752, 4: -51028001, 8: 98.88, 11: 180},
}

// misrOffsets alternates blocks 16 cells apart along y and steps the last
// block back one cell.
func misrOffsets() []float32 {
	offs := make([]float32, 179)
	for i := range 178 {
		offs[i] = 16
		if i%2 == 1 {
			offs[i] = -16
		}
	}
	offs[178] = -1
	return offs
}

// misrGrid is a block-structured grid of 180 blocks of 8 lines (XDim) by 32
// samples (YDim). Like the HDF-EOS drivers it reports YDim as the row count.
func misrGrid(t *testing.T) *fakeGrid {
	g := &fakeGrid{
		name: "GeometricParameters",
		info: driver.GridInfo{Rows: 32, Cols: 8, UpperLeft: [2]float64{7460750, 1090650}, LowerRight: [2]float64{7601550, 527450}},
		proj: misrPath117,
		dims: []driver.Dim{{Name: BlockDim, Size: 180}, {Name: "XDim", Size: 8}, {Name: "YDim", Size: 32}},
	}
	g.addField("SolarZenith", []string{BlockDim, "XDim", "YDim"}, ramp(t, 180, 8, 32),
		driver.Attr{Name: "_FillValue", Value: float32(-555)})
	return g
}

// cellTransformer encodes each cell address into its lon/lat so tests can
// check which cells were requested.
type cellTransformer struct {
	calls int
	last  gctp.Request
	err   error
}

func (c *cellTransformer) Transform(req gctp.Request) (lon, lat []float64, err error) {
	c.calls++
	c.last = req
	if c.err != nil {
		return nil, nil, c.err
	}
	lon = make([]float64, len(req.Rows))
	lat = make([]float64, len(req.Rows))
	for i := range req.Rows {
		b := 0
		if req.Blocks != nil {
			b = req.Blocks[i]
		}
		lon[i] = float64(b*10000 + req.Rows[i]*100 + req.Cols[i])
		lat[i] = -lon[i]
	}
	return lon, lat, nil
}

// tempPath returns an existing file for driver detection to stat.
func tempPath(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "granule.he5")
	require.NoError(t, os.WriteFile(p, []byte("fake"), 0o600))
	return p
}

func openFake(t *testing.T, f *fakeFile, opts ...Option) *GridFile {
	t.Helper()
	opts = append(opts, withDrivers(&fakeDriver{file: f}))
	gf, err := OpenGrids(tempPath(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := gf.Close(); err != nil && !errors.Is(err, ErrClosed) {
			t.Errorf("close: %v", err)
		}
	})
	return gf
}

var errDisk = errors.New("disk on fire")
