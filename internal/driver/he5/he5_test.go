package he5

import (
	"errors"
	"fmt"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/gctp"
	"github.com/rtm0/eos/internal/driver"
)

type fakeAttrs struct {
	api.AttributeMap
	keys []string
	vals map[string]any
}

func (a fakeAttrs) Keys() []string { return a.keys }

func (a fakeAttrs) Get(key string) (any, bool) {
	v, ok := a.vals[key]
	return v, ok
}

func newAttrs(kv ...any) fakeAttrs {
	a := fakeAttrs{vals: map[string]any{}}
	for i := 0; i < len(kv); i += 2 {
		k := kv[i].(string)
		a.keys = append(a.keys, k)
		a.vals[k] = kv[i+1]
	}
	return a
}

type fakeVar struct {
	api.VarGetter
	data  any // nested slices
	attrs fakeAttrs
	reads *[][2]int64
}

func (v *fakeVar) Values() (any, error) { return v.data, nil }

func (v *fakeVar) Attributes() api.AttributeMap { return v.attrs }

func (v *fakeVar) Len() int64 {
	a, _ := array.Flatten(v.data)
	return int64(a.Shape[0])
}

func (v *fakeVar) GetSlice(begin, end int64) (any, error) {
	if v.reads != nil {
		*v.reads = append(*v.reads, [2]int64{begin, end})
	}
	switch d := v.data.(type) {
	case [][][]int16:
		if end > int64(len(d)) {
			return nil, errors.New("slice past end")
		}
		return d[begin:end], nil
	case [][]float32:
		if end > int64(len(d)) {
			return nil, errors.New("slice past end")
		}
		return d[begin:end], nil
	}
	return nil, fmt.Errorf("unsupported %T", v.data)
}

type fakeGroup struct {
	api.Group
	attrs  fakeAttrs
	vars   map[string]*fakeVar
	groups map[string]*fakeGroup
}

func (g *fakeGroup) Attributes() api.AttributeMap { return g.attrs }

func (g *fakeGroup) GetGroup(name string) (api.Group, error) {
	if sub, ok := g.groups[name]; ok {
		return sub, nil
	}
	return nil, fmt.Errorf("no group %s", name)
}

func (g *fakeGroup) GetVarGetter(name string) (api.VarGetter, error) {
	if v, ok := g.vars[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no variable %s", name)
}

const gridMetadata = `GROUP=SwathStructure
	GROUP=SWATH_1
		SwathName="Track"
		GROUP=Dimension
			OBJECT=Dimension_1
				DimensionName="nTimes"
				Size=3
			END_OBJECT=Dimension_1
			OBJECT=Dimension_2
				DimensionName="nXtrack"
				Size=2
			END_OBJECT=Dimension_2
		END_GROUP=Dimension
		GROUP=GeoField
			OBJECT=GeoField_1
				GeoFieldName="Latitude"
				DataType=H5T_NATIVE_FLOAT
				DimList=("nTimes","nXtrack")
			END_OBJECT=GeoField_1
		END_GROUP=GeoField
	END_GROUP=SWATH_1
END_GROUP=SwathStructure
GROUP=GridStructure
	GROUP=GRID_1
		GridName="Blocks"
		XDim=4
		YDim=2
		UpperLeftPointMtrs=(-20015109.354000,10007554.677000)
		LowerRightMtrs=(-18903158.834333,8895604.157333)
		Projection=HE5_GCTP_SNSOID
		ProjParams=(6371007.181000,0,0,0,0,0,0,0,0,0,0,0,0)
		SphereCode=-1
		GridOrigin=HE5_HDFE_GD_UL
		PixelRegistration=HE5_HDFE_CORNER
		GROUP=Dimension
			OBJECT=Dimension_1
				DimensionName="Band"
				Size=3
			END_OBJECT=Dimension_1
		END_GROUP=Dimension
		GROUP=DataField
			OBJECT=DataField_1
				DataFieldName="refl"
				DataType=H5T_NATIVE_SHORT
				DimList=("Band","YDim","XDim")
			END_OBJECT=DataField_1
		END_GROUP=DataField
	END_GROUP=GRID_1
END_GROUP=GridStructure
END
`

// cube returns a Band x YDim x XDim cube holding 100*b + 10*y + x.
func cube() [][][]int16 {
	out := make([][][]int16, 3)
	for b := range out {
		out[b] = make([][]int16, 2)
		for y := range out[b] {
			out[b][y] = make([]int16, 4)
			for x := range out[b][y] {
				out[b][y][x] = int16(100*b + 10*y + x)
			}
		}
	}
	return out
}

type fixture struct {
	root   *fakeGroup
	reads  [][2]int64
	closed int
}

func newFixture(metadata ...string) *fixture {
	fx := &fixture{}
	info := &fakeGroup{vars: map[string]*fakeVar{}}
	for i, m := range metadata {
		info.vars[fmt.Sprintf("StructMetadata.%d", i)] = &fakeVar{data: m}
	}
	grid := &fakeGroup{
		attrs: newAttrs("Instrument", "MODIS"),
		groups: map[string]*fakeGroup{
			"Data Fields": {vars: map[string]*fakeVar{
				"refl": {data: cube(), attrs: newAttrs("_FillValue", []int16{-28672}, "units", "none"), reads: &fx.reads},
			}},
		},
	}
	swath := &fakeGroup{groups: map[string]*fakeGroup{
		"Geolocation Fields": {vars: map[string]*fakeVar{
			"Latitude": {data: [][]float32{{1, 2}, {3, 4}, {5, 6}}},
		}},
	}}
	fx.root = &fakeGroup{groups: map[string]*fakeGroup{
		"HDFEOS INFORMATION": info,
		"HDFEOS": {groups: map[string]*fakeGroup{
			"GRIDS":  {groups: map[string]*fakeGroup{"Blocks": grid}},
			"SWATHS": {groups: map[string]*fakeGroup{"Track": swath}},
			"ADDITIONAL": {groups: map[string]*fakeGroup{
				"FILE_ATTRIBUTES": {attrs: newAttrs("OrbitNumber", []int32{1234})},
			}},
		}},
	}}
	return fx
}

func (fx *fixture) open(t *testing.T) *File {
	t.Helper()
	f, err := newFile(fx.root, func() { fx.closed++ })
	require.NoError(t, err)
	return f
}

func TestNewFileRequiresMetadata(t *testing.T) {
	fx := newFixture()
	_, err := newFile(fx.root, func() {})
	assert.ErrorIs(t, err, driver.ErrNotRecognized)

	_, err = newFile(&fakeGroup{}, func() {})
	assert.ErrorIs(t, err, driver.ErrNotRecognized)
}

func TestMetadataSpansSeveralDatasets(t *testing.T) {
	half := len(gridMetadata) / 2
	fx := newFixture(gridMetadata[:half]+"\x00\x00", gridMetadata[half:])
	f := fx.open(t)
	grids, err := f.Grids()
	require.NoError(t, err)
	assert.Equal(t, []string{"Blocks"}, grids)
}

func TestEnumerate(t *testing.T) {
	f := newFixture(gridMetadata).open(t)
	assert.Equal(t, driver.Grids|driver.Swaths|driver.LocalAttrs, f.Capabilities())

	grids, err := f.Grids()
	require.NoError(t, err)
	assert.Equal(t, []string{"Blocks"}, grids)
	swaths, err := f.Swaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"Track"}, swaths)

	attrs, err := f.Attrs()
	require.NoError(t, err)
	assert.Equal(t, []driver.Attr{{Name: "OrbitNumber", Value: []int32{1234}}}, attrs)

	_, err = f.AttachGrid("Nope")
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestGridInfo(t *testing.T) {
	f := newFixture(gridMetadata).open(t)
	g, err := f.AttachGrid("Blocks")
	require.NoError(t, err)

	info, err := g.GridInfo()
	require.NoError(t, err)
	want := driver.GridInfo{
		Rows: 2, Cols: 4,
		UpperLeft:  [2]float64{-20015109.354, 10007554.677},
		LowerRight: [2]float64{-18903158.834333, 8895604.157333},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("GridInfo mismatch (-want +got):\n%s", diff)
	}

	d, err := g.ProjInfo()
	require.NoError(t, err)
	assert.Equal(t, gctp.Sinusoidal, d.Code)
	assert.Equal(t, gctp.Unspecified, d.Sphere)
	assert.Equal(t, 6371007.181, d.Params[0])

	o, err := g.OriginInfo()
	require.NoError(t, err)
	assert.Equal(t, gctp.UpperLeft, o)
	p, err := g.PixRegInfo()
	require.NoError(t, err)
	assert.Equal(t, gctp.Corner, p)

	dims, err := g.Dims()
	require.NoError(t, err)
	assert.Equal(t, []driver.Dim{{Name: "Band", Size: 3}}, dims)

	fi, err := g.FieldInfo("refl")
	require.NoError(t, err)
	assert.Equal(t, driver.FieldInfo{
		Name: "refl", Shape: []int{3, 2, 4}, DType: array.Int16, Dims: []string{"Band", "YDim", "XDim"},
	}, fi)
}

func TestReadField(t *testing.T) {
	fx := newFixture(gridMetadata)
	f := fx.open(t)
	g, err := f.AttachGrid("Blocks")
	require.NoError(t, err)

	a, err := g.ReadField("refl", []int{0, 1, 1}, []int{2, 1, 2}, []int{2, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 2}, a.Shape)
	assert.Equal(t, []int16{11, 13, 211, 213}, a.Data)
	assert.Equal(t, [][2]int64{{0, 3}}, fx.reads)

	a, err = g.ReadField("refl", []int{2, 0, 0}, []int{1, 1, 1}, []int{1, 2, 4})
	require.NoError(t, err)
	v, err := a.At(0, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int16(213), v)
	assert.Equal(t, [2]int64{2, 3}, fx.reads[1])

	_, err = g.ReadField("refl", []int{0, 0, 0}, []int{1, 1, 1}, []int{1, 3, 4})
	assert.ErrorIs(t, err, driver.ErrRange)
	assert.Len(t, fx.reads, 2, "range errors never reach the dataset")

	_, err = g.ReadField("missing", []int{0}, []int{1}, []int{1})
	assert.ErrorIs(t, err, driver.ErrNotFound)
}

func TestAttributes(t *testing.T) {
	f := newFixture(gridMetadata).open(t)
	g, err := f.AttachGrid("Blocks")
	require.NoError(t, err)

	r, ok := g.(driver.LocalAttrReader)
	require.True(t, ok)
	attrs, err := r.Attrs()
	require.NoError(t, err)
	assert.Equal(t, []driver.Attr{{Name: "Instrument", Value: "MODIS"}}, attrs)

	attrs, err = r.FieldAttrs("refl")
	require.NoError(t, err)
	assert.Equal(t, []driver.Attr{
		{Name: "_FillValue", Value: []int16{-28672}},
		{Name: "units", Value: "none"},
	}, attrs)
}

func TestSwath(t *testing.T) {
	f := newFixture(gridMetadata).open(t)
	s, err := f.AttachSwath("Track")
	require.NoError(t, err)

	fields, err := s.Fields()
	require.NoError(t, err)
	assert.Equal(t, []string{"Latitude"}, fields)

	a, err := s.ReadField("Latitude", []int{1, 0}, []int{1, 1}, []int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4, 5, 6}, a.Data)
}

func TestLifecycle(t *testing.T) {
	fx := newFixture(gridMetadata)
	f := fx.open(t)
	g, err := f.AttachGrid("Blocks")
	require.NoError(t, err)

	require.NoError(t, g.Detach())
	assert.ErrorIs(t, g.Detach(), driver.ErrClosed)
	_, err = g.Fields()
	assert.ErrorIs(t, err, driver.ErrClosed)
	_, err = g.ReadField("refl", []int{0, 0, 0}, []int{1, 1, 1}, []int{1, 1, 1})
	assert.ErrorIs(t, err, driver.ErrClosed)

	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), driver.ErrClosed)
	assert.Equal(t, 1, fx.closed)
	_, err = f.AttachGrid("Blocks")
	assert.ErrorIs(t, err, driver.ErrClosed)
}

func TestDriverRegistered(t *testing.T) {
	var names []string
	for _, d := range driver.Drivers() {
		names = append(names, d.Name())
	}
	assert.Contains(t, names, "hdf-eos5")
}
