package eos

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/eos/index"
	"github.com/rtm0/eos/internal/driver"
)

// blueBand is a 1.1 km MISR grid: 180 blocks of 128 lines by 512 samples.
func blueBand() *fakeGrid {
	return &fakeGrid{
		name: "BlueBand",
		info: driver.GridInfo{Rows: 512, Cols: 128, UpperLeft: [2]float64{7460750, 1090650}, LowerRight: [2]float64{7601550, 527450}},
		proj: misrPath117,
		dims: []driver.Dim{{Name: BlockDim, Size: 180}, {Name: "XDim", Size: 128}, {Name: "YDim", Size: 512}},
	}
}

// lastBlock holds reference positions in the last block of MISR path 117.
var lastBlock = []struct {
	line, sample int
	lat, lon     float64
}{
	{0, 0, -65.731, -46.159},
	{0, 1, -65.735, -46.181},
	{1, 0, -65.722, -46.170},
	{1, 1, -65.726, -46.191},
	{0, 511, -67.423, -58.112},
	{127, 0, -64.591, -47.390},
	{127, 511, -66.207, -58.865},
}

func TestGeolocateMISRLastBlock(t *testing.T) {
	for _, tt := range []struct {
		name string
		file func(g *fakeGrid) *fakeFile
	}{
		{"grid offsets", func(g *fakeGrid) *fakeFile {
			g.attrs = []driver.Attr{{Name: "_BLKSOM:BlueBand", Value: misrOffsets()}}
			return &fakeFile{caps: driver.Grids | driver.LocalAttrs, grids: []*fakeGrid{g}}
		}},
		{"file offsets", func(g *fakeGrid) *fakeFile {
			return &fakeFile{
				caps:  driver.Grids | driver.LocalAttrs,
				grids: []*fakeGrid{g},
				attrs: []driver.Attr{{Name: "_BLKSOM", Value: misrOffsets()}},
			}
		}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			gf := openFake(t, tt.file(blueBand()))
			g, err := gf.Grid("BlueBand")
			require.NoError(t, err)
			assert.Equal(t, []int{180, 128, 512}, g.GeoShape())

			for _, ref := range lastBlock {
				lon, lat, err := g.Geolocate(index.Tuple{index.Int(179), index.Int(ref.line), index.Int(ref.sample)})
				require.NoError(t, err)
				require.Empty(t, lat.Shape)
				assert.InDelta(t, ref.lat, lat.Elements[0], 1e-3, "lat (%d, %d)", ref.line, ref.sample)
				assert.InDelta(t, ref.lon, lon.Elements[0], 1e-3, "lon (%d, %d)", ref.line, ref.sample)
			}
		})
	}
}

func TestGeolocateMISRSquare(t *testing.T) {
	g := blueBand()
	g.attrs = []driver.Attr{{Name: "_BLKSOM:BlueBand", Value: misrOffsets()}}
	gf := openFake(t, &fakeFile{caps: driver.Grids | driver.LocalAttrs, grids: []*fakeGrid{g}})
	grid, _ := gf.Grid("BlueBand")

	lon, lat, err := grid.Geolocate(index.Tuple{index.Int(179), index.Range(0, 2), index.Range(0, 2)})
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, lat.Shape)
	for _, ref := range lastBlock[:4] {
		assert.InDelta(t, ref.lat, lat.Get(ref.line, ref.sample), 1e-3)
		assert.InDelta(t, ref.lon, lon.Get(ref.line, ref.sample), 1e-3)

		slon, slat, err := grid.Geolocate(index.Tuple{index.Int(179), index.Int(ref.line), index.Int(ref.sample)})
		require.NoError(t, err)
		assert.Equal(t, slat.Elements[0], lat.Get(ref.line, ref.sample))
		assert.Equal(t, slon.Elements[0], lon.Get(ref.line, ref.sample))
	}
}

func TestGeolocateMISRWithoutOffsets(t *testing.T) {
	gf := openFake(t, &fakeFile{caps: driver.Grids | driver.LocalAttrs, grids: []*fakeGrid{blueBand()}})
	grid, _ := gf.Grid("BlueBand")
	_, aligned, err := grid.Geolocate(index.Tuple{index.Int(179), index.Int(0), index.Int(0)})
	require.NoError(t, err)

	// The offsets step the last block back one sample.
	g := blueBand()
	g.attrs = []driver.Attr{{Name: "_BLKSOM:BlueBand", Value: misrOffsets()}}
	gf = openFake(t, &fakeFile{caps: driver.Grids | driver.LocalAttrs, grids: []*fakeGrid{g}})
	grid, _ = gf.Grid("BlueBand")
	_, shifted, err := grid.Geolocate(index.Tuple{index.Int(179), index.Int(0), index.Int(1)})
	require.NoError(t, err)
	assert.InDelta(t, aligned.Elements[0], shifted.Elements[0], 1e-9)
}

func TestGeolocateMISRWholeGrid(t *testing.T) {
	gf := openFake(t, &fakeFile{caps: driver.Grids | driver.LocalAttrs, grids: []*fakeGrid{misrGrid(t)}})
	g, _ := gf.Grid("GeometricParameters")

	lon, lat, err := g.Geolocate(index.Ellipsis)
	require.NoError(t, err)
	assert.Equal(t, []int{180, 8, 32}, lon.Shape)
	assert.Equal(t, []int{180, 8, 32}, lat.Shape)
	for i := range lat.Elements {
		require.False(t, math.IsNaN(lat.Elements[i]), "cell %d", i)
		require.False(t, math.IsNaN(lon.Elements[i]), "cell %d", i)
	}
	lo, hi, ok := Bounds(lat)
	require.True(t, ok)
	assert.Less(t, lo, -60.0)
	assert.Greater(t, hi, 60.0)
}

// TestZooMISR checks MISR granules in $HDFEOS_ZOO_DIR against the path 117
// reference positions.
func TestZooMISR(t *testing.T) {
	paths := zooFiles(t, "MISR_AM1_GRP_ELLIPSOID_GM_P117_*")
	if len(paths) == 0 {
		t.Skip("no MISR path 117 granule")
	}
	for _, p := range paths {
		gf, err := OpenGrids(p)
		if errors.Is(err, ErrNotRecognized) {
			t.Logf("%s: no driver recognizes this file", p)
			continue
		}
		require.NoError(t, err)
		defer gf.Close()

		geo, err := gf.Grid("GeometricParameters")
		require.NoError(t, err)
		lon, lat, err := geo.Geolocate(index.Ellipsis)
		require.NoError(t, err)
		assert.Equal(t, []int{180, 8, 32}, lat.Shape)
		assert.Equal(t, []int{180, 8, 32}, lon.Shape)

		g, err := gf.Grid("BlueBand")
		require.NoError(t, err)
		for _, ref := range lastBlock {
			lon, lat, err := g.Geolocate(index.Tuple{index.Int(179), index.Int(ref.line), index.Int(ref.sample)})
			require.NoError(t, err)
			assert.InDelta(t, ref.lat, lat.Elements[0], 1e-3, "lat (%d, %d)", ref.line, ref.sample)
			assert.InDelta(t, ref.lon, lon.Elements[0], 1e-3, "lon (%d, %d)", ref.line, ref.sample)
		}
		lon, lat, err = g.Geolocate(index.Tuple{index.Int(0), index.Int(0), index.Int(0)})
		require.NoError(t, err)
		assert.InDelta(t, 66.226321, lat.Elements[0], 1e-5)
		assert.InDelta(t, -68.775228, lon.Elements[0], 1e-5)
	}
}
