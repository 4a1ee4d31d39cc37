// Package drivertest provides an in-memory driver for tests of code that
// opens files through the driver registry.
package drivertest

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/gctp"
	"github.com/rtm0/eos/internal/driver"
)

// Ext is the file extension the Globe driver recognizes.
const Ext = ".globe"

// Globe serves a 4x8 global geographic grid named "Globe" with cell centers
// at latitudes 67.5, 22.5, -22.5, -67.5 and longitudes -157.5 to 157.5 in
// steps of 45. Its fields are:
//
//	temp  float32 [YDim, XDim]        values 0..31 in row-major order
//	qa    uint8   [YDim, XDim]        values i % 3
//	refl  int16   [Band, YDim, XDim]  values 0..95 in row-major order
type Globe struct{}

var register sync.Once

// Register adds Globe to the driver registry once.
func Register() {
	register.Do(func() { driver.Register(Globe{}) })
}

// Path registers Globe and returns an existing file it recognizes.
func Path(t testing.TB) string {
	t.Helper()
	Register()
	p := filepath.Join(t.TempDir(), "granule"+Ext)
	if err := os.WriteFile(p, []byte("globe"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func (Globe) Name() string { return "globe" }

func (Globe) Open(path string) (driver.File, error) {
	if !strings.HasSuffix(path, Ext) {
		return nil, driver.ErrNotRecognized
	}
	return &file{}, nil
}

type file struct{}

func (*file) Capabilities() driver.Capability { return driver.Grids | driver.LocalAttrs }

func (*file) Grids() ([]string, error) { return []string{"Globe"}, nil }

func (*file) Swaths() ([]string, error) { return nil, nil }

func (*file) AttachGrid(name string) (driver.Grid, error) {
	if name != "Globe" {
		return nil, driver.ErrNotFound
	}
	return &grid{}, nil
}

func (*file) AttachSwath(string) (driver.Swath, error) { return nil, driver.ErrNotFound }

func (*file) Attrs() ([]driver.Attr, error) {
	return []driver.Attr{{Name: "Source", Value: "drivertest"}}, nil
}

func (*file) Close() error { return nil }

var fields = func() map[string]*array.Array {
	temp := make([]float32, 4*8)
	qa := make([]uint8, 4*8)
	refl := make([]int16, 3*4*8)
	for i := range temp {
		temp[i] = float32(i)
		qa[i] = uint8(i % 3)
	}
	for i := range refl {
		refl[i] = int16(i)
	}
	return map[string]*array.Array{
		"temp": {Shape: []int{4, 8}, Data: temp},
		"qa":   {Shape: []int{4, 8}, Data: qa},
		"refl": {Shape: []int{3, 4, 8}, Data: refl},
	}
}()

type grid struct{}

func (*grid) Name() string { return "Globe" }

func (*grid) Dims() ([]driver.Dim, error) {
	return []driver.Dim{{Name: "Band", Size: 3}, {Name: "YDim", Size: 4}, {Name: "XDim", Size: 8}}, nil
}

func (*grid) Fields() ([]string, error) { return []string{"temp", "qa", "refl"}, nil }

func (*grid) FieldInfo(name string) (driver.FieldInfo, error) {
	a, ok := fields[name]
	if !ok {
		return driver.FieldInfo{}, driver.ErrNotFound
	}
	dims := []string{"YDim", "XDim"}
	if a.Rank() == 3 {
		dims = append([]string{"Band"}, dims...)
	}
	return driver.FieldInfo{Name: name, Shape: a.Shape, DType: a.DType(), Dims: dims}, nil
}

func (*grid) ReadField(name string, start, stride, extent []int) (*array.Array, error) {
	a, ok := fields[name]
	if !ok {
		return nil, driver.ErrNotFound
	}
	if err := driver.CheckRange(a.Shape, start, stride, extent); err != nil {
		return nil, err
	}
	return a.Subset(start, stride, extent)
}

func (*grid) Attrs() ([]driver.Attr, error) { return nil, nil }

func (*grid) FieldAttrs(name string) ([]driver.Attr, error) {
	if name == "temp" {
		return []driver.Attr{{Name: "units", Value: "K"}}, nil
	}
	return nil, nil
}

func (*grid) Detach() error { return nil }

func (*grid) GridInfo() (driver.GridInfo, error) {
	return driver.GridInfo{
		Rows: 4, Cols: 8,
		UpperLeft:  [2]float64{-180000000, 90000000},
		LowerRight: [2]float64{180000000, -90000000},
	}, nil
}

func (*grid) ProjInfo() (gctp.Descriptor, error) {
	return gctp.Descriptor{Code: gctp.Geographic, Sphere: gctp.Unspecified}, nil
}

func (*grid) OriginInfo() (gctp.Origin, error) { return gctp.UpperLeft, nil }

func (*grid) PixRegInfo() (gctp.PixReg, error) { return gctp.Center, nil }
