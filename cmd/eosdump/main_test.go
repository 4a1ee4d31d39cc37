package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/internal/driver/drivertest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInfo(t *testing.T) {
	path := drivertest.Path(t)
	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Grid:  Globe\n")
	assert.Contains(t, out, "    Shape:  (4, 8)\n")
	assert.Contains(t, out, "temp[YDim, XDim]:\n")
	assert.Contains(t, out, "units:  K ;")

	out, err = run(t, "info", "--bounds", path)
	require.NoError(t, err)
	assert.Contains(t, out, "    longitude:  -157.5 .. 157.5\n")
	assert.Contains(t, out, "    latitude:  -67.5 .. 67.5\n")
}

func TestInfoNotRecognized(t *testing.T) {
	drivertest.Register()
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))
	_, err := run(t, "info", path)
	require.ErrorIs(t, err, eos.ErrNotRecognized)
}

func TestRead(t *testing.T) {
	path := drivertest.Path(t)

	out, err := run(t, "read", path, "Globe", "temp", "0, 0:3")
	require.NoError(t, err)
	assert.Equal(t, "Globe/temp[0, 0:3]: float32 (3,)\n0 1 2\n", out)

	out, err = run(t, "read", path, "Globe", "qa", "2:4, ::4")
	require.NoError(t, err)
	// Elements 16, 20, 24 and 28, modulo 3.
	assert.Equal(t, "Globe/qa[2:4, ::4]: uint8 (2, 2)\n1 2\n0 1\n", out)

	out, err = run(t, "read", path, "Globe", "refl", "2, 3, 7")
	require.NoError(t, err)
	assert.Equal(t, "Globe/refl[2, 3, 7]: int16 ()\n95\n", out)
}

func TestReadErrors(t *testing.T) {
	path := drivertest.Path(t)
	tests := []struct {
		name string
		args []string
	}{
		{"unknown object", []string{"Moon", "temp"}},
		{"unknown field", []string{"Globe", "pressure"}},
		{"bad subscript", []string{"Globe", "temp", "0:x"}},
		{"out of bounds", []string{"Globe", "temp", "4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"read", path}, tt.args...)...)
			require.Error(t, err)
		})
	}
	_, err := run(t, "read", path, "Moon", "temp")
	require.ErrorIs(t, err, eos.ErrNotFound)
}

func TestGeoloc(t *testing.T) {
	path := drivertest.Path(t)
	nc := filepath.Join(t.TempDir(), "geo.nc")

	out, err := run(t, "geoloc", path, "Globe", "1:3, 2:5", "--out", nc, "--field", "temp")
	require.NoError(t, err)
	assert.Equal(t, ""+
		"Globe[1:3, 2:5]: (2, 3)\n"+
		"    longitude:  -67.5 .. 22.5\n"+
		"    latitude:  -22.5 .. 22.5\n"+
		"    temp:  10 .. 20\n"+
		"wrote "+nc+"\n", out)

	ff, err := os.Open(nc)
	require.NoError(t, err)
	defer ff.Close()
	f, err := cdf.Open(ff)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, f.Header.Lengths("longitude"))

	read := func(name string) []float64 {
		buf := make([]float64, 6)
		n, err := f.Reader(name, nil, nil).Read(buf)
		require.NoError(t, err)
		require.Equal(t, 6, n)
		return buf
	}
	assert.InDeltaSlice(t, []float64{-67.5, -22.5, 22.5, -67.5, -22.5, 22.5}, read("longitude"), 1e-9)
	assert.InDeltaSlice(t, []float64{22.5, 22.5, 22.5, -22.5, -22.5, -22.5}, read("latitude"), 1e-9)
	assert.Equal(t, []float64{10, 11, 12, 18, 19, 20}, read("temp"))
	assert.Equal(t, "K", f.Header.GetAttribute("temp", "units"))
}

func TestGeolocErrors(t *testing.T) {
	path := drivertest.Path(t)
	nc := filepath.Join(t.TempDir(), "geo.nc")

	_, err := run(t, "geoloc", path, "Globe", "0:2, 0:3", "--out", nc, "--field", "refl")
	require.ErrorContains(t, err, "shape")
	_, err = run(t, "geoloc", path, "Globe", "0, 0, 0")
	require.Error(t, err)
	_, err = run(t, "geoloc", path, "Moon")
	require.ErrorIs(t, err, eos.ErrNotFound)
}
