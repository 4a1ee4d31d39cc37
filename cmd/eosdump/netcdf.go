package main

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// ncVar is a float64 variable written over the dimensions of the selection.
type ncVar struct {
	name  string
	units string
	data  []float64
}

// dimNames names the axes of a geolocated selection. A scalar selection is
// stored as a single cell.
func dimNames(shape []int) ([]string, []int) {
	switch len(shape) {
	case 0:
		return []string{"cell"}, []int{1}
	case 1:
		return []string{"cell"}, shape
	case 2:
		return []string{"row", "col"}, shape
	case 3:
		return []string{"block", "row", "col"}, shape
	}
	names := make([]string, len(shape))
	for i := range names {
		names[i] = fmt.Sprintf("dim%d", i)
	}
	return names, shape
}

// writeNetCDF writes vars to a new netCDF classic file at path.
func writeNetCDF(path string, shape []int, vars []ncVar) error {
	dims, lens := dimNames(shape)
	h := cdf.NewHeader(dims, lens)
	h.AddAttribute("", "comment", "Geolocated HDF-EOS grid cells")
	for _, v := range vars {
		h.AddVariable(v.name, dims, []float64{0})
		if v.units != "" {
			h.AddAttribute(v.name, "units", v.units)
		}
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return err
	}
	f, err := cdf.Create(ff, h)
	if err != nil {
		ff.Close()
		return err
	}
	for _, v := range vars {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		w := f.Writer(v.name, start, end)
		if _, err := w.Write(v.data); err != nil {
			ff.Close()
			return fmt.Errorf("%s: %w", v.name, err)
		}
	}
	return ff.Close()
}
