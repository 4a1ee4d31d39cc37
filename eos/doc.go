// Package eos reads grids and swaths from HDF-EOS files.
//
// OpenGrids attaches every grid of a file. A Grid exposes its projection and
// fields, reads field data through index subscripts and maps grid cells to
// longitude and latitude:
//
//	gf, err := eos.OpenGrids("MOD10C1.h5")
//	if err != nil {
//		return err
//	}
//	defer gf.Close()
//	g, err := gf.Grid("MOD_CMG_Snow_5km")
//	if err != nil {
//		return err
//	}
//	f, err := g.Field("Day_CMG_Snow_Cover")
//	if err != nil {
//		return err
//	}
//	row, err := f.Read(index.Int(0))
//	lon, lat, err := g.Geolocate(index.Tuple{index.Int(0), index.All()})
//
// Storage formats are provided by drivers. Importing a driver package
// registers it; the HDF-EOS5 driver is imported by this package.
package eos

import (
	// HDF-EOS5 files.
	_ "github.com/rtm0/eos/internal/driver/he5"
)
