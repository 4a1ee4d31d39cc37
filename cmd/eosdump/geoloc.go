package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/ctessum/sparse"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/index"
)

func geolocCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geoloc FILE GRID [SUBSCRIPT]",
		Short: "Print the longitude and latitude range of a selection of grid cells.",
		Long: `geoloc computes the longitude and latitude of the selected cells of a
grid. SUBSCRIPT selects rows and columns, preceded by the block on
block-structured grids. With --out the coordinates, and the field named by
--field over the same selection, are written to a netCDF file.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := subscriptArg(args, 2)
			if err != nil {
				return err
			}
			return geoloc(cmd.OutOrStdout(), args[0], args[1], sub,
				cfg.GetString("out"), cfg.GetString("field"), openOptions(cfg))
		},
	}
	flags := cmd.Flags()
	flags.String("out", "", "path of a netCDF file to write the coordinates to")
	flags.String("field", "", "name of a grid field to write along with the coordinates")
	for _, name := range []string{"out", "field"} {
		if err := cfg.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}

func geoloc(w io.Writer, path, gridName string, sub index.Subscript, out, fieldName string, opts []eos.Option) error {
	gf, err := eos.OpenGrids(path, opts...)
	if err != nil {
		return err
	}
	defer gf.Close()
	g, err := gf.Grid(gridName)
	if err != nil {
		return err
	}

	lon, lat, err := g.Geolocate(sub)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s[%v]: %s\n", g.Name(), sub, shapeString(lon.Shape))
	writeRange(w, "longitude", lon)
	writeRange(w, "latitude", lat)
	if out == "" {
		return nil
	}

	vars := []ncVar{
		{name: "longitude", units: "degrees_east", data: lon.Elements},
		{name: "latitude", units: "degrees_north", data: lat.Elements},
	}
	if fieldName != "" {
		v, vals, err := fieldVar(g, fieldName, sub, lon.Shape)
		if err != nil {
			return err
		}
		writeRange(w, fieldName, vals)
		vars = append(vars, v)
	}
	if err := writeNetCDF(out, lon.Shape, vars); err != nil {
		return fmt.Errorf("could not write %s: %w", out, err)
	}
	fmt.Fprintf(w, "wrote %s\n", out)
	return nil
}

// fieldVar reads a field over the geolocated selection. The field must have
// the same shape as the selected cells.
func fieldVar(g *eos.Grid, name string, sub index.Subscript, shape []int) (ncVar, *sparse.DenseArray, error) {
	if name == "longitude" || name == "latitude" {
		return ncVar{}, nil, fmt.Errorf("field %s would replace a coordinate variable", name)
	}
	f, err := g.Field(name)
	if err != nil {
		return ncVar{}, nil, err
	}
	a, err := f.Read(sub)
	if err != nil {
		return ncVar{}, nil, err
	}
	if !slices.Equal(a.Shape, shape) {
		return ncVar{}, nil, fmt.Errorf("field %s selection has shape %v, the coordinates %v", name, a.Shape, shape)
	}
	vals, err := a.Dense()
	if err != nil {
		return ncVar{}, nil, fmt.Errorf("field %s: %w", name, err)
	}
	v := ncVar{name: name, data: vals.Elements}
	if u, ok := f.Attrs().Get("units"); ok {
		v.units, _ = u.(string)
	}
	return v, vals, nil
}

func writeRange(w io.Writer, name string, a *sparse.DenseArray) {
	lo, hi, ok := eos.Bounds(a)
	if !ok {
		fmt.Fprintf(w, "    %s:  none\n", name)
		return
	}
	fmt.Fprintf(w, "    %s:  %g .. %g\n", name, lo, hi)
}
