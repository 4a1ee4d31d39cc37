package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/index"
)

func infoCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Print the grids and swaths of a file with their fields and attributes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return info(cmd.OutOrStdout(), args[0], cfg.GetBool("bounds"), openOptions(cfg))
		},
	}
	cmd.Flags().Bool("bounds", false, "also print the longitude and latitude range of every grid")
	if err := cfg.BindPFlag("bounds", cmd.Flags().Lookup("bounds")); err != nil {
		panic(err)
	}
	return cmd
}

// info dumps the grid and swath views of path. A file that has only one of
// the two is fine; a file with neither is an error.
func info(w io.Writer, path string, bounds bool, opts []eos.Option) error {
	gf, gerr := eos.OpenGrids(path, opts...)
	if gerr == nil {
		defer gf.Close()
		fmt.Fprint(w, gf)
		if bounds {
			for _, name := range gf.Grids() {
				g, err := gf.Grid(name)
				if err != nil {
					return err
				}
				printBounds(w, g)
			}
		}
		for _, e := range gf.AttachErrors() {
			fmt.Fprintf(w, "! %v\n", e)
		}
	} else if !errors.Is(gerr, eos.ErrNotRecognized) {
		return gerr
	}

	sf, serr := eos.OpenSwaths(path, opts...)
	if serr == nil {
		defer sf.Close()
		fmt.Fprint(w, sf)
		for _, e := range sf.AttachErrors() {
			fmt.Fprintf(w, "! %v\n", e)
		}
	} else if !errors.Is(serr, eos.ErrNotRecognized) {
		return serr
	}

	if gerr != nil && serr != nil {
		return gerr
	}
	return nil
}

func printBounds(w io.Writer, g *eos.Grid) {
	lon, lat, err := g.Geolocate(index.Ellipsis)
	if err != nil {
		fmt.Fprintf(w, "%s: no geolocation: %v\n", g.Name(), err)
		return
	}
	fmt.Fprintf(w, "%s:\n", g.Name())
	writeRange(w, "longitude", lon)
	writeRange(w, "latitude", lat)
}
