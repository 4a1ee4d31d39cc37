package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/eos"
	"github.com/rtm0/eos/index"
)

func readCmd(cfg *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "read FILE OBJECT FIELD [SUBSCRIPT]",
		Short: "Print a selection of a grid or swath field.",
		Long: `read prints the shape, element type and values of a field selection.
OBJECT names a grid or, failing that, a swath. SUBSCRIPT uses the familiar
bracket-free form, e.g. "0, 10:20, ::2" or "...". The default is the whole
field.`,
		Args: cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := subscriptArg(args, 3)
			if err != nil {
				return err
			}
			return read(cmd.OutOrStdout(), args[0], args[1], args[2], sub, openOptions(cfg))
		},
	}
}

func read(w io.Writer, path, object, field string, sub index.Subscript, opts []eos.Option) error {
	f, closeFile, err := openField(path, object, field, opts)
	if err != nil {
		return err
	}
	defer closeFile()

	a, err := f.Read(sub)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s/%s[%v]: %s %s\n", object, field, sub, a.DType(), shapeString(a.Shape))
	return writeValues(w, a)
}

// openField looks object up among the grids of path and then among its
// swaths. The returned func closes the file the field belongs to.
func openField(path, object, field string, opts []eos.Option) (*eos.Field, func() error, error) {
	gf, err := eos.OpenGrids(path, opts...)
	switch {
	case err == nil:
		if g, gerr := gf.Grid(object); gerr == nil {
			f, ferr := g.Field(field)
			if ferr != nil {
				gf.Close()
				return nil, nil, ferr
			}
			return f, gf.Close, nil
		} else if !errors.Is(gerr, eos.ErrNotFound) {
			gf.Close()
			return nil, nil, gerr
		}
		gf.Close()
	case !errors.Is(err, eos.ErrNotRecognized):
		return nil, nil, err
	}

	sf, err := eos.OpenSwaths(path, opts...)
	if err != nil {
		if errors.Is(err, eos.ErrNotRecognized) {
			return nil, nil, fmt.Errorf("%w: no grid or swath %q in %s", eos.ErrNotFound, object, path)
		}
		return nil, nil, err
	}
	s, err := sf.Swath(object)
	if err == nil {
		var f *eos.Field
		if f, err = s.Field(field); err == nil {
			return f, sf.Close, nil
		}
	}
	sf.Close()
	return nil, nil, err
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = strconv.Itoa(n)
	}
	if len(shape) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// writeValues prints the elements of a one row per run of its last axis.
func writeValues(w io.Writer, a *array.Array) error {
	var vals []string
	if texts, ok := a.Data.([]string); ok {
		for _, s := range texts {
			vals = append(vals, strconv.Quote(s))
		}
	} else {
		nums, err := a.Dense()
		if err != nil {
			return err
		}
		for _, v := range nums.Elements {
			vals = append(vals, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	row := len(vals)
	if a.Rank() > 0 {
		row = a.Shape[a.Rank()-1]
	}
	for i := 0; i < len(vals); i += row {
		if _, err := fmt.Fprintln(w, strings.Join(vals[i:i+row], " ")); err != nil {
			return err
		}
	}
	return nil
}
