// Package driver defines what a storage backend must provide for grids and
// swaths to be read from a file, and selects a backend for a path by trying
// each registered driver in turn.
package driver

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/gctp"
)

var (
	// ErrNotRecognized is returned by Driver.Open when the file is not in
	// the driver's format.
	ErrNotRecognized = errors.New("driver: file format not recognized")

	// ErrRange is returned by ReadField when a selection leaves the field.
	ErrRange = errors.New("driver: selection out of range")

	// ErrNotFound is returned for unknown grid, swath, field or attribute
	// names.
	ErrNotFound = errors.New("driver: not found")

	// ErrClosed is returned when a released handle is used or released
	// again.
	ErrClosed = errors.New("driver: handle already released")
)

// Capability is the set of traits a File offers.
type Capability uint

const (
	Grids Capability = 1 << iota
	Swaths
	// LocalAttrs: files, grids, swaths and fields carry their own
	// attribute tables (File and Object implement AttrLister, Object
	// implements LocalAttrReader).
	LocalAttrs
	// DatasetAttrs: field attributes are kept in a separate dataset
	// index keyed by field name (File implements DatasetAttrReader).
	DatasetAttrs
)

var capNames = []string{"grids", "swaths", "local-attrs", "dataset-attrs"}

func (c Capability) Has(o Capability) bool { return c&o == o }

func (c Capability) String() string {
	var names []string
	for i, n := range capNames {
		if c&(1<<i) != 0 {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Attr is one named attribute value as stored: a string, a number or a slice
// of numbers.
type Attr struct {
	Name  string
	Value any
}

// Dim is a named dimension of a grid or swath.
type Dim struct {
	Name string
	Size int
}

// FieldInfo describes a field: its shape, element type and the dimension
// name of each axis.
type FieldInfo struct {
	Name  string
	Shape []int
	DType array.DType
	Dims  []string
}

// GridInfo is the geometry of a grid: its size in rows and columns and the
// projected coordinates of its outer corners. Rows counts YDim and Cols
// XDim.
type GridInfo struct {
	Rows, Cols int
	UpperLeft  [2]float64
	LowerRight [2]float64
}

// Driver opens files of one storage format.
type Driver interface {
	Name() string
	// Open returns an error wrapping ErrNotRecognized when path is not in
	// the driver's format.
	Open(path string) (File, error)
}

// File is an open container. Every attached object must be detached before
// Close.
type File interface {
	Capabilities() Capability
	Grids() ([]string, error)
	Swaths() ([]string, error)
	AttachGrid(name string) (Grid, error)
	AttachSwath(name string) (Swath, error)
	Close() error
}

// Object is an attached grid or swath.
type Object interface {
	Name() string
	Dims() ([]Dim, error)
	Fields() ([]string, error)
	FieldInfo(field string) (FieldInfo, error)
	// ReadField reads the hyperslab start + k*stride, k < extent, on every
	// axis. It returns an error wrapping ErrRange when the selection does
	// not fit the field.
	ReadField(field string, start, stride, extent []int) (*array.Array, error)
	Detach() error
}

// Grid is an Object with a map projection.
type Grid interface {
	Object
	GridInfo() (GridInfo, error)
	ProjInfo() (gctp.Descriptor, error)
	OriginInfo() (gctp.Origin, error)
	PixRegInfo() (gctp.PixReg, error)
}

// Swath is an Object without a fixed projection.
type Swath interface {
	Object
}

// AttrLister lists an attribute table.
type AttrLister interface {
	Attrs() ([]Attr, error)
}

// LocalAttrReader is the LocalAttrs trait of an Object.
type LocalAttrReader interface {
	AttrLister
	FieldAttrs(field string) ([]Attr, error)
}

// DatasetAttrReader is the DatasetAttrs trait of a File.
type DatasetAttrReader interface {
	DatasetAttrs(field string) ([]Attr, error)
}

var (
	mu      sync.RWMutex
	drivers []Driver
)

// Register adds a driver to the detection order. Drivers are tried in
// registration order.
func Register(d Driver) {
	mu.Lock()
	defer mu.Unlock()
	drivers = append(drivers, d)
}

// Drivers returns the registered drivers in detection order.
func Drivers() []Driver {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Driver(nil), drivers...)
}

// Detect opens path with the first of ds that recognizes it. When none does
// the error wraps ErrNotRecognized along with every driver's reason.
func Detect(path string, ds []Driver) (File, Driver, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}
	var errs []error
	for _, d := range ds {
		f, err := d.Open(path)
		if err == nil {
			return f, d, nil
		}
		if !errors.Is(err, ErrNotRecognized) {
			return nil, nil, fmt.Errorf("%s: %w", d.Name(), err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
	}
	if len(errs) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: no drivers registered", ErrNotRecognized, path)
	}
	return nil, nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
}

// CheckRange verifies a hyperslab selection against shape.
func CheckRange(shape, start, stride, extent []int) error {
	n := len(shape)
	if len(start) != n || len(stride) != n || len(extent) != n {
		return fmt.Errorf("%w: %d-axis selection on shape %v", ErrRange, len(start), shape)
	}
	for i, size := range shape {
		last := start[i] + stride[i]*(extent[i]-1)
		if start[i] < 0 || stride[i] < 1 || extent[i] < 1 || last >= size {
			return fmt.Errorf("%w: axis %d start=%d stride=%d extent=%d size=%d",
				ErrRange, i, start[i], stride[i], extent[i], size)
		}
	}
	return nil
}

// ParseDType maps the HDF5 and HDF4 type names used in StructMetadata
// (H5T_NATIVE_SHORT, HE5T_NATIVE_FLOAT, DFNT_INT16, ...) to a DType.
func ParseDType(s string) (array.DType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for _, p := range []string{"HE5T_NATIVE_", "H5T_NATIVE_", "H5T_", "DFNT_"} {
		name = strings.TrimPrefix(name, p)
	}
	switch name {
	case "CHAR", "SCHAR", "INT8":
		return array.Int8, nil
	case "UCHAR", "UCHAR8", "UINT8":
		return array.Uint8, nil
	case "SHORT", "INT16":
		return array.Int16, nil
	case "USHORT", "UINT16":
		return array.Uint16, nil
	case "INT", "INT32":
		return array.Int32, nil
	case "UINT", "UINT32":
		return array.Uint32, nil
	case "LONG", "LLONG", "INT64":
		return array.Int64, nil
	case "ULONG", "ULLONG", "UINT64":
		return array.Uint64, nil
	case "FLOAT", "FLOAT32":
		return array.Float32, nil
	case "DOUBLE", "FLOAT64":
		return array.Float64, nil
	case "CHARSTRING", "STRING", "CHAR8":
		return array.String, nil
	}
	return array.Invalid, fmt.Errorf("driver: unknown data type %q", s)
}
