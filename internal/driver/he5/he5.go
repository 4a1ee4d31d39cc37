// Package he5 reads HDF-EOS5 grids and swaths from HDF5 files.
//
// The structure of a file is described by the ODL text in the
// "/HDFEOS INFORMATION/StructMetadata.N" datasets; field data lives under
// "/HDFEOS/GRIDS/<grid>/Data Fields" and "/HDFEOS/SWATHS/<swath>/{Data,
// Geolocation} Fields".
package he5

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/hdf5"

	"github.com/rtm0/eos/internal/driver"
	"github.com/rtm0/eos/internal/odl"
)

const (
	infoGroup    = "HDFEOS INFORMATION"
	structPrefix = "StructMetadata."
)

func init() {
	driver.Register(Driver{})
}

// Driver opens HDF-EOS5 files.
type Driver struct{}

func (Driver) Name() string { return "hdf-eos5" }

func (Driver) Open(path string) (driver.File, error) {
	root, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driver.ErrNotRecognized, err)
	}
	f, err := newFile(root, func() { root.Close() })
	if err != nil {
		root.Close()
		return nil, err
	}
	return f, nil
}

// File is an open HDF-EOS5 file.
type File struct {
	root      api.Group
	closeRoot func()
	meta      *odl.Node
	closed    bool
}

func newFile(root api.Group, closeRoot func()) (*File, error) {
	text, err := structMetadata(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driver.ErrNotRecognized, err)
	}
	meta, err := odl.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", structPrefix+"0", err)
	}
	return &File{root: root, closeRoot: closeRoot, meta: meta}, nil
}

// structMetadata concatenates StructMetadata.0, .1, ... as long as they
// exist.
func structMetadata(root api.Group) (string, error) {
	info, err := root.GetGroup(infoGroup)
	if err != nil {
		return "", fmt.Errorf("no %q group: %w", infoGroup, err)
	}
	var b strings.Builder
	for i := 0; ; i++ {
		vg, err := info.GetVarGetter(structPrefix + strconv.Itoa(i))
		if err != nil {
			if i == 0 {
				return "", fmt.Errorf("no %s0: %w", structPrefix, err)
			}
			break
		}
		v, err := vg.Values()
		if err != nil {
			return "", fmt.Errorf("%s%d: %w", structPrefix, i, err)
		}
		s, err := text(v)
		if err != nil {
			return "", fmt.Errorf("%s%d: %w", structPrefix, i, err)
		}
		b.WriteString(strings.TrimRight(s, "\x00"))
	}
	return b.String(), nil
}

func text(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []string:
		return strings.Join(t, ""), nil
	case []byte:
		return string(t), nil
	}
	return "", fmt.Errorf("metadata is %T, not text", v)
}

func (f *File) Capabilities() driver.Capability {
	return driver.Grids | driver.Swaths | driver.LocalAttrs
}

func (f *File) Grids() ([]string, error)  { return f.names("GridStructure", "GridName") }
func (f *File) Swaths() ([]string, error) { return f.names("SwathStructure", "SwathName") }

func (f *File) names(structure, key string) ([]string, error) {
	if f.closed {
		return nil, driver.ErrClosed
	}
	s, ok := f.meta.Child(structure)
	if !ok {
		return nil, nil
	}
	var out []string
	for _, c := range s.Children {
		if name, ok := c.Text(key); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *File) lookup(structure, key, name string) (*odl.Node, error) {
	if s, ok := f.meta.Child(structure); ok {
		for _, c := range s.Children {
			if n, _ := c.Text(key); n == name {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s %q", driver.ErrNotFound, strings.TrimSuffix(structure, "Structure"), name)
}

func (f *File) AttachGrid(name string) (driver.Grid, error) {
	o, err := f.attach("GridStructure", "GridName", "GRIDS", name)
	if err != nil {
		return nil, err
	}
	g := &Grid{object: o}
	if err := g.resolveDims(); err != nil {
		return nil, err
	}
	return g, nil
}

func (f *File) AttachSwath(name string) (driver.Swath, error) {
	o, err := f.attach("SwathStructure", "SwathName", "SWATHS", name)
	if err != nil {
		return nil, err
	}
	s := &Swath{object: o}
	if err := s.resolveDims(); err != nil {
		return nil, err
	}
	return s, nil
}

func (f *File) attach(structure, key, dir, name string) (*object, error) {
	if f.closed {
		return nil, driver.ErrClosed
	}
	node, err := f.lookup(structure, key, name)
	if err != nil {
		return nil, err
	}
	g, err := subgroup(f.root, "HDFEOS", dir, name)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", dir, name, err)
	}
	o := &object{file: f, name: name, node: node, group: g, sub: map[string]api.Group{}}
	o.fields = fieldDefs(node)
	return o, nil
}

// Attrs returns the file attributes stored under
// /HDFEOS/ADDITIONAL/FILE_ATTRIBUTES.
func (f *File) Attrs() ([]driver.Attr, error) {
	if f.closed {
		return nil, driver.ErrClosed
	}
	g, err := subgroup(f.root, "HDFEOS", "ADDITIONAL", "FILE_ATTRIBUTES")
	if err != nil {
		return nil, nil
	}
	return attrs(g.Attributes()), nil
}

func (f *File) Close() error {
	if f.closed {
		return driver.ErrClosed
	}
	f.closed = true
	f.closeRoot()
	return nil
}

func subgroup(g api.Group, path ...string) (api.Group, error) {
	for _, p := range path {
		next, err := g.GetGroup(p)
		if err != nil {
			return nil, fmt.Errorf("%w: group %q: %v", driver.ErrNotFound, p, err)
		}
		g = next
	}
	return g, nil
}

func attrs(m api.AttributeMap) []driver.Attr {
	if m == nil {
		return nil
	}
	keys := m.Keys()
	out := make([]driver.Attr, 0, len(keys))
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			out = append(out, driver.Attr{Name: k, Value: v})
		}
	}
	return out
}

var errNoMetadata = errors.New("he5: incomplete structural metadata")
