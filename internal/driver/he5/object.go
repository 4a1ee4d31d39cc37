package he5

import (
	"fmt"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/rtm0/eos/array"
	"github.com/rtm0/eos/gctp"
	"github.com/rtm0/eos/internal/driver"
	"github.com/rtm0/eos/internal/odl"
)

type fieldDef struct {
	name  string
	group string // HDF5 group holding the dataset
	dtype string
	dims  []string
}

// fieldKinds maps the ODL field groups to the HDF5 groups holding their
// datasets.
var fieldKinds = []struct{ odlGroup, nameKey, hdfGroup string }{
	{"GeoField", "GeoFieldName", "Geolocation Fields"},
	{"DataField", "DataFieldName", "Data Fields"},
}

func fieldDefs(node *odl.Node) []fieldDef {
	var out []fieldDef
	for _, c := range node.Children {
		for _, k := range fieldKinds {
			if c.Name != k.odlGroup {
				continue
			}
			for _, obj := range c.Children {
				name, ok := obj.Text(k.nameKey)
				if !ok {
					continue
				}
				dtype, _ := obj.Text("DataType")
				dims, _ := obj.Strings("DimList")
				out = append(out, fieldDef{name: name, group: k.hdfGroup, dtype: dtype, dims: dims})
			}
		}
	}
	return out
}

// object holds what grids and swaths share.
type object struct {
	file     *File
	name     string
	node     *odl.Node
	group    api.Group
	sub      map[string]api.Group
	fields   []fieldDef
	dims     []driver.Dim
	sizes    map[string]int
	detached bool
}

func (o *object) Name() string { return o.name }

// resolveDims reads the Dimension group. extra carries sizes that are not
// listed there, such as a grid's XDim and YDim.
func (o *object) resolveDims(extra ...driver.Dim) error {
	o.sizes = map[string]int{}
	for _, d := range extra {
		o.sizes[d.Name] = d.Size
	}
	dg, ok := o.node.Child("Dimension")
	if !ok {
		return nil
	}
	for _, obj := range dg.Children {
		name, ok := obj.Text("DimensionName")
		if !ok {
			continue
		}
		size, err := obj.Int("Size")
		if err != nil {
			return fmt.Errorf("%s: %w", o.name, err)
		}
		o.dims = append(o.dims, driver.Dim{Name: name, Size: size})
		o.sizes[name] = size
	}
	return nil
}

func (o *object) Dims() ([]driver.Dim, error) {
	if o.detached {
		return nil, driver.ErrClosed
	}
	return slices.Clone(o.dims), nil
}

func (o *object) Fields() ([]string, error) {
	if o.detached {
		return nil, driver.ErrClosed
	}
	names := make([]string, len(o.fields))
	for i, f := range o.fields {
		names[i] = f.name
	}
	return names, nil
}

func (o *object) field(name string) (fieldDef, error) {
	if o.detached {
		return fieldDef{}, driver.ErrClosed
	}
	for _, f := range o.fields {
		if f.name == name {
			return f, nil
		}
	}
	return fieldDef{}, fmt.Errorf("%w: field %q in %s", driver.ErrNotFound, name, o.name)
}

func (o *object) varGetter(f fieldDef) (api.VarGetter, error) {
	g, ok := o.sub[f.group]
	if !ok {
		var err error
		if g, err = subgroup(o.group, f.group); err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}
		o.sub[f.group] = g
	}
	vg, err := g.GetVarGetter(f.name)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %q in %s: %v", driver.ErrNotFound, f.name, o.name, err)
	}
	return vg, nil
}

func (o *object) FieldInfo(name string) (driver.FieldInfo, error) {
	f, err := o.field(name)
	if err != nil {
		return driver.FieldInfo{}, err
	}
	info := driver.FieldInfo{Name: name, Dims: slices.Clone(f.dims), Shape: make([]int, len(f.dims))}
	for i, d := range f.dims {
		size, ok := o.sizes[d]
		if !ok {
			return driver.FieldInfo{}, fmt.Errorf("%w: %s: field %q dimension %q", errNoMetadata, o.name, name, d)
		}
		if size <= 0 && i == 0 {
			// Unlimited leading dimension: its current length is only
			// known to the dataset.
			vg, err := o.varGetter(f)
			if err != nil {
				return driver.FieldInfo{}, err
			}
			size = int(vg.Len())
		}
		info.Shape[i] = size
	}
	if info.DType, err = driver.ParseDType(f.dtype); err != nil {
		info.DType = array.Invalid
	}
	return info, nil
}

func (o *object) ReadField(name string, start, stride, extent []int) (*array.Array, error) {
	info, err := o.FieldInfo(name)
	if err != nil {
		return nil, err
	}
	if err := driver.CheckRange(info.Shape, start, stride, extent); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", o.name, name, err)
	}
	f, _ := o.field(name)
	vg, err := o.varGetter(f)
	if err != nil {
		return nil, err
	}
	begin := int64(start[0])
	limit := int64(start[0] + stride[0]*(extent[0]-1) + 1)
	raw, err := vg.GetSlice(begin, limit)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: rows %d:%d: %w", o.name, name, begin, limit, err)
	}
	slab, err := array.Flatten(raw)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", o.name, name, err)
	}
	want := append([]int{int(limit - begin)}, info.Shape[1:]...)
	if !slices.Equal(slab.Shape, want) {
		return nil, fmt.Errorf("%s/%s: dataset slab has shape %v, metadata says %v", o.name, name, slab.Shape, want)
	}
	rel := slices.Clone(start)
	rel[0] = 0
	return slab.Subset(rel, stride, extent)
}

func (o *object) Attrs() ([]driver.Attr, error) {
	if o.detached {
		return nil, driver.ErrClosed
	}
	return attrs(o.group.Attributes()), nil
}

func (o *object) FieldAttrs(name string) ([]driver.Attr, error) {
	f, err := o.field(name)
	if err != nil {
		return nil, err
	}
	vg, err := o.varGetter(f)
	if err != nil {
		return nil, err
	}
	return attrs(vg.Attributes()), nil
}

func (o *object) Detach() error {
	if o.detached {
		return driver.ErrClosed
	}
	o.detached = true
	o.sub = nil
	return nil
}

// Grid is an attached HDF-EOS5 grid.
type Grid struct {
	*object
}

func (g *Grid) resolveDims() error {
	x, err := g.node.Int("XDim")
	if err != nil {
		return fmt.Errorf("%w: %v", errNoMetadata, err)
	}
	y, err := g.node.Int("YDim")
	if err != nil {
		return fmt.Errorf("%w: %v", errNoMetadata, err)
	}
	return g.object.resolveDims(driver.Dim{Name: "XDim", Size: x}, driver.Dim{Name: "YDim", Size: y})
}

func (g *Grid) GridInfo() (driver.GridInfo, error) {
	if g.detached {
		return driver.GridInfo{}, driver.ErrClosed
	}
	info := driver.GridInfo{Rows: g.sizes["YDim"], Cols: g.sizes["XDim"]}
	ul, err := g.node.Floats("UpperLeftPointMtrs")
	if err != nil || len(ul) != 2 {
		return driver.GridInfo{}, fmt.Errorf("%w: %s: UpperLeftPointMtrs: %v", errNoMetadata, g.name, err)
	}
	lr, err := g.node.Floats("LowerRightMtrs")
	if err != nil || len(lr) != 2 {
		return driver.GridInfo{}, fmt.Errorf("%w: %s: LowerRightMtrs: %v", errNoMetadata, g.name, err)
	}
	copy(info.UpperLeft[:], ul)
	copy(info.LowerRight[:], lr)
	return info, nil
}

func (g *Grid) ProjInfo() (gctp.Descriptor, error) {
	if g.detached {
		return gctp.Descriptor{}, driver.ErrClosed
	}
	var d gctp.Descriptor
	name, ok := g.node.Raw("Projection")
	if !ok {
		return d, fmt.Errorf("%w: %s: Projection", errNoMetadata, g.name)
	}
	code, err := gctp.ParseCode(name)
	if err != nil {
		return d, fmt.Errorf("%s: %w", g.name, err)
	}
	d.Code = code
	d.Sphere = gctp.Unspecified
	if _, ok := g.node.Raw("ZoneCode"); ok {
		if d.Zone, err = g.node.Int("ZoneCode"); err != nil {
			return d, err
		}
	}
	if _, ok := g.node.Raw("SphereCode"); ok {
		s, err := g.node.Int("SphereCode")
		if err != nil {
			return d, err
		}
		d.Sphere = gctp.Sphere(s)
	}
	if _, ok := g.node.Raw("ProjParams"); ok {
		p, err := g.node.Floats("ProjParams")
		if err != nil {
			return d, err
		}
		copy(d.Params[:], p)
	}
	return d, nil
}

func (g *Grid) OriginInfo() (gctp.Origin, error) {
	if g.detached {
		return 0, driver.ErrClosed
	}
	v, ok := g.node.Raw("GridOrigin")
	if !ok {
		return gctp.UpperLeft, nil
	}
	return gctp.ParseOrigin(v)
}

func (g *Grid) PixRegInfo() (gctp.PixReg, error) {
	if g.detached {
		return 0, driver.ErrClosed
	}
	v, ok := g.node.Raw("PixelRegistration")
	if !ok {
		return gctp.Center, nil
	}
	return gctp.ParsePixReg(v)
}

// Swath is an attached HDF-EOS5 swath.
type Swath struct {
	*object
}

func (s *Swath) resolveDims() error { return s.object.resolveDims() }
