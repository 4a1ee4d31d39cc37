// Package gctp decodes the projection descriptors attached to HDF-EOS grids
// and maps grid cells to geographic coordinates.
//
// The numbering of projections, spheroids, origins and pixel registrations
// follows the General Cartographic Transformation Package conventions used by
// the HDF-EOS grid API.
package gctp

import (
	"fmt"
	"strconv"
	"strings"
)

// Code identifies a map projection.
type Code int

const (
	Geographic            Code = 0
	UTM                   Code = 1
	StatePlane            Code = 2
	Albers                Code = 3
	LambertConformalConic Code = 4
	Mercator              Code = 5
	PolarStereographic    Code = 6
	Polyconic             Code = 7
	EquidistantConic      Code = 8
	TransverseMercator    Code = 9
	Stereographic         Code = 10
	LambertAzimuthal      Code = 11
	AzimuthalEquidistant  Code = 12
	Gnomonic              Code = 13
	Orthographic          Code = 14
	GeneralVertical       Code = 15
	Sinusoidal            Code = 16
	Equirectangular       Code = 17
	MillerCylindrical     Code = 18
	VanDerGrinten         Code = 19
	HotineObliqueMercator Code = 20
	Robinson              Code = 21
	SpaceObliqueMercator  Code = 22
	AlaskaConformal       Code = 23
	InterruptedGoode      Code = 24
	Mollweide             Code = 25
	InterruptedMollweide  Code = 26
	Hammer                Code = 27
	WagnerIV              Code = 28
	WagnerVII             Code = 29
	ObliqueEqualArea      Code = 30
	CylindricalEqualArea  Code = 97
	BCylindricalEqualArea Code = 98
	IntegerizedSinusoidal Code = 99
)

type codeInfo struct {
	abbrev string
	name   string
}

var codes = map[Code]codeInfo{
	Geographic:            {"GEO", "Geographic"},
	UTM:                   {"UTM", "UTM"},
	StatePlane:            {"SPCS", "State Plane Coordinates"},
	Albers:                {"ALBERS", "Albers Conical Equal Area"},
	LambertConformalConic: {"LAMCC", "Lambert Conformal Conic"},
	Mercator:              {"MERCAT", "Mercator"},
	PolarStereographic:    {"PS", "Polar Stereographic"},
	Polyconic:             {"POLYC", "Polyconic"},
	EquidistantConic:      {"EQUIDC", "Equidistant Conic"},
	TransverseMercator:    {"TM", "Transverse Mercator"},
	Stereographic:         {"STEREO", "Stereographic"},
	LambertAzimuthal:      {"LAMAZ", "Lambert Azimuthal"},
	AzimuthalEquidistant:  {"AZMEQD", "Azimuthal Equidistant"},
	Gnomonic:              {"GNOMON", "Gnomonic"},
	Orthographic:          {"ORTHO", "Orthographic"},
	GeneralVertical:       {"GVNSP", "General Vertical Near-Side Perspective"},
	Sinusoidal:            {"SNSOID", "Sinusoidal"},
	Equirectangular:       {"EQRECT", "Equirectangular"},
	MillerCylindrical:     {"MILLER", "Miller Cylindrical"},
	VanDerGrinten:         {"VGRINT", "Van der Grinten"},
	HotineObliqueMercator: {"HOM", "Hotine Oblique Mercator"},
	Robinson:              {"ROBIN", "Robinson"},
	SpaceObliqueMercator:  {"SOM", "Space Oblique Mercator"},
	AlaskaConformal:       {"ALASKA", "Alaska Conformal"},
	InterruptedGoode:      {"GOOD", "Interrupted Goode Homolosine"},
	Mollweide:             {"MOLL", "Mollweide"},
	InterruptedMollweide:  {"IMOLL", "Interrupted Mollweide"},
	Hammer:                {"HAMMER", "Hammer"},
	WagnerIV:              {"WAGIV", "Wagner IV"},
	WagnerVII:             {"WAGVII", "Wagner VII"},
	ObliqueEqualArea:      {"OBLEQA", "Oblated Equal Area"},
	CylindricalEqualArea:  {"CEA", "Cylindrical Equal Area"},
	BCylindricalEqualArea: {"BCEA", "Cylindrical Equal Area (EASE grid)"},
	IntegerizedSinusoidal: {"ISINUS", "Integerized Sinusoidal"},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return fmt.Sprintf("Projection(%d)", int(c))
}

// ParseCode accepts a numeric code or a symbolic name such as
// "HE5_GCTP_SNSOID", "GCTP_UTM" or "PS".
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return Code(n), nil
	}
	abbrev := trimPrefixes(s, "HE5_GCTP_", "GCTP_")
	for c, info := range codes {
		if info.abbrev == abbrev {
			return c, nil
		}
	}
	return 0, fmt.Errorf("gctp: unknown projection %q", s)
}

// Sphere identifies a reference spheroid. Negative values mean the axes come
// from the projection parameters.
type Sphere int

const Unspecified Sphere = -1

type spheroid struct {
	name         string
	major, minor float64 // meters
}

var spheres = []spheroid{
	{"Clarke 1866", 6378206.4, 6356583.8},
	{"Clarke 1880", 6378249.145, 6356514.86955},
	{"Bessel", 6377397.155, 6356078.96284},
	{"International 1967", 6378157.5, 6356772.2},
	{"International 1909", 6378388.0, 6356911.94613},
	{"WGS 72", 6378135.0, 6356750.519915},
	{"Everest", 6377276.3452, 6356075.4133},
	{"WGS 66", 6378145.0, 6356759.769356},
	{"GRS 1980", 6378137.0, 6356752.31414},
	{"Airy", 6377563.396, 6356256.91},
	{"Modified Airy", 6377340.189, 6356034.448},
	{"Modified Everest", 6377304.063, 6356103.039},
	{"WGS 84", 6378137.0, 6356752.314245},
	{"Southeast Asia", 6378155.0, 6356773.3205},
	{"Australian National", 6378160.0, 6356774.719},
	{"Krassovsky", 6378245.0, 6356863.0188},
	{"Hough", 6378270.0, 6356794.343479},
	{"Mercury 1960", 6378166.0, 6356784.283666},
	{"Modified Mercury 1968", 6378150.0, 6356768.337303},
	{"Sphere of Radius 6370997m", 6370997.0, 6370997.0},
	{"Sphere of Radius 6371228m", 6371228.0, 6371228.0},
	{"Sphere of Radius 6371007.181", 6371007.181, 6371007.181},
}

func (s Sphere) known() bool { return s >= 0 && int(s) < len(spheres) }

func (s Sphere) String() string {
	if s == Unspecified {
		return "Unspecified"
	}
	if !s.known() {
		return fmt.Sprintf("Sphere(%d)", int(s))
	}
	return spheres[s].name
}

// Axes returns the semi-major and semi-minor axes in meters.
func (s Sphere) Axes() (major, minor float64, ok bool) {
	if !s.known() {
		return 0, 0, false
	}
	return spheres[s].major, spheres[s].minor, true
}

// Origin names the grid corner from which rows and columns are counted.
type Origin int

const (
	UpperLeft Origin = iota
	UpperRight
	LowerLeft
	LowerRight
)

var originNames = []string{"GD_UL", "GD_UR", "GD_LL", "GD_LR"}

func (o Origin) String() string {
	if o < 0 || int(o) >= len(originNames) {
		return fmt.Sprintf("Origin(%d)", int(o))
	}
	return "HDFE_" + originNames[o]
}

// ParseOrigin accepts "HE5_HDFE_GD_UL", "HDFE_GD_LR", "GD_UR" or a number.
func ParseOrigin(s string) (Origin, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(originNames) {
		return Origin(n), nil
	}
	name := trimPrefixes(s, "HE5_HDFE_", "HDFE_")
	for i, o := range originNames {
		if o == name {
			return Origin(i), nil
		}
	}
	return 0, fmt.Errorf("gctp: unknown grid origin %q", s)
}

func (o Origin) right() bool { return o == UpperRight || o == LowerRight }
func (o Origin) lower() bool { return o == LowerLeft || o == LowerRight }

// PixReg says whether a cell's coordinate is its center or its origin-side
// corner.
type PixReg int

const (
	Center PixReg = iota
	Corner
)

func (p PixReg) String() string {
	switch p {
	case Center:
		return "HDFE_CENTER"
	case Corner:
		return "HDFE_CORNER"
	}
	return fmt.Sprintf("PixReg(%d)", int(p))
}

// ParsePixReg accepts "HE5_HDFE_CENTER", "HDFE_CORNER", "CENTER" or a number.
func ParsePixReg(s string) (PixReg, error) {
	s = strings.TrimSpace(s)
	switch trimPrefixes(s, "HE5_HDFE_", "HDFE_") {
	case "CENTER", "0":
		return Center, nil
	case "CORNER", "1":
		return Corner, nil
	}
	return 0, fmt.Errorf("gctp: unknown pixel registration %q", s)
}

func trimPrefixes(s string, prefixes ...string) string {
	s = strings.ToUpper(s)
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return s[len(p):]
		}
	}
	return s
}
