package gctp

import "math"

// Params is the 13-slot projection parameter vector. Slot meanings depend on
// the projection code. Angles are packed DMS.
type Params [13]float64

// Descriptor is everything a grid records about its projection.
type Descriptor struct {
	Code   Code
	Zone   int
	Sphere Sphere
	Params Params
}

const (
	clarke1866MajorKm = 6378.2064
	defaultRadiusKm   = 6370.997
)

// SemiAxes returns the semi-major and semi-minor axes in kilometers.
//
// Slot 0 is the semi-major axis in meters, 0 meaning Clarke 1866. Slot 1 is
// zero for a sphere, the negated eccentricity when negative, and the
// semi-minor axis in meters when positive.
func (d Descriptor) SemiAxes() (major, minor float64) {
	p := d.Params
	major = clarke1866MajorKm
	if p[0] != 0 {
		major = p[0] / 1000
	}
	switch {
	case p[1] == 0:
		minor = major
	case p[1] < 0:
		minor = major * math.Sqrt(1-p[1]*p[1])
	default:
		minor = p[1] / 1000
	}
	return major, minor
}

// SphereRadius is the reference sphere radius in kilometers.
func (d Descriptor) SphereRadius() float64 {
	if r := d.Params[0] / 1000; r != 0 {
		return r
	}
	return defaultRadiusKm
}

// StandardParallels returns the latitudes of the first and second standard
// parallels.
func (d Descriptor) StandardParallels() (lat1, lat2 float64) {
	return d.Params[2] / 1e6, d.Params[3] / 1e6
}

// CentralMeridian is the longitude of the central meridian.
func (d Descriptor) CentralMeridian() float64 { return d.Params[4] / 1e6 }

// OriginLatitude is the latitude of the projection origin.
func (d Descriptor) OriginLatitude() float64 { return d.Params[5] / 1e6 }

// LongitudePole is the longitude directed straight down below the pole.
func (d Descriptor) LongitudePole() float64 { return d.Params[4] / 1e6 }

// TrueScale is the latitude of true scale.
func (d Descriptor) TrueScale() float64 { return d.Params[5] / 1e6 }

// Center returns the center of projection.
func (d Descriptor) Center() (lon, lat float64) { return d.Params[4] / 1e6, d.Params[5] / 1e6 }

// FalseEastingNorthing returns slots 6 and 7 in projection units.
func (d Descriptor) FalseEastingNorthing() (easting, northing float64) {
	return d.Params[6], d.Params[7]
}

// UTMZoneOrigin returns a point inside the UTM zone from slots 0 and 1. When
// both are zero the zone is given by the zone code and ok is false.
func (d Descriptor) UTMZoneOrigin() (lon, lat float64, ok bool) {
	if d.Params[0] == 0 && d.Params[1] == 0 {
		return 0, 0, false
	}
	return d.Params[0] / 1e6, d.Params[1] / 1e6, true
}

// axesMeters resolves the ellipsoid used by the transforms. Explicit axes in
// the parameters win over the sphere code; Clarke 1866 is the fallback.
func (d Descriptor) axesMeters() (major, minor float64) {
	p := d.Params
	if p[0] > 0 {
		major = p[0]
		switch {
		case p[1] == 0:
			minor = major
		case p[1] < 0:
			// The transforms read a negative slot 1 as the eccentricity
			// squared, the way MISR grids record WGS 84.
			minor = major * math.Sqrt(1+p[1])
		default:
			minor = p[1]
		}
		return major, minor
	}
	if a, b, ok := d.Sphere.Axes(); ok {
		return a, b
	}
	a, b, _ := Sphere(0).Axes()
	return a, b
}

func (d Descriptor) radiusMeters() float64 {
	if d.Params[0] > 0 {
		return d.Params[0]
	}
	if a, _, ok := d.Sphere.Axes(); ok {
		return a
	}
	return defaultRadiusKm * 1000
}

// utmZone returns the signed zone number, negative in the southern
// hemisphere.
func (d Descriptor) utmZone() int {
	if d.Zone != 0 {
		return d.Zone
	}
	if d.Params[0] == 0 && d.Params[1] == 0 {
		return 0
	}
	lon, lat := PackedDMS(d.Params[0]), PackedDMS(d.Params[1])
	zone := int(math.Floor((lon+180)/6)) + 1
	zone = min(max(zone, 1), 60)
	if lat < 0 {
		zone = -zone
	}
	return zone
}
