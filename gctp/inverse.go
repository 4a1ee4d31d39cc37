package gctp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
	halfPi  = math.Pi / 2
	epsln   = 1e-10
)

func geographic(Descriptor) (Inverse, error) {
	return func(x, y float64) (float64, float64, error) {
		if math.Abs(y) > 90+epsln {
			return 0, 0, ErrOutsideProjection
		}
		return x, y, nil
	}, nil
}

// proj4 builds an Inverse from a proj4 definition through geom/proj.
func proj4(args ...string) (Inverse, error) {
	def := "+" + strings.Join(args, " +")
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", def, err)
	}
	_, inverse, err := sr.Transformers()
	if err != nil {
		return nil, fmt.Errorf("%q: %w", def, err)
	}
	return func(x, y float64) (float64, float64, error) {
		lon, lat, err := inverse(x, y)
		if err != nil || math.IsNaN(lon) || math.IsNaN(lat) {
			return 0, 0, errors.Join(ErrOutsideProjection, err)
		}
		return lon * rad2deg, lat * rad2deg, nil
	}, nil
}

func kv(key string, v float64) string {
	return key + "=" + strconv.FormatFloat(v, 'f', -1, 64)
}

func ellipsoid(d Descriptor) []string {
	a, b := d.axesMeters()
	return []string{kv("a", a), kv("b", b)}
}

func utm(d Descriptor) (Inverse, error) {
	zone := d.utmZone()
	if zone == 0 || zone < -60 || zone > 60 {
		return nil, fmt.Errorf("invalid UTM zone %d", zone)
	}
	northing := 0.0
	if zone < 0 {
		northing = 10000000
	}
	lon0 := float64(6*abs(zone) - 183)
	return proj4(append([]string{
		"proj=tmerc", kv("lat_0", 0), kv("lon_0", lon0), kv("k_0", 0.9996),
		kv("x_0", 500000), kv("y_0", northing),
	}, ellipsoid(d)...)...)
}

func conic(name string, d Descriptor) (Inverse, error) {
	p := d.Params
	return proj4(append([]string{
		"proj=" + name,
		kv("lat_1", PackedDMS(p[2])), kv("lat_2", PackedDMS(p[3])),
		kv("lon_0", PackedDMS(p[4])), kv("lat_0", PackedDMS(p[5])),
		kv("x_0", p[6]), kv("y_0", p[7]),
	}, ellipsoid(d)...)...)
}

func albers(d Descriptor) (Inverse, error)           { return conic("aea", d) }
func lambertConformal(d Descriptor) (Inverse, error) { return conic("lcc", d) }

// equidistantConic reads one standard parallel from slot 2 when slot 8 is
// zero, and two from slots 2 and 3 otherwise.
func equidistantConic(d Descriptor) (Inverse, error) {
	if d.Params[8] == 0 {
		d.Params[3] = d.Params[2]
	}
	return conic("eqdc", d)
}

func mercator(d Descriptor) (Inverse, error) {
	p := d.Params
	return proj4(append([]string{
		"proj=merc", kv("lon_0", PackedDMS(p[4])), kv("lat_ts", PackedDMS(p[5])),
		kv("x_0", p[6]), kv("y_0", p[7]),
	}, ellipsoid(d)...)...)
}

func transverseMercator(d Descriptor) (Inverse, error) {
	p := d.Params
	k0 := p[2]
	if k0 == 0 {
		k0 = 1
	}
	return proj4(append([]string{
		"proj=tmerc", kv("k_0", k0), kv("lon_0", PackedDMS(p[4])), kv("lat_0", PackedDMS(p[5])),
		kv("x_0", p[6]), kv("y_0", p[7]),
	}, ellipsoid(d)...)...)
}

// polarStereographic is the ellipsoidal polar stereographic inverse.
// Slot 4 is the longitude below the pole and slot 5 the latitude of true
// scale, whose sign selects the pole.
func polarStereographic(d Descriptor) (Inverse, error) {
	a, b := d.axesMeters()
	e := math.Sqrt(1 - (b/a)*(b/a))
	lon0 := PackedDMS(d.Params[4]) * deg2rad
	latTS := PackedDMS(d.Params[5]) * deg2rad
	fe, fn := d.FalseEastingNorthing()

	fac := 1.0
	if latTS < 0 {
		fac = -1
	}
	var mcs, tcs float64
	trueScale := math.Abs(math.Abs(latTS)-halfPi) > epsln
	if trueScale {
		phi := fac * latTS
		sinphi := math.Sin(phi)
		mcs = msfnz(e, sinphi, math.Cos(phi))
		tcs = tsfnz(e, phi, sinphi)
	}
	e4 := math.Sqrt(math.Pow(1+e, 1+e) * math.Pow(1-e, 1-e))

	return func(x, y float64) (float64, float64, error) {
		x = (x - fe) * fac
		y = (y - fn) * fac
		rh := math.Hypot(x, y)
		ts := rh * e4 / (2 * a)
		if trueScale {
			ts = rh * tcs / (a * mcs)
		}
		lat, err := phi2z(e, ts)
		if err != nil {
			return 0, 0, err
		}
		lon := fac * lon0
		if rh != 0 {
			lon = adjustLon(fac*math.Atan2(x, -y) + lon0)
		}
		return lon * rad2deg, fac * lat * rad2deg, nil
	}, nil
}

// lambertAzimuthal is the spherical Lambert azimuthal equal-area inverse
// about the center in slots 4 and 5.
func lambertAzimuthal(d Descriptor) (Inverse, error) {
	r := d.radiusMeters()
	lon0 := PackedDMS(d.Params[4]) * deg2rad
	lat0 := PackedDMS(d.Params[5]) * deg2rad
	sinLat0, cosLat0 := math.Sincos(lat0)
	fe, fn := d.FalseEastingNorthing()

	return func(x, y float64) (float64, float64, error) {
		x -= fe
		y -= fn
		rh := math.Hypot(x, y)
		t := rh / (2 * r)
		if t > 1 {
			return 0, 0, ErrOutsideProjection
		}
		z := 2 * math.Asin(t)
		sinZ, cosZ := math.Sincos(z)
		lon, lat := lon0, lat0
		if rh > epsln {
			lat = math.Asin(sinLat0*cosZ + cosLat0*sinZ*y/rh)
			switch {
			case math.Abs(math.Abs(lat0)-halfPi) > epsln:
				lon = adjustLon(lon0 + math.Atan2(x*sinZ*cosLat0, (cosZ-sinLat0*math.Sin(lat))*rh))
			case lat0 < 0:
				lon = adjustLon(lon0 - math.Atan2(-x, y))
			default:
				lon = adjustLon(lon0 + math.Atan2(x, -y))
			}
		}
		return lon * rad2deg, lat * rad2deg, nil
	}, nil
}

// sinusoidal is the spherical sinusoidal inverse about the central meridian
// in slot 4.
func sinusoidal(d Descriptor) (Inverse, error) {
	r := d.radiusMeters()
	lon0 := PackedDMS(d.Params[4]) * deg2rad
	fe, fn := d.FalseEastingNorthing()

	return func(x, y float64) (float64, float64, error) {
		x -= fe
		y -= fn
		lat := y / r
		if math.Abs(lat) > halfPi+epsln {
			return 0, 0, ErrOutsideProjection
		}
		lon := lon0
		if math.Abs(math.Abs(lat)-halfPi) > epsln {
			dlon := x / (r * math.Cos(lat))
			if math.Abs(dlon) > math.Pi+epsln {
				return 0, 0, ErrOutsideProjection
			}
			lon = adjustLon(lon0 + dlon)
		}
		return lon * rad2deg, lat * rad2deg, nil
	}, nil
}

func msfnz(e, sinphi, cosphi float64) float64 {
	con := e * sinphi
	return cosphi / math.Sqrt(1-con*con)
}

func tsfnz(e, phi, sinphi float64) float64 {
	con := e * sinphi
	return math.Tan(0.5*(halfPi-phi)) / math.Pow((1-con)/(1+con), 0.5*e)
}

// phi2z finds the latitude for the isometric quantity ts by iteration.
func phi2z(e, ts float64) (float64, error) {
	half := 0.5 * e
	phi := halfPi - 2*math.Atan(ts)
	for range 15 {
		con := e * math.Sin(phi)
		dphi := halfPi - 2*math.Atan(ts*math.Pow((1-con)/(1+con), half)) - phi
		phi += dphi
		if math.Abs(dphi) <= epsln {
			return phi, nil
		}
	}
	return 0, fmt.Errorf("%w: latitude did not converge", ErrOutsideProjection)
}

func adjustLon(x float64) float64 {
	for math.Abs(x) > math.Pi+epsln {
		x -= math.Copysign(2*math.Pi, x)
	}
	return x
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
