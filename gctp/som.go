package gctp

import (
	"fmt"
	"math"
)

// Landsat orbit constants for the satellite/path parameter form.
const (
	landsat13Inclination = 99.092
	landsat13Period      = 103.2669323
	landsat45Inclination = 98.2
	landsat45Period      = 98.8841202
)

// som holds the series coefficients of the Space Oblique Mercator inverse.
type som struct {
	a, es      float64
	sa, ca     float64
	p21        float64
	lon0       float64
	fe, fn     float64
	w, q, t, u float64
	xj         float64
	a2, a4, b  float64
	c1, c3     float64
}

// spaceObliqueMercator is the ellipsoidal Space Oblique Mercator inverse.
//
// With slot 12 set the orbit comes from the Landsat number in slot 2 and the
// path in slot 3. Otherwise slot 3 is the inclination, slot 4 the longitude
// of the ascending node and slot 8 the revolution period in minutes.
func spaceObliqueMercator(d Descriptor) (Inverse, error) {
	p := d.Params
	var alf, lon0, period float64
	if p[12] != 0 {
		satnum, path := p[2], p[3]
		if path < 1 {
			return nil, fmt.Errorf("invalid Landsat path %g", path)
		}
		if satnum <= 3 {
			alf, period = landsat13Inclination, landsat13Period
			lon0 = 128.87 - 360.0/251*path
		} else {
			alf, period = landsat45Inclination, landsat45Period
			lon0 = 129.30 - 360.0/233*path
		}
	} else {
		alf, lon0, period = PackedDMS(p[3]), PackedDMS(p[4]), p[8]
	}
	if period <= 0 {
		return nil, fmt.Errorf("invalid revolution period %g", period)
	}
	a, b := d.axesMeters()
	s := &som{a: a, es: 1 - (b/a)*(b/a), p21: period / 1440, lon0: lon0 * deg2rad}
	s.fe, s.fn = d.FalseEastingNorthing()
	s.sa, s.ca = math.Sincos(alf * deg2rad)
	if math.Abs(s.ca) < 1e-9 {
		s.ca = 1e-9
	}
	s.series()
	return s.inverse, nil
}

func (s *som) series() {
	one := 1 - s.es
	e2c := s.es * s.ca * s.ca
	e2s := s.es * s.sa * s.sa
	s.w = (1-e2c)/one*(1-e2c)/one - 1
	s.q = e2s / one
	s.t = e2s * (2 - s.es) / (one * one)
	s.u = e2c / one
	s.xj = one * one * one

	s.term(0, 1)
	for lam := 9; lam <= 81; lam += 18 {
		s.term(float64(lam), 4)
	}
	for lam := 18; lam <= 72; lam += 18 {
		s.term(float64(lam), 2)
	}
	s.term(90, 1)
	s.a2 /= 30
	s.a4 /= 60
	s.b /= 30
	s.c1 /= 15
	s.c3 /= 45
}

// term adds one Simpson's rule sample at lam degrees to the Fourier
// coefficients.
func (s *som) term(lam, weight float64) {
	lam *= deg2rad
	sd := math.Sin(lam)
	sdsq := sd * sd
	sp := s.scale(lam, sdsq)
	d1 := 1 + s.q*sdsq
	h := math.Sqrt((1+s.q*sdsq)/(1+s.w*sdsq)) * ((1+s.w*sdsq)/(d1*d1) - s.p21*s.ca)
	sq := math.Sqrt(s.xj*s.xj + sp*sp)
	fc := weight * (h*s.xj - sp*sp) / sq
	s.b += fc
	s.a2 += fc * math.Cos(2*lam)
	s.a4 += fc * math.Cos(4*lam)
	fc = weight * sp * (h + s.xj) / sq
	s.c1 += fc * math.Cos(lam)
	s.c3 += fc * math.Cos(3*lam)
}

func (s *som) scale(tlon, sdsq float64) float64 {
	return s.p21 * s.sa * math.Cos(tlon) * math.Sqrt((1+s.t*sdsq)/((1+s.w*sdsq)*(1+s.q*sdsq)))
}

// inverse maps grid meters to degrees. Grid y runs opposite to the
// cross-track axis of the series.
func (s *som) inverse(x, y float64) (float64, float64, error) {
	x = (x - s.fe) / s.a
	y = -(y - s.fn) / s.a

	tlon := x / s.b
	var sp float64
	converged := false
	for range 50 {
		prev := tlon
		sd := math.Sin(tlon)
		sp = s.scale(tlon, sd*sd)
		tlon = (x + y*sp/s.xj - s.a2*math.Sin(2*tlon) - s.a4*math.Sin(4*tlon) -
			sp/s.xj*(s.c1*math.Sin(tlon)+s.c3*math.Sin(3*tlon))) / s.b
		if math.Abs(tlon-prev) < 1e-9 {
			converged = true
			break
		}
	}
	if !converged {
		return 0, 0, fmt.Errorf("%w: transformed longitude did not converge", ErrOutsideProjection)
	}

	st := math.Sin(tlon)
	fac := math.Exp(math.Sqrt(1+sp*sp/s.xj/s.xj) * (y - s.c1*st - s.c3*math.Sin(3*tlon)))
	tlat := 2 * (math.Atan(fac) - math.Pi/4)
	dd := st * st
	if math.Abs(math.Cos(tlon)) < 1e-7 {
		tlon -= 1e-7
	}
	bk := math.Sin(tlat)
	bk2 := bk * bk
	one := 1 - s.es
	xlamt := math.Atan(((1-bk2/one)*math.Tan(tlon)*s.ca -
		bk*s.sa*math.Sqrt((1+s.q*dd)*(1-bk2)-bk2*s.u)/math.Cos(tlon)) / (1 - bk2*(1+s.u)))

	// atan loses the quadrant; restore it from the signs of the inputs.
	sl := 1.0
	if xlamt < 0 {
		sl = -1
	}
	scl := 1.0
	if math.Cos(tlon) < 0 {
		scl = -1
	}
	xlamt -= halfPi * (1 - scl) * sl

	var lat float64
	if math.Abs(s.sa) < 1e-7 {
		lat = math.Asin(bk / math.Sqrt(one*one+s.es*bk2))
	} else {
		lat = math.Atan((math.Tan(tlon)*math.Cos(xlamt) - s.ca*math.Sin(xlamt)) / (one * s.sa))
	}
	lon := adjustLon(xlamt - s.p21*tlon + s.lon0)
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return 0, 0, ErrOutsideProjection
	}
	return lon * rad2deg, lat * rad2deg, nil
}
