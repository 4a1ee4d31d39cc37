package gctp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quantity is one decoded, labelled projection parameter.
type Quantity struct {
	Label   string
	Value   float64
	Integer bool
}

func (q Quantity) String() string {
	if q.Integer {
		return fmt.Sprintf("%s:  %d", q.Label, int(q.Value))
	}
	return fmt.Sprintf("%s:  %s", q.Label, FormatFloat(q.Value))
}

// Quantities decodes the parameters meaningful for the projection code, in
// presentation order. Codes without a decoder return nil.
func (d Descriptor) Quantities() []Quantity {
	var qs []Quantity
	add := func(label string, v float64) { qs = append(qs, Quantity{Label: label, Value: v}) }
	semiAxes := func() {
		a, b := d.SemiAxes()
		add("Semi-major axis(km)", a)
		add("Semi-minor axis(km)", b)
	}
	falseOrigin := func() {
		e, n := d.FalseEastingNorthing()
		add("False Easting", e)
		add("False Northing", n)
	}

	switch d.Code {
	case UTM:
		if lon, lat, ok := d.UTMZoneOrigin(); ok {
			add("UTM zone longitude", lon)
			add("UTM zone latitude", lat)
		} else {
			qs = append(qs, Quantity{Label: "UTM zone", Value: float64(d.Zone), Integer: true})
		}
	case Albers, LambertConformalConic:
		semiAxes()
		lat1, lat2 := d.StandardParallels()
		add("Latitude of 1st Standard Parallel", lat1)
		add("Latitude of 2nd Standard Parallel", lat2)
		add("Longitude of Central Meridian", d.CentralMeridian())
		add("Latitude of Projection Origin", d.OriginLatitude())
		falseOrigin()
	case Mercator:
		semiAxes()
		add("Longitude of Central Meridian", d.CentralMeridian())
		add("Latitude of true scale", d.TrueScale())
		falseOrigin()
	case PolarStereographic:
		semiAxes()
		add("Longitude below pole of map", d.LongitudePole())
		add("Latitude of true scale", d.TrueScale())
		falseOrigin()
	case TransverseMercator:
		semiAxes()
		add("Scale Factor at Central Meridian", d.Params[2])
		add("Longitude of Central Meridian", d.CentralMeridian())
		add("Latitude of Projection Origin", d.OriginLatitude())
		falseOrigin()
	case LambertAzimuthal:
		add("Radius of reference sphere(km)", d.SphereRadius())
		lon, lat := d.Center()
		add("Center Longitude", lon)
		add("Center Latitude", lat)
		falseOrigin()
	case Sinusoidal:
		add("Radius of reference sphere(km)", d.SphereRadius())
		add("Longitude of Central Meridian", d.CentralMeridian())
		falseOrigin()
	case SpaceObliqueMercator:
		semiAxes()
		if d.Params[12] == 0 {
			add("Inclination of Orbit", d.Params[3]/1e6)
			add("Longitude of Ascending Orbit", d.Params[4]/1e6)
			add("Period of Satellite Revolution(min)", d.Params[8])
			add("Satellite Ratio", d.Params[9])
			add("End of Path Flag", d.Params[10])
		} else {
			qs = append(qs,
				Quantity{Label: "Satellite Number", Value: d.Params[2], Integer: true},
				Quantity{Label: "Path Number", Value: d.Params[3], Integer: true})
		}
		falseOrigin()
	}
	return qs
}

// Describe renders the projection name and its decoded parameters as an
// indented block.
func (d Descriptor) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "    Projection:  %s\n", d.Code)
	for _, q := range d.Quantities() {
		fmt.Fprintf(&b, "        %s\n", q)
	}
	return b.String()
}

// FormatFloat prints v in its shortest form, always keeping a decimal point
// for finite values.
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) || strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
