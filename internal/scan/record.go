package scan

// Record is a collection of field values taken at a given geo location at a
// given time.
type Record struct {
	// Dimensions
	Timestamp int64
	Latitude  float64
	Longitude float64
	// Layer is the leading-axis position of a layered field, or -1 when
	// the fields have no layer axis.
	Layer int

	// Values holds one value per scanned field, in Scanner.Fields order.
	Values []float64
}
