package domain

import "strconv"

// Coordinates is a point in decimal degrees. Values are compared by ==, so
// the same feed row always maps to the same key.
type Coordinates struct {
	Lat float64
	Lon float64
}

// LonLat returns [lon, lat], the axis order routing services expect.
func (c Coordinates) LonLat() []float64 { return []float64{c.Lon, c.Lat} }

func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}
