// Package geo provides common geographic types and calculations.
// It centralizes coordinate handling, distances and viewport framing so the
// search and directions tools agree on the same math.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadius is the mean radius of Earth in meters
	EarthRadius = 6371000.0

	// ViewportPadRatio is the share of a span added to each side of a result viewport
	ViewportPadRatio = 0.05

	// MinPadDegrees is the pad used on an axis whose span is zero
	MinPadDegrees = 0.01

	// FallbackDelta is the half-size in degrees of the viewport used when there is nothing to frame
	FallbackDelta = 0.01
)

// Coordinate represents a WGS84 position in degrees.
//
// Example:
//
//	sf := geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194}
//	dist := geo.DistanceMeters(sf, geo.Coordinate{Latitude: 34.0522, Longitude: -118.2437})
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String returns the coordinate as "lat,lng" with six decimals, the form
// accepted by the places provider.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// BoundingBox is a viewport in degrees. North >= South and East >= West;
// boxes crossing the antimeridian are not supported.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// newEmptyBox starts with inverted extremes so the first point sets every edge.
func newEmptyBox() *BoundingBox {
	return &BoundingBox{
		North: -90.0,
		South: 90.0,
		East:  -180.0,
		West:  180.0,
	}
}

// ExtendWith grows the box to include c
func (bb *BoundingBox) ExtendWith(c Coordinate) {
	if c.Latitude > bb.North {
		bb.North = c.Latitude
	}
	if c.Latitude < bb.South {
		bb.South = c.Latitude
	}
	if c.Longitude > bb.East {
		bb.East = c.Longitude
	}
	if c.Longitude < bb.West {
		bb.West = c.Longitude
	}
}

// Contains reports whether c lies inside the box, edges included.
func (bb BoundingBox) Contains(c Coordinate) bool {
	return c.Latitude <= bb.North && c.Latitude >= bb.South &&
		c.Longitude <= bb.East && c.Longitude >= bb.West
}

// pad expands each side by ratio of the span, or by MinPadDegrees when the span is zero.
func (bb *BoundingBox) pad(ratio float64) {
	latPad := (bb.North - bb.South) * ratio
	if latPad == 0 {
		latPad = MinPadDegrees
	}
	lngPad := (bb.East - bb.West) * ratio
	if lngPad == 0 {
		lngPad = MinPadDegrees
	}

	bb.North += latPad
	bb.South -= latPad
	bb.East += lngPad
	bb.West -= lngPad
}

// String returns a string representation of the bounding box
func (bb BoundingBox) String() string {
	return fmt.Sprintf("(%f,%f,%f,%f)", bb.South, bb.West, bb.North, bb.East)
}

// BoundingBoxFor returns the padded viewport around points, or nil when
// points is empty.
func BoundingBoxFor(points []Coordinate) *BoundingBox {
	if len(points) == 0 {
		return nil
	}

	bb := newEmptyBox()
	for _, p := range points {
		bb.ExtendWith(p)
	}
	bb.pad(ViewportPadRatio)
	return bb
}

// Around returns a box of +/- delta degrees centered on c.
func Around(c Coordinate, delta float64) BoundingBox {
	return BoundingBox{
		North: c.Latitude + delta,
		South: c.Latitude - delta,
		East:  c.Longitude + delta,
		West:  c.Longitude - delta,
	}
}

// DistanceMeters calculates the great-circle distance between a and b using
// the haversine formula on a sphere of radius EarthRadius.
func DistanceMeters(a, b Coordinate) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// HaversineDistance calculates the great-circle distance between two points
// given their latitude and longitude in degrees. The result is in meters.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	// Convert degrees to radians
	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dPhi := (lat2 - lat1) * math.Pi / 180.0
	dLambda := (lon2 - lon1) * math.Pi / 180.0

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// Rounding can push h just past 1 for antipodal points
	h = math.Min(h, 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}

// ValidateCoordinate checks that c is within the valid latitude and longitude ranges.
func ValidateCoordinate(c Coordinate) error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", c.Longitude)
	}
	return nil
}
