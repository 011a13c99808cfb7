package geo

import "math"

// polylinePrecision is the Polyline5 scale factor (1e-5 degrees).
const polylinePrecision = 1e5

// DecodePolyline decodes an encoded polyline string into coordinates.
// This implements Google's Polyline Algorithm Format, the form the
// directions provider uses for overview_polyline.points.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func DecodePolyline(encoded string) []Coordinate {
	if len(encoded) == 0 {
		return []Coordinate{}
	}

	// Roughly four characters per point is typical for city-scale routes
	estimate := len(encoded) / 4
	if estimate <= 0 {
		estimate = 1
	}
	points := make([]Coordinate, 0, estimate)

	index, lat, lng := 0, 0, 0
	for index < len(encoded) {
		var delta int
		delta, index = decodeSigned(encoded, index)
		lat += delta

		// A truncated string ends mid-pair; drop the dangling latitude.
		if index >= len(encoded) {
			break
		}
		delta, index = decodeSigned(encoded, index)
		lng += delta

		points = append(points, Coordinate{
			Latitude:  float64(lat) / polylinePrecision,
			Longitude: float64(lng) / polylinePrecision,
		})
	}

	return points
}

// decodeSigned reads one zigzag varint starting at index and returns the
// value along with the index of the next unread byte.
func decodeSigned(encoded string, index int) (int, int) {
	result, shift := 0, 0
	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	return (result >> 1) ^ (-(result & 1)), index
}

// EncodePolyline encodes coordinates into a Polyline5 string.
func EncodePolyline(points []Coordinate) string {
	if len(points) == 0 {
		return ""
	}

	result := make([]byte, 0, len(points)*6)
	prevLat, prevLng := 0, 0
	for _, point := range points {
		lat := int(math.Round(point.Latitude * polylinePrecision))
		lng := int(math.Round(point.Longitude * polylinePrecision))

		result = appendSigned(result, lat-prevLat)
		result = appendSigned(result, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return string(result)
}

func appendSigned(buf []byte, value int) []byte {
	s := value << 1
	if value < 0 {
		s = ^s
	}
	for s >= 0x20 {
		buf = append(buf, byte((0x20|(s&0x1f))+63))
		s >>= 5
	}
	return append(buf, byte(s+63))
}
