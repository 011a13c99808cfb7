package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Polyline5 fixtures from the published algorithm description.
func TestDecodePolyline(t *testing.T) {
	testCases := []struct {
		name     string
		encoded  string
		expected []Coordinate
	}{
		{
			name:     "Empty string",
			encoded:  "",
			expected: []Coordinate{},
		},
		{
			name:    "Single point",
			encoded: "_p~iF~ps|U",
			expected: []Coordinate{
				{Latitude: 38.5, Longitude: -120.2},
			},
		},
		{
			name:    "Multiple points",
			encoded: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			expected: []Coordinate{
				{Latitude: 38.5, Longitude: -120.2},
				{Latitude: 40.7, Longitude: -120.95},
				{Latitude: 43.252, Longitude: -126.453},
			},
		},
		{
			name:    "Negative coordinates",
			encoded: "f{xyCwuy~W",
			expected: []Coordinate{
				{Latitude: -25.363882, Longitude: 131.044922},
			},
		},
		{
			name:     "Truncated pair is dropped",
			encoded:  "_p~iF",
			expected: []Coordinate{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := DecodePolyline(tc.encoded)
			require.Len(t, result, len(tc.expected))

			for i, expected := range tc.expected {
				assert.InDelta(t, expected.Latitude, result[i].Latitude, 1e-5, "point %d latitude", i)
				assert.InDelta(t, expected.Longitude, result[i].Longitude, 1e-5, "point %d longitude", i)
			}
		})
	}
}

func TestEncodePolyline(t *testing.T) {
	testCases := []struct {
		name     string
		points   []Coordinate
		expected string
	}{
		{
			name:     "Empty slice",
			points:   []Coordinate{},
			expected: "",
		},
		{
			name:     "Single point",
			points:   []Coordinate{{Latitude: 38.5, Longitude: -120.2}},
			expected: "_p~iF~ps|U",
		},
		{
			name: "Multiple points",
			points: []Coordinate{
				{Latitude: 38.5, Longitude: -120.2},
				{Latitude: 40.7, Longitude: -120.95},
				{Latitude: 43.252, Longitude: -126.453},
			},
			expected: "_p~iF~ps|U_ulLnnqC_mqNvxq`@",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EncodePolyline(tc.points))
		})
	}
}

func TestPolylineRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		points []Coordinate
	}{
		{
			name:   "Single point",
			points: []Coordinate{{Latitude: 38.5, Longitude: -120.2}},
		},
		{
			name: "SF to Oakland",
			points: []Coordinate{
				{Latitude: 37.7749, Longitude: -122.4194},
				{Latitude: 37.7955, Longitude: -122.3937},
				{Latitude: 37.8044, Longitude: -122.2711},
			},
		},
		{
			name: "Southern and eastern hemispheres",
			points: []Coordinate{
				{Latitude: -33.86882, Longitude: 151.20929},
				{Latitude: -33.85678, Longitude: 151.21530},
				{Latitude: -33.87365, Longitude: 151.20689},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded := DecodePolyline(EncodePolyline(tc.points))
			require.Len(t, decoded, len(tc.points))

			for i, original := range tc.points {
				assert.InDelta(t, original.Latitude, decoded[i].Latitude, 1e-5)
				assert.InDelta(t, original.Longitude, decoded[i].Longitude, 1e-5)
			}
		})
	}
}
