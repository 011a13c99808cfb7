package tools

import "github.com/NERVsystems/placesmcp/pkg/geo"

// PlaceResult is one curated business in a search response. Distance is used
// for ordering only and is not emitted.
type PlaceResult struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Phone          *string        `json:"phone"`
	Rating         *float64       `json:"rating"`
	RatingCount    *int           `json:"ratingCount"`
	Location       geo.Coordinate `json:"location"`
	ProviderSource string         `json:"providerSource"`
	OpenNow        *bool          `json:"openNow,omitempty"`
}

// SearchResponse is the structured result of search_places
type SearchResponse struct {
	Query             string          `json:"query"`
	ResolvedAreaLabel string          `json:"resolvedAreaLabel"`
	Center            geo.Coordinate  `json:"center"`
	Viewport          geo.BoundingBox `json:"viewport"`
	Places            []PlaceResult   `json:"places"`
}

// PlaceDetails is the structured result of get_place_details
type PlaceDetails struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Address            string          `json:"address"`
	Phone              string          `json:"phone"`
	InternationalPhone string          `json:"internationalPhone"`
	Website            string          `json:"website"`
	OpenNow            *bool           `json:"openNow"`
	WeekdayText        []string        `json:"weekdayText"`
	MapURL             string          `json:"mapUrl"`
	PriceLevel         *int            `json:"priceLevel"`
	HasPhotos          bool            `json:"hasPhotos"`
	Location           *geo.Coordinate `json:"location"`
	Rating             *float64        `json:"rating"`
	RatingCount        *int            `json:"ratingCount"`
}

// DirectionsResult is the structured result of get_directions
type DirectionsResult struct {
	From            geo.Coordinate   `json:"from"`
	To              geo.Coordinate   `json:"to"`
	Mode            TravelMode       `json:"mode"`
	EncodedPolyline string           `json:"encodedPolyline"`
	DistanceLabel   string           `json:"distanceLabel"`
	DurationLabel   string           `json:"durationLabel"`
	ExternalMapURL  string           `json:"externalMapUrl"`
	Viewport        *geo.BoundingBox `json:"viewport,omitempty"`
	PointCount      int              `json:"pointCount"`
}

// TravelMode represents the supported transportation methods
type TravelMode string

const (
	TravelModeDriving   TravelMode = "driving"
	TravelModeWalking   TravelMode = "walking"
	TravelModeBicycling TravelMode = "bicycling"
	TravelModeTransit   TravelMode = "transit"
)

// TravelModes lists every accepted mode in schema order.
var TravelModes = []TravelMode{TravelModeDriving, TravelModeWalking, TravelModeBicycling, TravelModeTransit}

func parseTravelMode(s string) (TravelMode, bool) {
	if s == "" {
		return TravelModeDriving, true
	}
	for _, m := range TravelModes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Result is what a tool handler hands back to the dispatcher: a short
// human-readable summary plus the structured payload.
type Result struct {
	Summary    string
	Structured any
}
