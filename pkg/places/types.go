package places

import "github.com/NERVsystems/placesmcp/pkg/geo"

// Provider status values. Anything other than StatusOK (and StatusZeroResults
// on geocoding) is a provider-level failure.
const (
	StatusOK             = "OK"
	StatusZeroResults    = "ZERO_RESULTS"
	StatusNotFound       = "NOT_FOUND"
	StatusInvalidRequest = "INVALID_REQUEST"
	StatusOverQueryLimit = "OVER_QUERY_LIMIT"
	StatusRequestDenied  = "REQUEST_DENIED"
	StatusUnknownError   = "UNKNOWN_ERROR"
)

// Place Details field masks.
var (
	// SearchFields are requested for every curated place during a search
	SearchFields = []string{
		"place_id", "name", "formatted_address", "geometry",
		"rating", "user_ratings_total", "formatted_phone_number",
	}

	// DetailFields are requested by the single-place enrichment tool
	DetailFields = []string{
		"place_id", "name", "formatted_address", "geometry",
		"rating", "user_ratings_total",
		"formatted_phone_number", "international_phone_number", "website",
		"opening_hours", "url", "price_level", "photos",
	}
)

// LatLng is the provider's coordinate shape
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Coordinate converts to the shared geo type.
func (l LatLng) Coordinate() geo.Coordinate {
	return geo.Coordinate{Latitude: l.Lat, Longitude: l.Lng}
}

// Geometry holds a result's position
type Geometry struct {
	Location *LatLng `json:"location,omitempty"`
}

// envelope is the status block shared by every provider response.
type envelope struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// GeocodeResponse is the raw geocoding payload
type GeocodeResponse struct {
	envelope
	Results []GeocodeResult `json:"results"`
}

// GeocodeResult is one geocoder candidate
type GeocodeResult struct {
	PlaceID          string   `json:"place_id"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
}

// OpeningHours carries the provider's open-now flag and weekday summary.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Photo is a photo reference; only its presence is used.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// PlaceDetails is the place-details result object. Optional provider fields
// are pointers so "absent" survives decoding.
type PlaceDetails struct {
	PlaceID                  string        `json:"place_id"`
	Name                     string        `json:"name"`
	FormattedAddress         string        `json:"formatted_address"`
	Geometry                 Geometry      `json:"geometry"`
	Rating                   *float64      `json:"rating,omitempty"`
	UserRatingsTotal         *int          `json:"user_ratings_total,omitempty"`
	FormattedPhoneNumber     string        `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string        `json:"international_phone_number,omitempty"`
	Website                  string        `json:"website,omitempty"`
	OpeningHours             *OpeningHours `json:"opening_hours,omitempty"`
	URL                      string        `json:"url,omitempty"`
	PriceLevel               *int          `json:"price_level,omitempty"`
	Photos                   []Photo       `json:"photos,omitempty"`
}

// OpenNow returns the provider's open-now flag, or nil when unknown.
func (d *PlaceDetails) OpenNow() *bool {
	if d.OpeningHours == nil {
		return nil
	}
	return d.OpeningHours.OpenNow
}

// PlaceDetailsResponse is the raw place-details payload
type PlaceDetailsResponse struct {
	envelope
	Result *PlaceDetails `json:"result,omitempty"`
}

// TextValue is the provider's {text, value} pair for distances and durations.
type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// DirectionsLeg is one origin-to-destination leg of a route
type DirectionsLeg struct {
	Distance      *TextValue `json:"distance,omitempty"`
	Duration      *TextValue `json:"duration,omitempty"`
	StartAddress  string     `json:"start_address,omitempty"`
	EndAddress    string     `json:"end_address,omitempty"`
	StartLocation *LatLng    `json:"start_location,omitempty"`
	EndLocation   *LatLng    `json:"end_location,omitempty"`
}

// Polyline wraps an encoded polyline string
type Polyline struct {
	Points string `json:"points"`
}

// DirectionsRoute is one candidate route
type DirectionsRoute struct {
	Summary          string          `json:"summary,omitempty"`
	Legs             []DirectionsLeg `json:"legs"`
	OverviewPolyline *Polyline       `json:"overview_polyline,omitempty"`
}

// DirectionsResponse is the raw directions payload
type DirectionsResponse struct {
	envelope
	Routes []DirectionsRoute `json:"routes"`
}

// DirectionsRequest describes a route lookup.
type DirectionsRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	Mode        string
	Language    string
}
