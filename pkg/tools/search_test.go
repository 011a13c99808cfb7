package tools

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/placesmcp/pkg/directory"
	"github.com/NERVsystems/placesmcp/pkg/geo"
	"github.com/NERVsystems/placesmcp/pkg/places"
	"github.com/NERVsystems/placesmcp/pkg/testutil"
)

// origin used by most search tests: downtown San Francisco
var sf = geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		given  bool
		want   float64
	}{
		{name: "default when absent", want: DefaultRadiusMeters},
		{name: "too small", radius: 10, given: true, want: 100},
		{name: "too large", radius: 999999, given: true, want: 50000},
		{name: "negative", radius: -5, given: true, want: 100},
		{name: "in range", radius: 2500, given: true, want: 2500},
		{name: "lower bound", radius: 100, given: true, want: 100},
		{name: "upper bound", radius: 50000, given: true, want: 50000},
		{name: "NaN falls back to default", radius: math.NaN(), given: true, want: DefaultRadiusMeters},
		{name: "positive infinity", radius: math.Inf(1), given: true, want: 50000},
		{name: "negative infinity", radius: math.Inf(-1), given: true, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampRadius(tt.radius, tt.given))
		})
	}
}

func TestSearchPlacesSkipsFailuresAndFiltersByRadius(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{"main": {"A", "B", "C"}})
	provider := newFakeProvider()
	// A is about 2 km north, B about 45 km north, C fails upstream
	provider.details["A"] = place("A", "Alpha Cafe", 37.7929, -122.4194)
	provider.details["B"] = place("B", "Beta Bakery", 38.1796, -122.4194)
	provider.detailErrs["C"] = &places.StatusError{Service: "details", Status: places.StatusUnknownError}

	logger, logs := testutil.NewBufferLogger()
	r := NewRegistry(store, provider, Options{}, logger)

	resp, err := r.SearchPlaces(context.Background(), SearchParams{
		Query:        "coffee",
		Center:       &sf,
		RadiusMeters: DefaultRadiusMeters,
	})
	require.NoError(t, err)

	require.Len(t, resp.Places, 1)
	assert.Equal(t, "A", resp.Places[0].ID)
	assert.Equal(t, "Alpha Cafe", resp.Places[0].Name)
	assert.Equal(t, DefaultProviderSource, resp.Places[0].ProviderSource)
	assert.Nil(t, resp.Places[0].Phone)
	assert.Nil(t, resp.Places[0].OpenNow)
	assert.Equal(t, sf, resp.Center)
	assert.Equal(t, "", resp.ResolvedAreaLabel)
	assert.True(t, resp.Viewport.Contains(resp.Places[0].Location))
	assert.EqualValues(t, 3, provider.detailCalls.Load())

	assert.Contains(t, logs.String(), "skipping place")
	assert.Contains(t, logs.String(), "place_id=C")
}

func TestSearchPlacesSortsByDistance(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{
		"north": {"far", "near"},
		"south": {"mid", "near"}, // duplicate across groups appears once
	})
	provider := newFakeProvider()
	provider.details["far"] = place("far", "Far", 37.8749, -122.4194)
	provider.details["mid"] = place("mid", "Mid", 37.7249, -122.4194)
	provider.details["near"] = place("near", "Near", 37.7760, -122.4194)

	r := newTestRegistry(t, store, provider)
	resp, err := r.SearchPlaces(context.Background(), SearchParams{Query: "x", Center: &sf, RadiusMeters: 50000})
	require.NoError(t, err)

	ids := make([]string, 0, len(resp.Places))
	for _, p := range resp.Places {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"near", "mid", "far"}, ids)

	prev := -1.0
	for _, p := range resp.Places {
		d := geo.DistanceMeters(sf, p.Location)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, 50000.0)
		prev = d
	}
}

func TestSearchPlacesEmptyDirectory(t *testing.T) {
	provider := newFakeProvider()
	provider.configured = false // no provider calls may be made
	r := newTestRegistry(t, directory.NewMemoryStore(nil), provider)

	resp, err := r.SearchPlaces(context.Background(), SearchParams{Query: "tacos", Center: &sf})
	require.NoError(t, err)

	assert.NotNil(t, resp.Places)
	assert.Empty(t, resp.Places)
	assert.Equal(t, geo.Around(sf, geo.FallbackDelta), resp.Viewport)
	assert.Zero(t, provider.detailCalls.Load())
}

func TestSearchPlacesNoneInRange(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{"main": {"B"}})
	provider := newFakeProvider()
	provider.details["B"] = place("B", "Beta", 38.1796, -122.4194)

	r := newTestRegistry(t, store, provider)
	resp, err := r.SearchPlaces(context.Background(), SearchParams{Query: "x", Center: &sf, RadiusMeters: 1000})
	require.NoError(t, err)
	assert.Empty(t, resp.Places)
	assert.Equal(t, geo.Around(sf, geo.FallbackDelta), resp.Viewport)
}

func TestSearchPlacesResolvesWhere(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{"main": {"A"}})
	provider := newFakeProvider()
	provider.geocodes["Mission District"] = []places.GeocodeResult{
		{Geometry: places.Geometry{Location: &places.LatLng{Lat: 37.7599, Lng: -122.4148}}},
	}
	provider.details["A"] = place("A", "Alpha", 37.7609, -122.4150)

	r := newTestRegistry(t, store, provider)
	resp, err := r.SearchPlaces(context.Background(), SearchParams{Query: "coffee", Where: "Mission District"})
	require.NoError(t, err)

	assert.Equal(t, "Mission District", resp.ResolvedAreaLabel)
	assert.InDelta(t, 37.7599, resp.Center.Latitude, 1e-9)
	require.Len(t, resp.Places, 1)
}

func TestSearchPlacesErrors(t *testing.T) {
	tests := []struct {
		name     string
		params   SearchParams
		setup    func(p *fakeProvider)
		wantKind ErrorKind
	}{
		{
			name:     "neither center nor where",
			params:   SearchParams{Query: "coffee"},
			wantKind: KindValidation,
		},
		{
			name:     "empty query",
			params:   SearchParams{Center: &sf},
			wantKind: KindValidation,
		},
		{
			name:     "invalid center",
			params:   SearchParams{Query: "coffee", Center: &geo.Coordinate{Latitude: 123}},
			wantKind: KindValidation,
		},
		{
			name:     "area with zero geocode results",
			params:   SearchParams{Query: "coffee", Where: "Nowhere"},
			wantKind: KindResolution,
		},
		{
			name:   "geocoder failure",
			params: SearchParams{Query: "coffee", Where: "Somewhere"},
			setup: func(p *fakeProvider) {
				p.geocodeErr = &places.StatusError{Service: "geocode", Status: places.StatusInvalidRequest}
			},
			wantKind: KindResolution,
		},
		{
			name:     "geocoding without credentials",
			params:   SearchParams{Query: "coffee", Where: "Somewhere"},
			setup:    func(p *fakeProvider) { p.configured = false },
			wantKind: KindProvider,
		},
		{
			name:     "details without credentials",
			params:   SearchParams{Query: "coffee", Center: &sf},
			setup:    func(p *fakeProvider) { p.configured = false },
			wantKind: KindProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			if tt.setup != nil {
				tt.setup(provider)
			}
			store := directory.NewMemoryStore(map[string][]string{"main": {"A"}})
			r := newTestRegistry(t, store, provider)

			_, err := r.SearchPlaces(context.Background(), tt.params)
			require.Error(t, err)

			var te *ToolError
			require.True(t, errors.As(err, &te), "expected ToolError, got %T", err)
			assert.Equal(t, tt.wantKind, te.Kind)
		})
	}
}

func TestSearchPlacesDetailTimeoutIsSkip(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{"main": {"slow", "A"}})
	provider := newFakeProvider()
	provider.blockIDs["slow"] = true
	provider.details["A"] = place("A", "Alpha", 37.7760, -122.4194)

	r := NewRegistry(store, provider, Options{DetailTimeout: 20 * time.Millisecond}, testutil.NewTestLogger(t))

	start := time.Now()
	resp, err := r.SearchPlaces(context.Background(), SearchParams{Query: "x", Center: &sf})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "A", resp.Places[0].ID)
}

func TestSearchPlacesOpenNow(t *testing.T) {
	open, closed := true, false

	store := directory.NewMemoryStore(map[string][]string{"main": {"open", "closed", "unknown"}})
	provider := newFakeProvider()
	provider.details["open"] = place("open", "Open", 37.7760, -122.4194)
	provider.details["open"].OpeningHours = &places.OpeningHours{OpenNow: &open}
	provider.details["closed"] = place("closed", "Closed", 37.7770, -122.4194)
	provider.details["closed"].OpeningHours = &places.OpeningHours{OpenNow: &closed}
	provider.details["unknown"] = place("unknown", "Unknown", 37.7780, -122.4194)

	r := newTestRegistry(t, store, provider)
	resp, err := r.SearchPlaces(context.Background(), SearchParams{Query: "x", Center: &sf, OpenNow: true})
	require.NoError(t, err)

	require.Len(t, resp.Places, 1)
	assert.Equal(t, "open", resp.Places[0].ID)
	require.NotNil(t, resp.Places[0].OpenNow)
	assert.True(t, *resp.Places[0].OpenNow)
	assert.Contains(t, provider.lastFields, "opening_hours")

	// Without the flag every place is kept and no open state is reported
	resp, err = r.SearchPlaces(context.Background(), SearchParams{Query: "x", Center: &sf})
	require.NoError(t, err)
	assert.Len(t, resp.Places, 3)
	for _, p := range resp.Places {
		assert.Nil(t, p.OpenNow)
	}
}

func TestHandleSearchPlaces(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{"main": {"A"}})
	provider := newFakeProvider()
	provider.details["A"] = place("A", "Alpha Cafe", 37.7760, -122.4194)
	r := newTestRegistry(t, store, provider)

	t.Run("numbers sent as strings are coerced", func(t *testing.T) {
		res, err := r.HandleSearchPlaces(context.Background(), callRequest("search_places", map[string]any{
			"query":    "coffee",
			"center":   map[string]any{"lat": "37.7749", "lng": -122.4194},
			"radius_m": "10",
		}))
		require.NoError(t, err)

		resp, ok := res.Structured.(*SearchResponse)
		require.True(t, ok)
		// 10 m is clamped to 100 m; Alpha is ~120 m away
		assert.Empty(t, resp.Places)
		assert.Contains(t, res.Summary, "0.1 km")
	})

	t.Run("huge radius is clamped", func(t *testing.T) {
		res, err := r.HandleSearchPlaces(context.Background(), callRequest("search_places", map[string]any{
			"query":    "coffee",
			"center":   map[string]any{"lat": 37.7749, "lng": -122.4194},
			"radius_m": 999999,
		}))
		require.NoError(t, err)
		assert.Contains(t, res.Summary, "50.0 km")
		assert.Contains(t, res.Summary, "Alpha Cafe")
	})

	t.Run("missing lng", func(t *testing.T) {
		_, err := r.HandleSearchPlaces(context.Background(), callRequest("search_places", map[string]any{
			"query":  "coffee",
			"center": map[string]any{"lat": 37.7749},
		}))
		var te *ToolError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, KindValidation, te.Kind)
	})

	t.Run("bad radius type", func(t *testing.T) {
		_, err := r.HandleSearchPlaces(context.Background(), callRequest("search_places", map[string]any{
			"query":    "coffee",
			"center":   map[string]any{"lat": 37.7749, "lng": -122.4194},
			"radius_m": "far",
		}))
		var te *ToolError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, KindValidation, te.Kind)
	})

	t.Run("non-finite radius is rejected", func(t *testing.T) {
		for _, radius := range []any{"NaN", "Inf", "-Inf", math.NaN(), math.Inf(1)} {
			_, err := r.HandleSearchPlaces(context.Background(), callRequest("search_places", map[string]any{
				"query":    "coffee",
				"center":   map[string]any{"lat": 37.7749, "lng": -122.4194},
				"radius_m": radius,
			}))
			var te *ToolError
			require.True(t, errors.As(err, &te), "radius %v", radius)
			assert.Equal(t, KindValidation, te.Kind)
		}
	})
}

func TestSearchPlacesNaNRadiusUsesDefault(t *testing.T) {
	store := directory.NewMemoryStore(map[string][]string{"main": {"near", "far"}})
	provider := newFakeProvider()
	provider.details["near"] = place("near", "Near", 0.1, 0.1)
	provider.details["far"] = place("far", "Far", 10, 10)
	r := newTestRegistry(t, store, provider)

	resp, err := r.SearchPlaces(context.Background(), SearchParams{
		Query:        "x",
		Center:       &geo.Coordinate{},
		RadiusMeters: math.NaN(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	assert.Equal(t, "near", resp.Places[0].ID)
}
