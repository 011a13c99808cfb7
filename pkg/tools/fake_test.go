package tools

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/placesmcp/pkg/directory"
	"github.com/NERVsystems/placesmcp/pkg/places"
	"github.com/NERVsystems/placesmcp/pkg/testutil"
)

// fakeProvider serves canned provider answers keyed by address or place id.
type fakeProvider struct {
	configured  bool
	geocodes    map[string][]places.GeocodeResult
	geocodeErr  error
	details     map[string]*places.PlaceDetails
	detailErrs  map[string]error
	directions  *places.DirectionsResponse
	dirErr      error
	blockIDs    map[string]bool
	detailCalls atomic.Int32

	mu         sync.Mutex
	lastFields []string
	lastDirReq places.DirectionsRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		configured: true,
		geocodes:   map[string][]places.GeocodeResult{},
		details:    map[string]*places.PlaceDetails{},
		detailErrs: map[string]error{},
		blockIDs:   map[string]bool{},
	}
}

func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Geocode(_ context.Context, address, _ string) ([]places.GeocodeResult, error) {
	if !f.configured {
		return nil, places.ErrMissingAPIKey
	}
	if f.geocodeErr != nil {
		return nil, f.geocodeErr
	}
	return f.geocodes[address], nil
}

func (f *fakeProvider) PlaceDetails(ctx context.Context, placeID string, fields []string, _ string) (*places.PlaceDetails, error) {
	f.detailCalls.Add(1)
	f.mu.Lock()
	f.lastFields = fields
	f.mu.Unlock()

	if f.blockIDs[placeID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.detailErrs[placeID]; err != nil {
		return nil, err
	}
	d, ok := f.details[placeID]
	if !ok {
		return nil, &places.StatusError{Service: "details", Status: places.StatusNotFound}
	}
	return d, nil
}

func (f *fakeProvider) Directions(_ context.Context, req places.DirectionsRequest) (*places.DirectionsResponse, error) {
	f.mu.Lock()
	f.lastDirReq = req
	f.mu.Unlock()
	if !f.configured {
		return nil, places.ErrMissingAPIKey
	}
	if f.dirErr != nil {
		return nil, f.dirErr
	}
	return f.directions, nil
}

func place(id, name string, lat, lng float64) *places.PlaceDetails {
	return &places.PlaceDetails{
		PlaceID:          id,
		Name:             name,
		FormattedAddress: name + " street",
		Geometry:         places.Geometry{Location: &places.LatLng{Lat: lat, Lng: lng}},
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func newTestRegistry(t *testing.T, store directory.Store, provider Provider) *Registry {
	t.Helper()
	return NewRegistry(store, provider, Options{WidgetURI: "ui://widget/places.html"}, testutil.NewTestLogger(t))
}
