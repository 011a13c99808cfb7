package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/placesmcp/pkg/geo"
	"github.com/NERVsystems/placesmcp/pkg/places"
)

// SearchPlacesTool returns the descriptor for search_places
func SearchPlacesTool() mcp.Tool {
	return mcp.NewTool("search_places",
		mcp.WithDescription("Search the curated business directory for places near an area. "+
			"Provide either 'where' (free-text area) or 'center' coordinates."),
		mcp.WithTitleAnnotation("Search places"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What the user is looking for, e.g. 'coffee' or 'plumber'"),
		),
		mcp.WithString("where",
			mcp.Description("Free-text area to search around, e.g. 'Mission District, San Francisco'"),
		),
		mcp.WithObject("center",
			mcp.Description("Explicit search origin; takes precedence over 'where'"),
			mcp.Properties(latLngProperties()),
		),
		mcp.WithNumber("radius_m",
			mcp.Description(fmt.Sprintf("Search radius in meters, clamped to [%.0f, %.0f]", MinRadiusMeters, MaxRadiusMeters)),
			mcp.DefaultNumber(DefaultRadiusMeters),
		),
		mcp.WithBoolean("open_now",
			mcp.Description("Only return places the provider reports as currently open"),
		),
		mcp.WithString("language",
			mcp.Description("Language code for provider results, e.g. 'en'"),
		),
	)
}

func latLngProperties() map[string]any {
	return map[string]any{
		"lat": map[string]any{"type": "number", "minimum": -90, "maximum": 90},
		"lng": map[string]any{"type": "number", "minimum": -180, "maximum": 180},
	}
}

// SearchParams are the parsed search_places arguments.
type SearchParams struct {
	Query        string
	Where        string
	Center       *geo.Coordinate
	RadiusMeters float64
	OpenNow      bool
	Language     string
}

// ClampRadius applies the default and bounds to a requested radius. NaN is
// treated as absent.
func ClampRadius(radius float64, given bool) float64 {
	if !given || math.IsNaN(radius) {
		return DefaultRadiusMeters
	}
	if radius < MinRadiusMeters {
		return MinRadiusMeters
	}
	if radius > MaxRadiusMeters {
		return MaxRadiusMeters
	}
	return radius
}

func parseSearchParams(args map[string]any) (SearchParams, error) {
	var p SearchParams
	var err error

	if p.Query, err = stringArg(args, "query"); err != nil {
		return p, err
	}
	if p.Query == "" {
		return p, ValidationError("query is required")
	}
	if p.Where, err = stringArg(args, "where"); err != nil {
		return p, err
	}
	if p.Center, err = coordinateArg(args, "center"); err != nil {
		return p, err
	}

	radius, given, err := floatArg(args, "radius_m")
	if err != nil {
		return p, err
	}
	p.RadiusMeters = ClampRadius(radius, given)

	if p.OpenNow, err = boolArg(args, "open_now"); err != nil {
		return p, err
	}
	if p.Language, err = stringArg(args, "language"); err != nil {
		return p, err
	}
	return p, nil
}

// HandleSearchPlaces implements search_places
func (r *Registry) HandleSearchPlaces(ctx context.Context, req mcp.CallToolRequest) (*Result, error) {
	params, err := parseSearchParams(req.GetArguments())
	if err != nil {
		return nil, err
	}

	resp, err := r.SearchPlaces(ctx, params)
	if err != nil {
		return nil, err
	}

	return &Result{Summary: searchSummary(resp, params.RadiusMeters), Structured: resp}, nil
}

// lookup is the settled outcome of one place-details call. A non-empty skip
// means the place is left out of the response.
type lookup struct {
	id       string
	place    PlaceResult
	distance float64
	skip     string
}

// SearchPlaces resolves the origin, looks up every curated place and keeps
// the ones inside the radius, nearest first.
func (r *Registry) SearchPlaces(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	logger := r.logger.With("tool", "search_places")

	if p.Query == "" {
		return nil, ValidationError("query is required")
	}
	if p.RadiusMeters == 0 || math.IsNaN(p.RadiusMeters) {
		p.RadiusMeters = DefaultRadiusMeters
	}

	origin, err := r.resolveOrigin(ctx, p)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{
		Query:             p.Query,
		ResolvedAreaLabel: p.Where,
		Center:            origin,
		Viewport:          geo.Around(origin, geo.FallbackDelta),
		Places:            []PlaceResult{},
	}

	ids, err := r.store.ListAllCuratedPlaceIDs(ctx)
	if err != nil {
		return nil, &ToolError{
			Kind:     KindProvider,
			Message:  fmt.Sprintf("curated directory unavailable: %v", err),
			Guidance: GuidanceGeneral,
			Err:      err,
		}
	}
	if len(ids) == 0 {
		logger.Debug("curated directory is empty")
		return resp, nil
	}

	if !r.provider.Configured() {
		return nil, ProviderError("place lookups unavailable", places.ErrMissingAPIKey)
	}

	lookups := r.lookupAll(ctx, ids, origin, p)
	if err := ctx.Err(); err != nil {
		return nil, ProviderError("search interrupted", err)
	}

	kept := make([]lookup, 0, len(lookups))
	for _, l := range lookups {
		switch {
		case l.skip != "":
			logger.Debug("skipping place", "place_id", l.id, "reason", l.skip)
		case l.distance > p.RadiusMeters:
		case p.OpenNow && (l.place.OpenNow == nil || !*l.place.OpenNow):
		default:
			if !p.OpenNow {
				l.place.OpenNow = nil
			}
			kept = append(kept, l)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].distance < kept[j].distance
	})

	points := make([]geo.Coordinate, 0, len(kept))
	for _, l := range kept {
		resp.Places = append(resp.Places, l.place)
		points = append(points, l.place.Location)
	}
	if bb := geo.BoundingBoxFor(points); bb != nil {
		resp.Viewport = *bb
	}

	logger.Info("search complete",
		"curated", len(ids),
		"returned", len(resp.Places),
		"radius_m", p.RadiusMeters)
	return resp, nil
}

// resolveOrigin picks the explicit center, or geocodes the free-text area.
func (r *Registry) resolveOrigin(ctx context.Context, p SearchParams) (geo.Coordinate, error) {
	if p.Center != nil {
		if err := geo.ValidateCoordinate(*p.Center); err != nil {
			return geo.Coordinate{}, ValidationError("invalid center: %v", err)
		}
		return *p.Center, nil
	}

	if p.Where == "" {
		return geo.Coordinate{}, ValidationError("either 'where' or 'center' is required")
	}

	results, err := r.provider.Geocode(ctx, p.Where, p.Language)
	if err != nil {
		if errors.Is(err, places.ErrMissingAPIKey) {
			return geo.Coordinate{}, ProviderError("geocoding unavailable", err)
		}
		return geo.Coordinate{}, ResolutionError(p.Where, err)
	}

	origin, ok := places.GeocodeLocation(results)
	if !ok {
		return geo.Coordinate{}, ResolutionError(p.Where, nil)
	}
	return origin, nil
}

// lookupAll fetches details for every id on a bounded pool. Every call
// settles; failures are recorded as skips.
func (r *Registry) lookupAll(ctx context.Context, ids []string, origin geo.Coordinate, p SearchParams) []lookup {
	fields := places.SearchFields
	if p.OpenNow {
		fields = append(append([]string(nil), places.SearchFields...), "opening_hours")
	}

	lookups := make([]lookup, len(ids))

	var g errgroup.Group
	g.SetLimit(r.opts.MaxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					lookups[i] = lookup{id: id, skip: fmt.Sprintf("panic: %v", rec)}
				}
			}()
			lookups[i] = r.lookupOne(ctx, id, fields, origin, p.Language)
			return nil
		})
	}
	_ = g.Wait()

	return lookups
}

func (r *Registry) lookupOne(ctx context.Context, id string, fields []string, origin geo.Coordinate, language string) lookup {
	l := lookup{id: id}

	callCtx, cancel := context.WithTimeout(ctx, r.opts.DetailTimeout)
	defer cancel()

	details, err := r.provider.PlaceDetails(callCtx, id, fields, language)
	if err != nil {
		l.skip = err.Error()
		return l
	}
	if details.Geometry.Location == nil {
		l.skip = "missing geometry"
		return l
	}

	loc := details.Geometry.Location.Coordinate()
	l.distance = geo.DistanceMeters(origin, loc)
	l.place = PlaceResult{
		ID:             id,
		Name:           details.Name,
		Address:        details.FormattedAddress,
		Phone:          optionalString(details.FormattedPhoneNumber),
		Rating:         details.Rating,
		RatingCount:    details.UserRatingsTotal,
		Location:       loc,
		ProviderSource: r.opts.ProviderSource,
		OpenNow:        details.OpenNow(),
	}
	return l
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func searchSummary(resp *SearchResponse, radius float64) string {
	area := resp.ResolvedAreaLabel
	if area == "" {
		area = resp.Center.String()
	}

	if len(resp.Places) == 0 {
		return fmt.Sprintf("No curated places for %q within %.1f km of %s.", resp.Query, radius/1000, area)
	}

	names := make([]string, 0, len(resp.Places))
	for _, pl := range resp.Places {
		names = append(names, pl.Name)
	}
	return fmt.Sprintf("Found %d curated place(s) for %q within %.1f km of %s: %s.",
		len(resp.Places), resp.Query, radius/1000, area, strings.Join(names, ", "))
}
