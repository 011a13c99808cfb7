package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/yosida95/uritemplate/v3"

	"github.com/NERVsystems/placesmcp/pkg/geo"
	"github.com/NERVsystems/placesmcp/pkg/places"
)

// directionsURLTemplate expands to a shareable maps link for the route.
var directionsURLTemplate = uritemplate.MustNew("https://www.google.com/maps/dir/?api=1{&origin,destination,travelmode}")

// GetDirectionsTool returns the descriptor for get_directions
func GetDirectionsTool() mcp.Tool {
	modes := make([]string, len(TravelModes))
	for i, m := range TravelModes {
		modes[i] = string(m)
	}

	return mcp.NewTool("get_directions",
		mcp.WithDescription("Get a route between two coordinates with distance, duration and an encoded polyline"),
		mcp.WithTitleAnnotation("Directions"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithObject("from_coords",
			mcp.Required(),
			mcp.Description("Route origin"),
			mcp.Properties(latLngProperties()),
		),
		mcp.WithObject("to_coords",
			mcp.Required(),
			mcp.Description("Route destination"),
			mcp.Properties(latLngProperties()),
		),
		mcp.WithString("mode",
			mcp.Description("Travel mode"),
			mcp.Enum(modes...),
			mcp.DefaultString(string(TravelModeDriving)),
		),
		mcp.WithString("language",
			mcp.Description("Language code for distance and duration labels, e.g. 'en'"),
		),
	)
}

// HandleGetDirections implements get_directions
func (r *Registry) HandleGetDirections(ctx context.Context, req mcp.CallToolRequest) (*Result, error) {
	args := req.GetArguments()

	from, err := coordinateArg(args, "from_coords")
	if err != nil {
		return nil, err
	}
	to, err := coordinateArg(args, "to_coords")
	if err != nil {
		return nil, err
	}
	if from == nil || to == nil {
		return nil, ValidationError("from_coords and to_coords are required")
	}

	modeArg, err := stringArg(args, "mode")
	if err != nil {
		return nil, err
	}
	mode, ok := parseTravelMode(modeArg)
	if !ok {
		return nil, ValidationError("unsupported mode %q (use driving, walking, bicycling or transit)", modeArg)
	}

	language, err := stringArg(args, "language")
	if err != nil {
		return nil, err
	}

	result, err := r.GetDirections(ctx, *from, *to, mode, language)
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("%s by %s, about %s.", result.DistanceLabel, result.Mode, result.DurationLabel)
	return &Result{Summary: summary, Structured: result}, nil
}

// GetDirections computes the first route between two coordinates.
func (r *Registry) GetDirections(ctx context.Context, from, to geo.Coordinate, mode TravelMode, language string) (*DirectionsResult, error) {
	logger := r.logger.With("tool", "get_directions")

	resp, err := r.provider.Directions(ctx, places.DirectionsRequest{
		Origin:      from,
		Destination: to,
		Mode:        string(mode),
		Language:    language,
	})
	if err != nil {
		logger.Warn("directions failed", "mode", mode, "error", err)
		return nil, ProviderError("directions lookup failed", err)
	}

	if len(resp.Routes) == 0 {
		return nil, ProviderError("directions returned no route", nil)
	}
	route := resp.Routes[0]
	if len(route.Legs) == 0 {
		return nil, ProviderError("directions route has no legs", nil)
	}
	if route.OverviewPolyline == nil || route.OverviewPolyline.Points == "" {
		return nil, ProviderError("directions route has no polyline", nil)
	}
	leg := route.Legs[0]

	mapURL, err := DirectionsURL(from, to, mode)
	if err != nil {
		return nil, ProviderError("failed to build map link", err)
	}

	points := geo.DecodePolyline(route.OverviewPolyline.Points)
	viewport := geo.BoundingBoxFor(points)
	if viewport == nil {
		viewport = geo.BoundingBoxFor([]geo.Coordinate{from, to})
	}

	result := &DirectionsResult{
		From:            from,
		To:              to,
		Mode:            mode,
		EncodedPolyline: route.OverviewPolyline.Points,
		ExternalMapURL:  mapURL,
		Viewport:        viewport,
		PointCount:      len(points),
	}
	if leg.Distance != nil {
		result.DistanceLabel = leg.Distance.Text
	}
	if leg.Duration != nil {
		result.DurationLabel = leg.Duration.Text
	}
	return result, nil
}

// DirectionsURL builds the public maps link for a route.
func DirectionsURL(from, to geo.Coordinate, mode TravelMode) (string, error) {
	values := uritemplate.Values{}
	values.Set("origin", uritemplate.String(from.String()))
	values.Set("destination", uritemplate.String(to.String()))
	values.Set("travelmode", uritemplate.String(string(mode)))
	return directionsURLTemplate.Expand(values)
}
