package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/placesmcp/pkg/places"
)

// GetPlaceDetailsTool returns the descriptor for get_place_details
func GetPlaceDetailsTool() mcp.Tool {
	return mcp.NewTool("get_place_details",
		mcp.WithDescription("Get contact details, opening hours and links for one curated place returned by search_places"),
		mcp.WithTitleAnnotation("Place details"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithString("place_id",
			mcp.Required(),
			mcp.Description("The id of a place from search_places results"),
		),
		mcp.WithString("language",
			mcp.Description("Language code for provider results, e.g. 'en'"),
		),
	)
}

// HandleGetPlaceDetails implements get_place_details
func (r *Registry) HandleGetPlaceDetails(ctx context.Context, req mcp.CallToolRequest) (*Result, error) {
	args := req.GetArguments()

	placeID, err := stringArg(args, "place_id")
	if err != nil {
		return nil, err
	}
	language, err := stringArg(args, "language")
	if err != nil {
		return nil, err
	}

	details, err := r.GetPlaceDetails(ctx, placeID, language)
	if err != nil {
		return nil, err
	}

	summary := details.Name
	if details.Address != "" {
		summary = fmt.Sprintf("%s, %s", details.Name, details.Address)
	}
	if details.OpenNow != nil {
		if *details.OpenNow {
			summary += " (open now)"
		} else {
			summary += " (closed now)"
		}
	}
	return &Result{Summary: summary, Structured: details}, nil
}

// GetPlaceDetails enriches a single curated place.
func (r *Registry) GetPlaceDetails(ctx context.Context, placeID, language string) (*PlaceDetails, error) {
	logger := r.logger.With("tool", "get_place_details")

	if placeID == "" {
		return nil, ValidationError("place_id is required")
	}

	known, err := r.store.FilterToKnownIDs(ctx, []string{placeID})
	if err != nil {
		return nil, &ToolError{
			Kind:     KindProvider,
			Message:  fmt.Sprintf("curated directory unavailable: %v", err),
			Guidance: GuidanceGeneral,
			Err:      err,
		}
	}
	if len(known) == 0 {
		return nil, ValidationError("place %q is not in the curated directory", placeID)
	}

	raw, err := r.provider.PlaceDetails(ctx, placeID, places.DetailFields, language)
	if err != nil {
		logger.Warn("place details failed", "place_id", placeID, "error", err)
		return nil, ProviderError("place details lookup failed", err)
	}

	out := &PlaceDetails{
		ID:                 placeID,
		Name:               raw.Name,
		Address:            raw.FormattedAddress,
		Phone:              raw.FormattedPhoneNumber,
		InternationalPhone: raw.InternationalPhoneNumber,
		Website:            raw.Website,
		OpenNow:            raw.OpenNow(),
		WeekdayText:        []string{},
		MapURL:             raw.URL,
		PriceLevel:         raw.PriceLevel,
		HasPhotos:          len(raw.Photos) > 0,
		Rating:             raw.Rating,
		RatingCount:        raw.UserRatingsTotal,
	}
	if raw.OpeningHours != nil && raw.OpeningHours.WeekdayText != nil {
		out.WeekdayText = raw.OpeningHours.WeekdayText
	}
	if raw.Geometry.Location != nil {
		loc := raw.Geometry.Location.Coordinate()
		out.Location = &loc
	}

	return out, nil
}
