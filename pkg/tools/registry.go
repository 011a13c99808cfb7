package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/placesmcp/pkg/directory"
	"github.com/NERVsystems/placesmcp/pkg/places"
)

// Provider is the subset of the places client the tools depend on.
type Provider interface {
	Configured() bool
	Geocode(ctx context.Context, address, language string) ([]places.GeocodeResult, error)
	PlaceDetails(ctx context.Context, placeID string, fields []string, language string) (*places.PlaceDetails, error)
	Directions(ctx context.Context, req places.DirectionsRequest) (*places.DirectionsResponse, error)
}

// Search defaults
const (
	DefaultRadiusMeters   = 40000.0
	MinRadiusMeters       = 100.0
	MaxRadiusMeters       = 50000.0
	DefaultDetailTimeout  = 5 * time.Second
	DefaultMaxConcurrency = 8
	DefaultProviderSource = "google"
)

// Options tunes the tools. Zero values fall back to the defaults above.
type Options struct {
	DetailTimeout  time.Duration
	MaxConcurrency int
	ProviderSource string
	// WidgetURI, when set, is advertised as the output template of every tool.
	WidgetURI string
}

// Handler executes one tool call.
type Handler func(ctx context.Context, req mcp.CallToolRequest) (*Result, error)

// ToolDefinition pairs a tool descriptor with its handler.
type ToolDefinition struct {
	Tool    mcp.Tool
	Meta    map[string]any
	Handler Handler
}

// Registry holds the tool registrations and their shared dependencies.
type Registry struct {
	store    directory.Store
	provider Provider
	opts     Options
	logger   *slog.Logger
	defs     []ToolDefinition
	byName   map[string]int
}

// NewRegistry creates a new tool registry.
func NewRegistry(store directory.Store, provider Provider, opts Options, logger *slog.Logger) *Registry {
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = DefaultDetailTimeout
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.ProviderSource == "" {
		opts.ProviderSource = DefaultProviderSource
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		store:    store,
		provider: provider,
		opts:     opts,
		logger:   logger,
	}

	r.defs = []ToolDefinition{
		{
			Tool:    SearchPlacesTool(),
			Meta:    r.toolMeta("Searching the directory…", "Found places"),
			Handler: r.HandleSearchPlaces,
		},
		{
			Tool:    GetPlaceDetailsTool(),
			Meta:    r.toolMeta("Looking up place…", "Place details ready"),
			Handler: r.HandleGetPlaceDetails,
		},
		{
			Tool:    GetDirectionsTool(),
			Meta:    r.toolMeta("Planning route…", "Route ready"),
			Handler: r.HandleGetDirections,
		},
	}

	r.byName = make(map[string]int, len(r.defs))
	for i, def := range r.defs {
		r.byName[def.Tool.Name] = i
	}
	return r
}

// GetToolDefinitions returns all tool definitions in registration order.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return r.defs
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	i, ok := r.byName[name]
	if !ok {
		return ToolDefinition{}, false
	}
	return r.defs[i], true
}

// Call runs the named tool. Every failure comes back as a *ToolError.
func (r *Registry) Call(ctx context.Context, req mcp.CallToolRequest) (*Result, *ToolError) {
	def, ok := r.Lookup(req.Params.Name)
	if !ok {
		return nil, UnknownToolError(req.Params.Name)
	}

	res, err := def.Handler(ctx, req)
	if err != nil {
		return nil, AsToolError(err)
	}
	return res, nil
}

func (r *Registry) toolMeta(invoking, invoked string) map[string]any {
	meta := map[string]any{
		"openai/toolInvocation/invoking": invoking,
		"openai/toolInvocation/invoked":  invoked,
	}
	if r.opts.WidgetURI != "" {
		meta["openai/outputTemplate"] = r.opts.WidgetURI
		meta["openai/widgetAccessible"] = true
	}
	return meta
}
