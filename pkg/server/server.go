// Package server provides the JSON-RPC front door for the places tools: the
// dispatcher plus its HTTP and stdio transports.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/placesmcp/pkg/tools"
	"github.com/NERVsystems/placesmcp/pkg/version"
)

const (
	// ServerName is the name reported to clients
	ServerName = "placesmcp"

	// DefaultInstructions is sent to clients on initialize
	DefaultInstructions = "Use search_places to find businesses from the curated directory near an area, " +
		"get_place_details for contact details and opening hours of a result, " +
		"and get_directions to route between two coordinates. " +
		"Write 'where' as a plain area with city and country, e.g. \"Mission District, San Francisco, USA\", without parentheses."
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	Name         string
	Version      string
	Instructions string
	HTTPPath     string
	Widget       *Widget
}

// Server encapsulates the dispatcher and its transports.
type Server struct {
	dispatcher *Dispatcher
	httpPath   string
	logger     *slog.Logger
}

// NewServer creates a server with every tool in registry exposed.
func NewServer(registry *tools.Registry, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = ServerName
	}
	if opts.Version == "" {
		opts.Version = version.BuildVersion
	}
	if opts.Instructions == "" {
		opts.Instructions = DefaultInstructions
	}

	logger.Info("initializing places MCP server",
		"name", opts.Name,
		"version", opts.Version,
		"tools", len(registry.GetToolDefinitions()))

	info := mcp.Implementation{Name: opts.Name, Version: opts.Version}
	return &Server{
		dispatcher: NewDispatcher(registry, opts.Widget, info, opts.Instructions, logger),
		httpPath:   opts.HTTPPath,
		logger:     logger,
	}
}

// Dispatcher returns the server's dispatcher.
func (s *Server) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return HTTPHandler(s.dispatcher, s.httpPath, s.logger)
}

// RunHTTP serves JSON-RPC over HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	return ServeHTTP(ctx, addr, s.Handler(), s.logger)
}

// RunStdio serves newline-delimited JSON-RPC on in/out until in is closed.
func (s *Server) RunStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return NewStdioTransport(s.dispatcher, out, s.logger).Serve(ctx, in)
}
