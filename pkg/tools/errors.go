// Package tools implements the local-business search tools exposed over MCP.
package tools

import (
	"errors"
	"fmt"

	"github.com/NERVsystems/placesmcp/pkg/places"
)

// ErrorKind classifies a tool failure.
type ErrorKind string

const (
	// KindValidation is bad or missing caller input
	KindValidation ErrorKind = "validation"
	// KindResolution is a free-text area that could not be geocoded
	KindResolution ErrorKind = "resolution"
	// KindProvider is a systemic upstream failure
	KindProvider ErrorKind = "provider"
	// KindUnknownTool is a call to a tool that is not registered
	KindUnknownTool ErrorKind = "unknown_tool"
)

// Error categories reported to clients.
const (
	CategoryCaller   = "caller"
	CategoryUpstream = "upstream"
)

// Common error guidance messages
const (
	GuidanceValidation   = "Please correct the parameters and try again."
	GuidanceResolution   = "Try a more specific area such as a city and country, or pass center coordinates."
	GuidanceRateLimit    = "The places provider is rate limiting requests. Please try again in a few seconds."
	GuidanceCredentials  = "The places provider rejected the server's credentials. The operator must configure a valid API key."
	GuidanceNoRoute      = "No route could be found between the specified points. Try another travel mode or nearby coordinates."
	GuidanceNotFound     = "The place could not be found. It may have closed or its identifier may have changed."
	GuidanceNetworkError = "The places provider could not be reached. Please try again later."
	GuidanceGeneral      = "Please try again later or modify your request parameters."
	GuidanceUnknownTool  = "Call tools/list to see the available tools."
)

// ToolError is the error every tool handler returns. The dispatcher turns it
// into a JSON-RPC error carrying Kind and Category.
type ToolError struct {
	Kind     ErrorKind
	Message  string
	Guidance string
	Err      error
}

// Error implements the error interface and provides a formatted error message.
func (e *ToolError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Guidance)
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// Category reports whether the failure is the caller's or the provider's.
func (e *ToolError) Category() string {
	if e.Kind == KindProvider {
		return CategoryUpstream
	}
	return CategoryCaller
}

// ValidationError creates an error for invalid or missing arguments.
func ValidationError(format string, args ...any) *ToolError {
	return &ToolError{
		Kind:     KindValidation,
		Message:  fmt.Sprintf(format, args...),
		Guidance: GuidanceValidation,
	}
}

// ResolutionError reports that area could not be turned into a coordinate.
func ResolutionError(area string, err error) *ToolError {
	return &ToolError{
		Kind:     KindResolution,
		Message:  fmt.Sprintf("could not resolve area %q", area),
		Guidance: GuidanceResolution,
		Err:      err,
	}
}

// UnknownToolError reports a tools/call for an unregistered name.
func UnknownToolError(name string) *ToolError {
	return &ToolError{
		Kind:     KindUnknownTool,
		Message:  fmt.Sprintf("unknown tool: %s", name),
		Guidance: GuidanceUnknownTool,
	}
}

// ProviderError wraps an upstream failure, choosing guidance from the
// provider status when one is available.
func ProviderError(message string, err error) *ToolError {
	guidance := GuidanceGeneral

	var se *places.StatusError
	switch {
	case errors.Is(err, places.ErrMissingAPIKey):
		guidance = GuidanceCredentials
	case errors.As(err, &se):
		switch se.Status {
		case places.StatusOverQueryLimit, "HTTP_429":
			guidance = GuidanceRateLimit
		case places.StatusRequestDenied:
			guidance = GuidanceCredentials
		case places.StatusZeroResults:
			guidance = GuidanceNoRoute
		case places.StatusNotFound:
			guidance = GuidanceNotFound
		}
	case err != nil:
		guidance = GuidanceNetworkError
	}

	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return &ToolError{
		Kind:     KindProvider,
		Message:  message,
		Guidance: guidance,
		Err:      err,
	}
}

// AsToolError converts any error into a ToolError. Errors that are not
// already classified are treated as provider failures.
func AsToolError(err error) *ToolError {
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return ProviderError("tool failed", err)
}
