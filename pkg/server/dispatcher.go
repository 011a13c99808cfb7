package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"

	"github.com/NERVsystems/placesmcp/pkg/tools"
)

// Methods served by the dispatcher.
const (
	MethodInitialize    = "initialize"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesRead = "resources/read"
)

// ToolErrorCode is the JSON-RPC code for every tool failure.
const ToolErrorCode = -32000

// Request is an incoming JSON-RPC 2.0 envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an outgoing JSON-RPC 2.0 envelope. Exactly one of Result and
// Error is set; a nil ID marshals as null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ToolErrorData is attached to every -32000 error.
type ToolErrorData struct {
	Kind     tools.ErrorKind `json:"kind"`
	Category string          `json:"category"`
}

// toolDescriptor is a tools/list entry. mcp.Tool has no _meta, and embedding
// it would promote its MarshalJSON, so the fields are copied.
type toolDescriptor struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	InputSchema mcp.ToolInputSchema `json:"inputSchema"`
	Annotations mcp.ToolAnnotation  `json:"annotations"`
	Meta        map[string]any      `json:"_meta,omitempty"`
}

type listToolsResult struct {
	Tools []toolDescriptor `json:"tools"`
}

// callToolResult is the tools/call success payload.
type callToolResult struct {
	Content           []mcp.TextContent `json:"content"`
	StructuredContent any               `json:"structuredContent"`
	Meta              map[string]any    `json:"_meta,omitempty"`
	IsError           bool              `json:"isError,omitempty"`
}

// Dispatcher validates envelopes, routes the four supported methods and
// shapes results and errors. It holds no per-request state.
type Dispatcher struct {
	registry     *tools.Registry
	widget       *Widget
	info         mcp.Implementation
	instructions string
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher over registry. widget may be nil.
func NewDispatcher(registry *tools.Registry, widget *Widget, info mcp.Implementation, instructions string, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:     registry,
		widget:       widget,
		info:         info,
		instructions: instructions,
		logger:       logger,
	}
}

// Handle processes one raw message. It returns nil for notifications, which
// get no reply.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) *Response {
	if !json.Valid(body) {
		return errorResponse(nil, mcp.PARSE_ERROR, "Parse error", nil)
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return errorResponse(nil, mcp.INVALID_REQUEST, "Invalid Request", nil)
	}

	id, idOK := recoverID(parsed)
	if !idOK {
		return errorResponse(nil, mcp.INVALID_REQUEST, "Invalid Request: id must be a string, number or null", nil)
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(id, mcp.INVALID_REQUEST, "Invalid Request", nil)
	}
	if req.JSONRPC != mcp.JSONRPC_VERSION {
		return errorResponse(id, mcp.INVALID_REQUEST, "Invalid Request: jsonrpc must be \"2.0\"", nil)
	}
	if req.Method == "" {
		return errorResponse(id, mcp.INVALID_REQUEST, "Invalid Request: method is required", nil)
	}

	if !parsed.Get("id").Exists() && strings.HasPrefix(req.Method, "notifications/") {
		d.logger.Debug("notification received", "method", req.Method)
		return nil
	}

	return d.route(ctx, id, req)
}

// recoverID returns the raw id, or false when it has a type JSON-RPC forbids.
func recoverID(parsed gjson.Result) (json.RawMessage, bool) {
	idResult := parsed.Get("id")
	if !idResult.Exists() {
		return nil, true
	}
	switch idResult.Type {
	case gjson.String, gjson.Number:
		return json.RawMessage(idResult.Raw), true
	case gjson.Null:
		return nil, true
	default:
		return nil, false
	}
}

func (d *Dispatcher) route(ctx context.Context, id json.RawMessage, req Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("panic in handler",
				"method", req.Method,
				"panic", rec,
				"stack", string(debug.Stack()))
			resp = errorResponse(id, mcp.INTERNAL_ERROR, "Internal error", nil)
		}
	}()

	switch req.Method {
	case MethodInitialize:
		return d.handleInitialize(id, req.Params)
	case MethodToolsList:
		return d.handleToolsList(id)
	case MethodToolsCall:
		return d.handleToolsCall(ctx, id, req.Params)
	case MethodResourcesRead:
		return d.handleResourcesRead(id, req.Params)
	default:
		return errorResponse(id, mcp.METHOD_NOT_FOUND, "Method not found", nil)
	}
}

func (d *Dispatcher) handleInitialize(id json.RawMessage, raw json.RawMessage) *Response {
	var params mcp.InitializeParams
	if err := decodeParams(raw, &params); err != nil {
		return errorResponse(id, mcp.INVALID_PARAMS, "Invalid params", err.Error())
	}

	version := mcp.LATEST_PROTOCOL_VERSION
	if slices.Contains(mcp.ValidProtocolVersions, params.ProtocolVersion) {
		version = params.ProtocolVersion
	}

	result := mcp.InitializeResult{
		ProtocolVersion: version,
		ServerInfo:      d.info,
		Instructions:    d.instructions,
	}
	result.Capabilities.Tools = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{}
	if d.widget != nil {
		result.Capabilities.Resources = &struct {
			Subscribe   bool `json:"subscribe,omitempty"`
			ListChanged bool `json:"listChanged,omitempty"`
		}{}
	}

	d.logger.Info("client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol_version", version)
	return resultResponse(id, result)
}

func (d *Dispatcher) handleToolsList(id json.RawMessage) *Response {
	defs := d.registry.GetToolDefinitions()
	out := listToolsResult{Tools: make([]toolDescriptor, 0, len(defs))}
	for _, def := range defs {
		out.Tools = append(out.Tools, toolDescriptor{
			Name:        def.Tool.Name,
			Description: def.Tool.Description,
			InputSchema: def.Tool.InputSchema,
			Annotations: def.Tool.Annotations,
			Meta:        def.Meta,
		})
	}
	return resultResponse(id, out)
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, id json.RawMessage, raw json.RawMessage) *Response {
	var params mcp.CallToolParams
	if err := decodeParams(raw, &params); err != nil {
		return errorResponse(id, mcp.INVALID_PARAMS, "Invalid params", err.Error())
	}
	if params.Arguments != nil {
		if _, ok := params.Arguments.(map[string]any); !ok {
			return errorResponse(id, mcp.INVALID_PARAMS, "Invalid params", "arguments must be an object")
		}
	}

	req := mcp.CallToolRequest{Params: params}
	req.Method = MethodToolsCall

	logger := d.logger.With("tool", params.Name)
	res, terr := d.registry.Call(ctx, req)
	if terr != nil {
		logger.Info("tool call failed",
			"kind", terr.Kind,
			"category", terr.Category(),
			"error", terr.Error())
		return errorResponse(id, ToolErrorCode, terr.Error(), ToolErrorData{
			Kind:     terr.Kind,
			Category: terr.Category(),
		})
	}

	var meta map[string]any
	if def, ok := d.registry.Lookup(params.Name); ok {
		meta = def.Meta
	}

	logger.Debug("tool call succeeded")
	return resultResponse(id, callToolResult{
		Content:           []mcp.TextContent{mcp.NewTextContent(res.Summary)},
		StructuredContent: res.Structured,
		Meta:              meta,
	})
}

func (d *Dispatcher) handleResourcesRead(id json.RawMessage, raw json.RawMessage) *Response {
	var params mcp.ReadResourceParams
	if err := decodeParams(raw, &params); err != nil {
		return errorResponse(id, mcp.INVALID_PARAMS, "Invalid params", err.Error())
	}
	if params.URI == "" {
		return errorResponse(id, mcp.INVALID_PARAMS, "Invalid params", "uri is required")
	}

	if d.widget == nil || params.URI != d.widget.URI {
		return errorResponse(id, mcp.RESOURCE_NOT_FOUND, "Resource not found", map[string]string{"uri": params.URI})
	}

	return resultResponse(id, mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{d.widget.Contents()},
	})
}

// decodeParams unmarshals params into v; absent params leave v zeroed.
func decodeParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed params: %w", err)
	}
	return nil
}

func resultResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	}
}
