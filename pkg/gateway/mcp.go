package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/harun/quill/internal/metrics"
	"github.com/harun/quill/internal/tracing"
	"github.com/harun/quill/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// Supported MCP protocol versions
var supportedProtocolVersions = map[string]bool{
	"2025-03-26": true,
	"2025-06-18": true,
	"2025-11-25": true,
}

// LatestProtocolVersion is advertised when the client asks for a version
// we do not speak.
const LatestProtocolVersion = "2025-11-25"

// MaxRequestBodySize is the maximum allowed size of one JSON-RPC message (1MB).
const MaxRequestBodySize = 1 << 20

// Dispatcher maps JSON-RPC methods onto the tool executor. It is shared by
// the HTTP and WebSocket transports; both authenticate the caller before
// handing a request over.
type Dispatcher struct {
	executor *toolexecutor.Executor
	metrics  *metrics.Metrics
	info     ServerInfo
	logger   zerolog.Logger
}

// NewDispatcher creates a dispatcher answering as info
func NewDispatcher(executor *toolexecutor.Executor, m *metrics.Metrics, info ServerInfo, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		executor: executor,
		metrics:  m,
		info:     info,
		logger:   logger,
	}
}

// Decode parses one JSON-RPC message. On failure it returns the error
// response to send instead.
func Decode(data []byte) (*Request, *Response) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return nil, errorResponse(nil, InvalidRequest, "batch requests are not supported", nil)
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, errorResponse(nil, ParseError, "invalid JSON", nil)
	}
	if req.JSONRPC != jsonrpcVersion {
		return nil, errorResponse(req.ID, InvalidRequest, "invalid JSON-RPC version", nil)
	}
	if req.Method == "" {
		return nil, errorResponse(req.ID, InvalidRequest, "missing method", nil)
	}
	return &req, nil
}

// Dispatch handles one request from a caller holding token. It returns nil
// for notifications.
func (d *Dispatcher) Dispatch(ctx context.Context, transport, token string, req *Request) *Response {
	d.metrics.RPCRequest(transport, methodLabel(req.Method))
	logger := tracing.LoggerFromContext(ctx, d.logger)

	if req.IsNotification() {
		if !strings.HasPrefix(req.Method, "notifications/") {
			logger.Warn().Str("method", req.Method).Msg("Notification for non-notification method")
		}
		return nil
	}

	logger.Debug().Str("method", req.Method).Str("transport", transport).Msg("MCP request")

	switch req.Method {
	case "initialize":
		return d.initialize(req)
	case "ping":
		return resultResponse(req.ID, struct{}{})
	case "tools/list":
		return resultResponse(req.ID, d.listTools())
	case "tools/call":
		return d.callTool(ctx, token, req)
	default:
		return errorResponse(req.ID, MethodNotFound, "method not found: "+req.Method, nil)
	}
}

func (d *Dispatcher) initialize(req *Request) *Response {
	var params struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, InvalidParams, "invalid params", nil)
		}
	}

	version := LatestProtocolVersion
	if supportedProtocolVersions[params.ProtocolVersion] {
		version = params.ProtocolVersion
	}

	return resultResponse(req.ID, InitializeResult{
		ProtocolVersion: version,
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		ServerInfo: d.info,
	})
}

func (d *Dispatcher) listTools() ListToolsResult {
	descs := d.executor.Registry().List()
	result := ListToolsResult{Tools: make([]ToolInfo, 0, len(descs))}
	for _, desc := range descs {
		info := ToolInfo{
			Name:        desc.Name,
			Description: describe(desc),
			InputSchema: desc.Schema.JSONSchema(),
		}
		if desc.UseWhen != "" || desc.SideEffects != "" {
			info.Meta = &ToolMeta{UseWhen: desc.UseWhen, SideEffects: desc.SideEffects}
		}
		result.Tools = append(result.Tools, info)
	}
	return result
}

// describe folds the guidance hints into the description so clients that
// ignore _meta still see them.
func describe(desc toolexecutor.ToolDescriptor) string {
	var sb strings.Builder
	sb.WriteString(desc.Description)
	if desc.UseWhen != "" {
		sb.WriteString("\n\nUse when: ")
		sb.WriteString(desc.UseWhen)
	}
	if desc.SideEffects != "" {
		sb.WriteString("\n\nSide effects: ")
		sb.WriteString(desc.SideEffects)
	}
	return sb.String()
}

func (d *Dispatcher) callTool(ctx context.Context, token string, req *Request) *Response {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, InvalidParams, "invalid params", nil)
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, InvalidParams, "tool name is required", nil)
	}

	result := d.executor.Execute(tracing.WithTool(ctx, params.Name), toolexecutor.InvocationRequest{
		Tool:       params.Name,
		Arguments:  params.Arguments,
		Credential: token,
	})
	if result.OK() {
		return resultResponse(req.ID, CallToolResult{
			Content: []Content{{Type: "text", Text: result.Text}},
		})
	}
	return failureResponse(req.ID, result.Failure)
}

func failureResponse(id json.RawMessage, f *toolexecutor.Failure) *Response {
	data := map[string]interface{}{"kind": f.Kind}
	switch f.Kind {
	case toolexecutor.KindAuthentication:
		return errorResponse(id, AuthenticationRequired, f.Message, data)
	case toolexecutor.KindUnknownTool:
		return errorResponse(id, InvalidParams, f.Message, data)
	case toolexecutor.KindInvalidArguments:
		data["fields"] = f.Fields
		return errorResponse(id, InvalidParams, f.Message, data)
	default:
		return errorResponse(id, InternalError, f.Message, data)
	}
}

// methodLabel bounds metric cardinality to the methods we know.
func methodLabel(method string) string {
	switch method {
	case "initialize", "ping", "tools/list", "tools/call":
		return method
	}
	if strings.HasPrefix(method, "notifications/") {
		return "notifications"
	}
	return "other"
}
