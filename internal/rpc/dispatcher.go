// Package rpc parses the JSON-RPC 2.0 envelope and routes calls to the tool
// registry. Envelope problems map to HTTP 400. Everything past a valid
// envelope (unknown methods, unknown tools, bad arguments, tool failures)
// is a JSON-RPC error inside an HTTP 200.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/polyui/catalog-mcp/internal/catalog"
	"github.com/polyui/catalog-mcp/internal/models"
)

// ToolProvider is the content side of the system: the static tool catalog
// plus invocation by name.
type ToolProvider interface {
	Tools() []catalog.Tool
	Invoke(ctx context.Context, name string, args map[string]interface{}) (interface{}, error)
}

// UsageRecorder receives one row per dispatched call. Implementations must
// never block or fail the caller.
type UsageRecorder interface {
	Record(row models.UsageLog)
}

// CallMeta carries admission results into dispatch for usage accounting.
type CallMeta struct {
	Account   *models.Account
	SessionID string
	IPAddress string
	UserAgent string
}

type Dispatcher struct {
	tools    ToolProvider
	recorder UsageRecorder
}

func NewDispatcher(tools ToolProvider, recorder UsageRecorder) *Dispatcher {
	return &Dispatcher{tools: tools, recorder: recorder}
}

// Dispatch handles one raw request body and returns the HTTP status plus
// the JSON-RPC response to serialize. Win or lose, a usage row is handed to
// the recorder.
func (d *Dispatcher) Dispatch(ctx context.Context, meta CallMeta, body []byte) (int, Response) {
	start := time.Now()

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		resp := errorResponse(nil, CodeParseError, "failed to parse request body")
		d.record(meta, "", "", resp, start)
		return http.StatusBadRequest, resp
	}

	version, versionOK := env.JSONRPC.(string)
	methodName, methodOK := env.Method.(string)
	if !versionOK || version != Version || !methodOK || methodName == "" {
		resp := errorResponse(env.ID, CodeInvalidRequest, "invalid JSON-RPC 2.0 envelope")
		d.record(meta, methodName, "", resp, start)
		return http.StatusBadRequest, resp
	}

	var resp Response
	var tool string

	switch ParseMethod(methodName) {
	case MethodToolsList:
		resp = resultResponse(env.ID, map[string]interface{}{"tools": d.tools.Tools()})

	case MethodToolsCall:
		resp, tool = d.callTool(ctx, env)

	case MethodUnknown:
		resp = errorResponse(env.ID, CodeMethodNotFound, "method not found: "+methodName)
	}

	d.record(meta, methodName, tool, resp, start)
	return http.StatusOK, resp
}

func (d *Dispatcher) callTool(ctx context.Context, env envelope) (Response, string) {
	var params callParams
	if len(env.Params) > 0 {
		if err := json.Unmarshal(env.Params, &params); err != nil {
			return errorResponse(env.ID, CodeInvalidParams, "invalid tool call params"), ""
		}
	}
	if params.Name == "" {
		return errorResponse(env.ID, CodeInvalidParams, "tool name is required"), ""
	}

	result, err := d.tools.Invoke(ctx, params.Name, params.Arguments)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownTool),
			errors.Is(err, catalog.ErrInvalidArgs),
			errors.Is(err, catalog.ErrNotFound):
			return errorResponse(env.ID, CodeInvalidParams, err.Error()), params.Name
		default:
			log.Printf("rpc: tool %s failed: %v", params.Name, err)
			return errorResponse(env.ID, CodeInternalError, "internal error"), params.Name
		}
	}

	text, err := json.Marshal(result)
	if err != nil {
		log.Printf("rpc: failed to encode result for tool %s: %v", params.Name, err)
		return errorResponse(env.ID, CodeInternalError, "internal error"), params.Name
	}

	return resultResponse(env.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(text)},
		},
	}), params.Name
}

func (d *Dispatcher) record(meta CallMeta, method, tool string, resp Response, start time.Time) {
	row := models.UsageLog{
		Timestamp:  start,
		SessionID:  meta.SessionID,
		Method:     method,
		Tool:       tool,
		Succeeded:  resp.Error == nil,
		DurationMs: int(time.Since(start).Milliseconds()),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
	}

	if resp.Error != nil {
		row.ErrorCode = resp.Error.Code
	}
	if meta.Account != nil {
		id := meta.Account.ID
		row.AccountID = &id
	}

	d.recorder.Record(row)
}
