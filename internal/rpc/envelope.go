package rpc

import "encoding/json"

const Version = "2.0"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Method is the closed set of supported protocol methods. Anything else
// parses to MethodUnknown and is answered with a method-not-found error.
type Method int

const (
	MethodUnknown Method = iota
	MethodToolsList
	MethodToolsCall
)

func ParseMethod(name string) Method {
	switch name {
	case "tools/list":
		return MethodToolsList
	case "tools/call":
		return MethodToolsCall
	default:
		return MethodUnknown
	}
}

func (m Method) String() string {
	switch m {
	case MethodToolsList:
		return "tools/list"
	case MethodToolsCall:
		return "tools/call"
	default:
		return "unknown"
	}
}

// envelope is the inbound shape before validation. JSONRPC and Method stay
// loosely typed so a non-string value is an invalid request, not a decoding
// failure.
type envelope struct {
	JSONRPC interface{}     `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  interface{}     `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type callParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func resultResponse(id json.RawMessage, result interface{}) Response {
	return Response{JSONRPC: Version, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) Response {
	return Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}
