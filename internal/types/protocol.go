package types

import (
	"encoding/json"
	"fmt"
)

// Proto is the wire protocol identifier. Requests that carry a "proto"
// field must match it exactly.
const Proto = "grb/1"

// Error codes emitted on the wire. The set is closed; clients switch on
// these strings.
const (
	ErrBadJSON        = "bad_json"
	ErrBadProto       = "bad_proto"
	ErrUnknownCmd     = "unknown_cmd"
	ErrBadToken       = "bad_token"
	ErrTierDenied     = "tier_denied"
	ErrDangerDisabled = "danger_disabled"
	ErrBadArgs        = "bad_args"
	ErrNotFound       = "not_found"
	ErrInternal       = "internal_error"
)

// Request is a parsed client-to-bridge envelope.
type Request struct {
	ID    string
	Cmd   string
	Args  map[string]any
	Token string
}

// Error is a command failure carried back to the dispatcher. Extra fields
// are flattened into the error object on the wire.
type Error struct {
	Code    string
	Message string
	Extra   map[string]any
}

// NewError builds an Error without extra fields.
func NewError(code, format string, a ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

// ParsedRequest is what the reader pushes onto the inbound queue: either a
// valid request, or a parse failure carrying a best-effort id so the
// response can still be correlated.
type ParsedRequest struct {
	Req     Request
	ErrCode string // empty when the parse succeeded
	ErrMsg  string
}

// ParseLine parses one newline-stripped request line. It never returns an
// error; malformed input yields a ParsedRequest with ErrCode set.
func ParseLine(line []byte) ParsedRequest {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return ParsedRequest{ErrCode: ErrBadJSON, ErrMsg: "request is not a JSON object"}
	}

	// Best-effort id: recovered even when the rest of the envelope is bad.
	id := ""
	if rawID, ok := raw["id"]; ok {
		json.Unmarshal(rawID, &id)
	}

	var cmd string
	if rawCmd, ok := raw["cmd"]; ok {
		json.Unmarshal(rawCmd, &cmd)
	}
	if cmd == "" {
		return ParsedRequest{
			Req:     Request{ID: id},
			ErrCode: ErrBadJSON,
			ErrMsg:  "missing cmd",
		}
	}

	if rawProto, ok := raw["proto"]; ok {
		var proto string
		json.Unmarshal(rawProto, &proto)
		if proto != Proto {
			return ParsedRequest{
				Req:     Request{ID: id},
				ErrCode: ErrBadProto,
				ErrMsg:  fmt.Sprintf("unsupported protocol %q, want %q", proto, Proto),
			}
		}
	}

	// Non-mapping args are coerced to empty; token defaults to empty.
	args := map[string]any{}
	if rawArgs, ok := raw["args"]; ok {
		var m map[string]any
		if err := json.Unmarshal(rawArgs, &m); err == nil && m != nil {
			args = m
		}
	}
	var token string
	if rawToken, ok := raw["token"]; ok {
		json.Unmarshal(rawToken, &token)
	}

	return ParsedRequest{Req: Request{ID: id, Cmd: cmd, Args: args, Token: token}}
}

// EmitOK serializes a success response, flattening data into the envelope.
// The returned line includes the trailing newline.
func EmitOK(id string, data map[string]any) []byte {
	env := make(map[string]any, len(data)+2)
	for k, v := range data {
		env[k] = v
	}
	env["id"] = id
	env["ok"] = true
	return appendLine(env)
}

// EmitError serializes an error response. Extra fields from e are flattened
// into the error object alongside code and message.
func EmitError(id string, e *Error) []byte {
	errObj := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		errObj[k] = v
	}
	errObj["code"] = e.Code
	errObj["message"] = e.Message
	return appendLine(map[string]any{
		"id":    id,
		"ok":    false,
		"error": errObj,
	})
}

func appendLine(env map[string]any) []byte {
	data, err := json.Marshal(env)
	if err != nil {
		// Marshal of map[string]any only fails on unserializable values,
		// which handlers are required not to produce. Degrade to an
		// internal error rather than dropping the response.
		data, _ = json.Marshal(map[string]any{
			"id": env["id"],
			"ok": false,
			"error": map[string]any{
				"code":    ErrInternal,
				"message": fmt.Sprintf("response marshal: %v", err),
			},
		})
	}
	return append(data, '\n')
}
