package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MethodGetPodsWithStats is the only pRPC method the dashboard calls.
const MethodGetPodsWithStats = "get-pods-with-stats"

// JSON-RPC 2.0 Request
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// JSON-RPC 2.0 Response. ID is kept raw because upstreams answer with either
// a string or a number.
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// JSON-RPC 2.0 Error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// UnmarshalJSON accepts any JSON value. Fields of an unexpected type are
// ignored, except that a truthy "error" always yields an Error.
func (r *RPCResponse) UnmarshalJSON(data []byte) error {
	*r = RPCResponse{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	if v := rawString(fields["jsonrpc"]); v != nil {
		r.JSONRPC = *v
	}
	r.ID = fields["id"]
	r.Result = fields["result"]
	if rawTruthy(fields["error"]) {
		r.Error = decodeRPCError(fields["error"])
	}
	return nil
}

// decodeRPCError keeps code and message only when they are usable.
func decodeRPCError(raw json.RawMessage) *RPCError {
	rpcErr := &RPCError{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return rpcErr
	}
	if code := rawInt(fields["code"]); code != nil {
		rpcErr.Code = int(*code)
	}
	if msg := rawString(fields["message"]); msg != nil {
		rpcErr.Message = *msg
	}
	if data, ok := decodeAny(fields["data"]); ok {
		rpcErr.Data = data
	}
	return rpcErr
}

// RawPod is one entry of result.pods. Upstream does not guarantee presence or
// type of any field, so every optional value is a pointer and a value of the
// wrong JSON type decodes as missing.
type RawPod struct {
	Pubkey            *string
	Address           *string
	RPCPort           *int64
	Version           *string
	LastSeenTimestamp *int64
	IsPublic          bool
	Uptime            *int64
}

// UnmarshalJSON never fails: a pod that is not a JSON object decodes to a pod
// with every field missing.
func (p *RawPod) UnmarshalJSON(data []byte) error {
	*p = RawPod{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	p.Pubkey = rawString(fields["pubkey"])
	p.Address = rawString(fields["address"])
	p.RPCPort = rawInt(fields["rpc_port"])
	p.Version = rawString(fields["version"])
	p.LastSeenTimestamp = rawInt(fields["last_seen_timestamp"])
	p.IsPublic = rawTruthy(fields["is_public"])
	p.Uptime = rawInt(fields["uptime"])
	return nil
}

func decodeAny(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || v == nil {
		return nil, false
	}
	return v, true
}

func rawString(raw json.RawMessage) *string {
	v, ok := decodeAny(raw)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// rawInt accepts JSON numbers and numeric strings; fractional values are
// truncated and values outside the int64 range are treated as missing.
func rawInt(raw json.RawMessage) *int64 {
	v, ok := decodeAny(raw)
	if !ok {
		return nil
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return nil
	}

	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

func rawTruthy(raw json.RawMessage) bool {
	v, ok := decodeAny(raw)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		return t != ""
	default:
		// objects and arrays
		return true
	}
}
