package response

import (
	"encoding/json"
	"strconv"
	"time"
)

var paginationKeys = []string{
	"total",
	"page",
	"limit",
	"skip",
	"take",
	"totalPages",
	"hasNextPage",
	"hasPreviousPage",
}

var envelopeKeys = []string{"success", "statusCode", "message", "data", "timestamp", "path"}

// Normalize wraps a handler result in a SuccessEnvelope. v is expected in the
// form produced by JSONValue. A value that already has every envelope key is
// returned unchanged.
func Normalize(v any, status int, path string, now time.Time) any {
	obj, isObject := v.(map[string]any)
	if isObject && IsEnvelope(obj) {
		return obj
	}

	env := &SuccessEnvelope{
		Success:    true,
		StatusCode: status,
		Message:    DefaultMessage,
		Data:       v,
		Timestamp:  Timestamp(now),
		Path:       path,
	}
	if !isObject {
		return env
	}

	msg, hasMsg := obj["message"].(string)
	if hasPagination(obj) {
		if meta := extractMeta(obj); !meta.Empty() {
			env.Meta = meta
		}
		env.Data = paginatedPayload(obj)
		if hasMsg {
			env.Message = msg
		}
		return env
	}

	if hasMsg {
		env.Message = msg
		if d, ok := obj["data"]; ok {
			env.Data = d
		}
	}
	return env
}

// IsEnvelope reports whether obj carries every success envelope key.
func IsEnvelope(obj map[string]any) bool {
	for _, k := range envelopeKeys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func hasPagination(obj map[string]any) bool {
	for _, k := range paginationKeys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func paginatedPayload(obj map[string]any) any {
	for _, k := range []string{"data", "items", "results"} {
		if d, ok := obj[k]; ok {
			return d
		}
	}
	clean := make(map[string]any, len(obj))
	for k, v := range obj {
		if k == "message" || isPaginationKey(k) {
			continue
		}
		clean[k] = v
	}
	if len(clean) == 0 {
		return obj
	}
	return clean
}

func isPaginationKey(k string) bool {
	for _, p := range paginationKeys {
		if p == k {
			return true
		}
	}
	return false
}

func extractMeta(obj map[string]any) *PaginationMeta {
	m := &PaginationMeta{}
	m.Total, _ = number(obj["total"])
	m.Page, _ = number(obj["page"])
	m.Limit, _ = number(obj["limit"])
	m.Skip, _ = number(obj["skip"])
	m.Take, _ = number(obj["take"])
	m.TotalPages, _ = number(obj["totalPages"])
	if b, ok := obj["hasNextPage"].(bool); ok {
		m.HasNextPage = &b
	}
	if b, ok := obj["hasPreviousPage"].(bool); ok {
		m.HasPreviousPage = &b
	}
	return m
}

func number(v any) (json.Number, bool) {
	switch n := v.(type) {
	case json.Number:
		return n, true
	case float64:
		return json.Number(strconv.FormatFloat(n, 'f', -1, 64)), true
	case int:
		return json.Number(strconv.Itoa(n)), true
	case int64:
		return json.Number(strconv.FormatInt(n, 10)), true
	}
	return "", false
}
