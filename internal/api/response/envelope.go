package response

import (
	"encoding/json"
	"time"
)

const DefaultMessage = "Request successful"

// SuccessEnvelope is the body of every successful response.
type SuccessEnvelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       any             `json:"data"`
	Meta       *PaginationMeta `json:"meta,omitempty"`
	Timestamp  string          `json:"timestamp"`
	Path       string          `json:"path"`
}

// PaginationMeta holds the pagination fields found on a handler result.
type PaginationMeta struct {
	Total           json.Number `json:"total,omitempty"`
	Page            json.Number `json:"page,omitempty"`
	Limit           json.Number `json:"limit,omitempty"`
	Skip            json.Number `json:"skip,omitempty"`
	Take            json.Number `json:"take,omitempty"`
	TotalPages      json.Number `json:"totalPages,omitempty"`
	HasNextPage     *bool       `json:"hasNextPage,omitempty"`
	HasPreviousPage *bool       `json:"hasPreviousPage,omitempty"`
}

// Empty reports whether no field was extracted.
func (m *PaginationMeta) Empty() bool {
	return m.Total == "" && m.Page == "" && m.Limit == "" && m.Skip == "" &&
		m.Take == "" && m.TotalPages == "" && m.HasNextPage == nil && m.HasPreviousPage == nil
}

// FailureEnvelope is the body of every failed response.
// Message is a string or a []string.
type FailureEnvelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Method     string `json:"method"`
	Message    any    `json:"message"`
	Error      string `json:"error"`
	Details    any    `json:"details,omitempty"`
}

// Timestamp formats t as ISO-8601 UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
