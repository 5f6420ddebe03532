package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// Code represents a stable error code for programmatic handling.
type Code string

const (
	CodeUnknown          Code = "unknown"
	CodeInvalid          Code = "invalid"
	CodeNotFound         Code = "not_found"
	CodeMethodNotAllowed Code = "method_not_allowed"
	CodeConflict         Code = "conflict"
	CodeUnauthorized     Code = "unauthorized"
	CodeForbidden        Code = "forbidden"
	CodeInternal         Code = "internal"
	CodeUnavailable      Code = "unavailable"
	CodeDeadline         Code = "deadline_exceeded"
	CodeTooManyRequests  Code = "too_many_requests"
)

var codeStatus = map[Code]int{
	CodeUnknown:          http.StatusInternalServerError,
	CodeInvalid:          http.StatusBadRequest,
	CodeNotFound:         http.StatusNotFound,
	CodeMethodNotAllowed: http.StatusMethodNotAllowed,
	CodeConflict:         http.StatusConflict,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeInternal:         http.StatusInternalServerError,
	CodeUnavailable:      http.StatusServiceUnavailable,
	CodeDeadline:         http.StatusRequestTimeout,
	CodeTooManyRequests:  http.StatusTooManyRequests,
}

var statusNames = map[int]string{
	http.StatusBadRequest:            "BadRequestException",
	http.StatusUnauthorized:          "UnauthorizedException",
	http.StatusForbidden:             "ForbiddenException",
	http.StatusNotFound:              "NotFoundException",
	http.StatusMethodNotAllowed:      "MethodNotAllowedException",
	http.StatusRequestTimeout:        "RequestTimeoutException",
	http.StatusConflict:              "ConflictException",
	http.StatusRequestEntityTooLarge: "PayloadTooLargeException",
	http.StatusUnprocessableEntity:   "UnprocessableEntityException",
	http.StatusTooManyRequests:       "ThrottlerException",
	http.StatusInternalServerError:   "InternalServerErrorException",
	http.StatusServiceUnavailable:    "ServiceUnavailableException",
}

// AppError is an HTTP-aware error: it carries its own status code and response body.
// Handlers and middleware return it to control exactly what the client sees.
type AppError struct {
	Code     Code
	Status   int
	Message  string
	Messages []string
	Err      error
	Meta     map[string]any
	Body     any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if len(e.Messages) > 0 {
		msg = strings.Join(e.Messages, "; ")
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *AppError) Unwrap() error { return e.Err }

// Name is the kind label reported in failure envelopes.
func (e *AppError) Name() string {
	if n, ok := statusNames[e.Status]; ok {
		return n
	}
	return "HttpException"
}

// WithMeta attaches metadata to the error. Metadata is merged into the response body.
func (e *AppError) WithMeta(k string, v any) *AppError {
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
	e.Meta[k] = v
	return e
}

// WithBody replaces the generated response body. A string body is reported verbatim.
func (e *AppError) WithBody(body any) *AppError {
	e.Body = body
	return e
}

// Response is the body the error carries: Body when set, otherwise an object of
// statusCode, message and error merged with Meta.
func (e *AppError) Response() any {
	if e.Body != nil {
		return e.Body
	}
	body := make(map[string]any, len(e.Meta)+3)
	for k, v := range e.Meta {
		body[k] = v
	}
	body["statusCode"] = e.Status
	if len(e.Messages) > 0 {
		body["message"] = e.Messages
	} else {
		body["message"] = e.Message
	}
	body["error"] = http.StatusText(e.Status)
	return body
}

// New creates a new AppError with code and message.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Status: statusFor(code), Message: message}
}

// NewStatus creates an AppError for an arbitrary HTTP status.
func NewStatus(status int, message string) *AppError {
	return &AppError{Code: codeFor(status), Status: status, Message: message}
}

func BadRequest(messages ...string) *AppError {
	e := New(CodeInvalid, "Bad Request")
	switch len(messages) {
	case 0:
	case 1:
		e.Message = messages[0]
	default:
		e.Message = messages[0]
		e.Messages = messages
	}
	return e
}

func NotFound(message string) *AppError { return New(CodeNotFound, message) }

func MethodNotAllowed(message string) *AppError { return New(CodeMethodNotAllowed, message) }

func Forbidden(message string) *AppError { return New(CodeForbidden, message) }

func TooManyRequests(message string) *AppError { return New(CodeTooManyRequests, message) }

func RequestTimeout(message string) *AppError { return New(CodeDeadline, message) }

func statusFor(code Code) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func codeFor(status int) Code {
	for c, s := range codeStatus {
		if s == status && c != CodeUnknown {
			return c
		}
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return CodeInvalid
}
