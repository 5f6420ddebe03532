package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseBody(t *testing.T) {
	e := NotFound("Item not found")
	require.Equal(t, http.StatusNotFound, e.Status)
	require.Equal(t, "NotFoundException", e.Name())
	require.Equal(t, map[string]any{
		"statusCode": 404,
		"message":    "Item not found",
		"error":      "Not Found",
	}, e.Response())
}

func TestBadRequestMessages(t *testing.T) {
	e := BadRequest("name should not be empty", "price must be a number")
	body := e.Response().(map[string]any)
	require.Equal(t, []string{"name should not be empty", "price must be a number"}, body["message"])
	require.Equal(t, "BadRequestException", e.Name())
	require.Contains(t, e.Error(), "price must be a number")
}

func TestMetaAndBody(t *testing.T) {
	e := NewStatus(http.StatusConflict, "taken").WithMeta("field", "sku")
	require.Equal(t, "sku", e.Response().(map[string]any)["field"])

	plain := NewStatus(http.StatusTeapot, "short and stout").WithBody("short and stout")
	require.Equal(t, "short and stout", plain.Response())
	require.Equal(t, "HttpException", plain.Name())
}

func TestStatusNames(t *testing.T) {
	require.Equal(t, "ThrottlerException", TooManyRequests("ThrottlerException: Too Many Requests").Name())
	require.Equal(t, "RequestTimeoutException", RequestTimeout("Request timeout").Name())
	require.Equal(t, http.StatusRequestTimeout, RequestTimeout("x").Status)
	require.Equal(t, CodeInternal, NewStatus(http.StatusBadGateway, "upstream").Code)
}

func TestNewStatusCodes(t *testing.T) {
	e := NewStatus(http.StatusConflict, "taken")
	require.Equal(t, CodeConflict, e.Code)
	require.Equal(t, "ConflictException", e.Name())

	e = NewStatus(http.StatusServiceUnavailable, "down")
	require.Equal(t, CodeUnavailable, e.Code)
	require.Equal(t, "ServiceUnavailableException", e.Name())

	e = NewStatus(http.StatusRequestEntityTooLarge, "too big")
	require.Equal(t, CodeInvalid, e.Code)
	require.Equal(t, "PayloadTooLargeException", e.Name())
}
