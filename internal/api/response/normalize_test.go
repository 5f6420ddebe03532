package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 30, 45, 123000000, time.FixedZone("WIB", 7*3600))

func tree(t *testing.T, v any) any {
	t.Helper()
	out, err := JSONValue(v)
	require.NoError(t, err)
	return out
}

func TestNormalizePassesEnvelopeThrough(t *testing.T) {
	in := tree(t, map[string]any{
		"success": true, "statusCode": 200, "message": "m",
		"data": nil, "timestamp": "t", "path": "/x",
	})
	require.Equal(t, in, Normalize(in, 201, "/other", fixedNow))

	partial := tree(t, map[string]any{"success": true, "data": 1})
	env, ok := Normalize(partial, 200, "/x", fixedNow).(*SuccessEnvelope)
	require.True(t, ok)
	require.Equal(t, partial, env.Data)
}

func TestNormalizePlainValues(t *testing.T) {
	env := Normalize(tree(t, []int{1, 2}), 200, "/api/v1/items?page=1", fixedNow).(*SuccessEnvelope)
	require.True(t, env.Success)
	require.Equal(t, DefaultMessage, env.Message)
	require.Equal(t, []any{json.Number("1"), json.Number("2")}, env.Data)
	require.Equal(t, "/api/v1/items?page=1", env.Path)
	require.Equal(t, "2025-03-01T05:30:45.123Z", env.Timestamp)
	require.Nil(t, env.Meta)

	env = Normalize("server is running", 200, "/health", fixedNow).(*SuccessEnvelope)
	require.Equal(t, "server is running", env.Data)

	env = Normalize(nil, 204, "/x", fixedNow).(*SuccessEnvelope)
	require.Nil(t, env.Data)
	require.Equal(t, 204, env.StatusCode)
}

func TestNormalizePaginationItems(t *testing.T) {
	in := tree(t, map[string]any{"items": []int{1, 2, 3}, "total": 3, "page": 1, "limit": 10})
	env := Normalize(in, 200, "/items", fixedNow).(*SuccessEnvelope)

	require.Equal(t, []any{json.Number("1"), json.Number("2"), json.Number("3")}, env.Data)
	require.Equal(t, &PaginationMeta{Total: "3", Page: "1", Limit: "10"}, env.Meta)

	raw, err := json.Marshal(env.Meta)
	require.NoError(t, err)
	require.JSONEq(t, `{"total":3,"page":1,"limit":10}`, string(raw))
}

func TestNormalizePaginationPayloadOrder(t *testing.T) {
	in := tree(t, map[string]any{"data": "d", "items": "i", "results": "r", "skip": 0})
	env := Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, "d", env.Data)
	require.Equal(t, json.Number("0"), env.Meta.Skip)

	in = tree(t, map[string]any{"results": []string{"a"}, "take": 5, "message": "found"})
	env = Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, []any{"a"}, env.Data)
	require.Equal(t, "found", env.Message)
}

func TestNormalizeFallbackPayload(t *testing.T) {
	in := tree(t, map[string]any{"total": 2, "foo": "bar", "message": "listed"})
	env := Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, map[string]any{"foo": "bar"}, env.Data)
	require.Equal(t, json.Number("2"), env.Meta.Total)
	require.Equal(t, "listed", env.Message)

	only := tree(t, map[string]any{"page": 1, "limit": 20})
	env = Normalize(only, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, only, env.Data)
}

func TestNormalizeMetaTypeChecks(t *testing.T) {
	in := tree(t, map[string]any{"total": "3", "hasNextPage": true, "hasPreviousPage": "no", "rows": []int{}})
	env := Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.NotNil(t, env.Meta)
	require.Empty(t, env.Meta.Total)
	require.True(t, *env.Meta.HasNextPage)
	require.Nil(t, env.Meta.HasPreviousPage)

	in = tree(t, map[string]any{"total": "many", "rows": []int{}})
	env = Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Nil(t, env.Meta)
	require.Equal(t, map[string]any{"rows": []any{}}, env.Data)
}

func TestNormalizeMessage(t *testing.T) {
	in := tree(t, map[string]any{"message": "Created", "data": map[string]int{"id": 7}})
	env := Normalize(in, 201, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, "Created", env.Message)
	require.Equal(t, map[string]any{"id": json.Number("7")}, env.Data)

	in = tree(t, map[string]any{"message": "hello", "id": 1})
	env = Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, in, env.Data)

	in = tree(t, map[string]any{"message": 42, "data": "x"})
	env = Normalize(in, 200, "/", fixedNow).(*SuccessEnvelope)
	require.Equal(t, DefaultMessage, env.Message)
	require.Equal(t, in, env.Data)
}

func TestJSONValueHonoursTags(t *testing.T) {
	type user struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Password string `json:"password"`
		internal string
	}
	got := tree(t, &user{ID: 1, Name: "Jon Doe", Password: "x", internal: "y"})
	require.Equal(t, map[string]any{"id": json.Number("1"), "name": "Jon Doe", "password": "x"}, got)

	_, err := JSONValue(make(chan int))
	require.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, WriteJSON(rr, 418, map[string]bool{"ok": true}))
	require.Equal(t, 418, rr.Code)
	require.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"ok":true}`, rr.Body.String())
}
