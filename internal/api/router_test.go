package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/inventory-system/api/internal/api/exception"
	"github.com/inventory-system/api/internal/api/handlers"
	mw "github.com/inventory-system/api/internal/api/middleware"
	"github.com/inventory-system/api/internal/api/pipeline"
	"github.com/inventory-system/api/pkg/database"
)

type stubDB struct{ err error }

func (s stubDB) Ping(context.Context) error { return s.err }

func newTestRouter(t *testing.T, production bool, db handlers.Pinger) http.Handler {
	t.Helper()
	log := zap.NewNop()
	filter := exception.NewFilter(log)
	store := mw.NewMemoryStore(time.Minute, 100)
	t.Cleanup(store.Close)

	return NewRouter(Dependencies{
		Logger: log,
		Filter: filter,
		Pipeline: pipeline.New(log, filter,
			pipeline.Logging(log),
			pipeline.Timeout(time.Second, log),
			pipeline.Sanitize(),
			pipeline.Transform(time.Now),
		),
		Limiter:        store,
		Production:     production,
		Prefix:         "api",
		DefaultVersion: "1",
		Health:         handlers.NewHealthHandler(db),
		Users:          handlers.NewUsersHandler(),
	})
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	var body map[string]any
	if rr.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	}
	return rr, body
}

func TestHealthIsVersionNeutral(t *testing.T) {
	h := newTestRouter(t, false, stubDB{})

	rr, body := do(t, h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "server is running", body["data"])
	require.Equal(t, "/health", body["path"])
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr, _ = do(t, h, http.MethodGet, "/api/v1/health")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReadiness(t *testing.T) {
	rr, body := do(t, newTestRouter(t, false, stubDB{}), http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, map[string]any{"status": "ready"}, body["data"])

	down := stubDB{err: &database.InitializationError{Message: "database ping failed"}}
	rr, body = do(t, newTestRouter(t, false, down), http.MethodGet, "/health/ready")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "Database connection error", body["message"])
	require.Equal(t, "DatabaseConnectionError", body["error"])
}

func TestUsersEndpoint(t *testing.T) {
	rr, body := do(t, newTestRouter(t, true, stubDB{}), http.MethodGet, "/api/v1/auth")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Request successful", body["message"])
	require.Equal(t, []any{map[string]any{"id": float64(1), "name": "Jon Doe"}}, body["data"])
	require.NotContains(t, body, "meta")
}

func TestUnknownRoute(t *testing.T) {
	rr, body := do(t, newTestRouter(t, false, stubDB{}), http.MethodGet, "/api/v1/nope")
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "Cannot GET /api/v1/nope", body["message"])
	require.Equal(t, "NotFoundException", body["error"])
	require.Equal(t, "GET", body["method"])
}

func TestWrongMethod(t *testing.T) {
	rr, body := do(t, newTestRouter(t, false, stubDB{}), http.MethodDelete, "/api/v1/auth")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.Equal(t, "MethodNotAllowedException", body["error"])
}

func TestSwaggerOnlyOutsideProduction(t *testing.T) {
	rr, _ := do(t, newTestRouter(t, false, stubDB{}), http.MethodGet, "/api-docs/doc.json")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Inventory System API")

	rr, _ = do(t, newTestRouter(t, true, stubDB{}), http.MethodGet, "/api-docs/doc.json")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRoutePath(t *testing.T) {
	require.Equal(t, "/health", RoutePath("api", pipeline.Route{Path: "/health"}))
	require.Equal(t, "/api/v2/items", RoutePath("api", pipeline.Route{Path: "/items", Version: "2"}))
}
