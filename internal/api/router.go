package api

import (
	"fmt"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/inventory-system/api/docs"
	"github.com/inventory-system/api/internal/api/exception"
	"github.com/inventory-system/api/internal/api/handlers"
	mw "github.com/inventory-system/api/internal/api/middleware"
	"github.com/inventory-system/api/internal/api/pipeline"
	apperrors "github.com/inventory-system/api/pkg/errors"
)

type Dependencies struct {
	Logger         *zap.Logger
	Filter         *exception.Filter
	Pipeline       *pipeline.Pipeline
	Limiter        mw.Store
	Production     bool
	AllowedOrigins []string
	Prefix         string
	DefaultVersion string
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
}

// Routes is the route table. Versioned routes live under /<prefix>/v<version>.
func Routes(dep Dependencies) []pipeline.Route {
	return []pipeline.Route{
		{Method: http.MethodGet, Path: "/health", Handler: dep.Health.Liveness},
		{Method: http.MethodGet, Path: "/health/ready", Handler: dep.Health.Readiness},
		{Method: http.MethodGet, Path: "/auth", Version: dep.DefaultVersion, Handler: dep.Users.List},
	}
}

// RoutePath resolves the mount path of rt.
func RoutePath(prefix string, rt pipeline.Route) string {
	if rt.Version == "" {
		return rt.Path
	}
	return path.Join("/", prefix, "v"+rt.Version, rt.Path)
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(chimid.RealIP)
	r.Use(mw.SecureHeaders()...)
	r.Use(mw.CORS(dep.AllowedOrigins))
	r.Use(mw.Recovery(dep.Filter))
	r.Use(mw.RateLimit(dep.Limiter, dep.Filter, dep.Logger))
	r.Use(chimid.Compress(5))

	var perRoute []func(http.Handler) http.Handler
	if !dep.Production {
		perRoute = append(perRoute, mw.RequestDetails(dep.Logger))

		r.Get("/api-docs", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/api-docs/index.html", http.StatusMovedPermanently)
		})
		ui := httpSwagger.Handler(httpSwagger.URL("/api-docs/doc.json"))
		r.Get("/api-docs/*", func(w http.ResponseWriter, req *http.Request) {
			// the UI page relies on inline scripts
			w.Header().Del("Content-Security-Policy")
			ui(w, req)
		})
		dep.Logger.Info("Swagger documentation available at /api-docs")
	}

	for _, rt := range Routes(dep) {
		r.With(perRoute...).Method(rt.Method, RoutePath(dep.Prefix, rt), dep.Pipeline.Handler(rt))
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		dep.Filter.Handle(w, req, apperrors.NotFound(fmt.Sprintf("Cannot %s %s", req.Method, req.URL.Path)))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		dep.Filter.Handle(w, req, apperrors.MethodNotAllowed(fmt.Sprintf("Cannot %s %s", req.Method, req.URL.Path)))
	})

	return r
}
