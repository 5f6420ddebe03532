package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inventory-system/api/internal/api/response"
)

const maxLoggedBody = 16 << 10

// RequestDetails logs method, URL, body, query and route params at debug level,
// then the time taken to respond. Mount it per route so params are resolved.
func RequestDetails(log *zap.Logger) func(http.Handler) http.Handler {
	log = log.Named("LoggingInterceptor")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log.Debug(fmt.Sprintf("Request Details:\n  Method: %s\n  URL: %s\n  Body: %s\n  Query: %s\n  Params: %s",
				r.Method, r.URL.RequestURI(), peekBody(r), dump(r.URL.Query()), dump(routeParams(r))),
				zap.String("request_id", GetRequestID(r.Context())),
			)

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			log.Debug(fmt.Sprintf("Response sent in %dms", time.Since(start).Milliseconds()),
				zap.Int("status", rw.status),
			)
		})
	}
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of r.Body.
// JSON bodies are logged with sensitive fields removed.
func peekBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return "{}"
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
	if err != nil || len(buf) == 0 {
		return "{}"
	}
	tree, err := decodeJSON(buf)
	if err != nil {
		return fmt.Sprintf("%q", buf)
	}
	clean, err := response.Sanitize(tree)
	if err != nil {
		return "{}"
	}
	return dump(clean)
}

func decodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func routeParams(r *http.Request) map[string]string {
	out := map[string]string{}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	for i, k := range rctx.URLParams.Keys {
		if k == "*" {
			continue
		}
		out[k] = rctx.URLParams.Values[i]
	}
	return out
}

func dump(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) { s.status = code; s.ResponseWriter.WriteHeader(code) }
