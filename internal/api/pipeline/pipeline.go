package pipeline

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/inventory-system/api/internal/api/exception"
	"github.com/inventory-system/api/internal/api/response"
)

// Context is the per-request state seen by interceptors and handlers.
type Context struct {
	Request *http.Request
	Start   time.Time
	status  *atomic.Int32
}

func NewContext(r *http.Request, status int) *Context {
	s := new(atomic.Int32)
	s.Store(int32(status))
	return &Context{Request: r, Start: time.Now(), status: s}
}

func (c *Context) Context() context.Context { return c.Request.Context() }

// Status is the HTTP status the response will be written with.
func (c *Context) Status() int { return int(c.status.Load()) }

func (c *Context) SetStatus(code int) { c.status.Store(int32(code)) }

// Param returns a route parameter.
func (c *Context) Param(key string) string { return chi.URLParam(c.Request, key) }

// WithContext returns a copy bound to ctx. The copy shares the response status.
func (c *Context) WithContext(ctx context.Context) *Context {
	cc := *c
	cc.Request = c.Request.WithContext(ctx)
	return &cc
}

// HandlerFunc produces the value for a route or fails.
type HandlerFunc func(c *Context) (any, error)

// Interceptor wraps the rest of the chain.
type Interceptor func(c *Context, next HandlerFunc) (any, error)

// Route is one entry in the route table.
type Route struct {
	Method  string
	Path    string
	Version string // empty: version neutral, served without prefix
	Status  int    // 0: 201 for POST, 200 otherwise
	Handler HandlerFunc
}

// DefaultStatus is the status written when the handler does not set one.
func (rt Route) DefaultStatus() int {
	if rt.Status != 0 {
		return rt.Status
	}
	if rt.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}

// Pipeline runs interceptors around route handlers and writes exactly one envelope.
type Pipeline struct {
	interceptors []Interceptor
	filter       *exception.Filter
	log          *zap.Logger
}

// New builds a pipeline. Interceptors run outermost first.
func New(log *zap.Logger, filter *exception.Filter, interceptors ...Interceptor) *Pipeline {
	return &Pipeline{interceptors: interceptors, filter: filter, log: log}
}

// Chain composes the interceptors around h.
func (p *Pipeline) Chain(h HandlerFunc) HandlerFunc {
	for i := len(p.interceptors) - 1; i >= 0; i-- {
		ic, next := p.interceptors[i], h
		h = func(c *Context) (any, error) { return ic(c, next) }
	}
	return h
}

// Handler adapts a route to net/http.
func (p *Pipeline) Handler(rt Route) http.HandlerFunc {
	h := p.Chain(rt.Handler)
	status := rt.DefaultStatus()
	return func(w http.ResponseWriter, r *http.Request) {
		c := NewContext(r, status)
		out, err := h(c)
		if err != nil {
			p.filter.Handle(w, r, err)
			return
		}
		if werr := response.WriteJSON(w, c.Status(), out); werr != nil {
			p.log.Debug("write success response", zap.Error(werr))
		}
	}
}
