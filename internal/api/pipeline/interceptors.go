package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/inventory-system/api/internal/api/exception"
	"github.com/inventory-system/api/internal/api/middleware"
	"github.com/inventory-system/api/internal/api/response"
	apperrors "github.com/inventory-system/api/pkg/errors"
)

// Transform wraps handler results in the success envelope.
func Transform(now func() time.Time) Interceptor {
	return func(c *Context, next HandlerFunc) (any, error) {
		out, err := next(c)
		if err != nil {
			return nil, err
		}
		tree, err := response.JSONValue(out)
		if err != nil {
			return nil, pkgerrors.WithStack(err)
		}
		return response.Normalize(tree, c.Status(), c.Request.URL.RequestURI(), now()), nil
	}
}

// Sanitize strips sensitive fields from the envelope payload.
func Sanitize() Interceptor {
	return func(c *Context, next HandlerFunc) (any, error) {
		out, err := next(c)
		if err != nil {
			return nil, err
		}
		if env, ok := out.(*response.SuccessEnvelope); ok {
			if env.Data, err = response.Sanitize(env.Data); err != nil {
				return nil, pkgerrors.WithStack(err)
			}
			return env, nil
		}
		clean, err := response.Sanitize(out)
		if err != nil {
			return nil, pkgerrors.WithStack(err)
		}
		return clean, nil
	}
}

type outcome struct {
	value any
	err   error
}

// Timeout bounds the rest of the chain to d. The chain runs in its own
// goroutine; if the deadline fires first its result is dropped.
func Timeout(d time.Duration, log *zap.Logger) Interceptor {
	log = log.Named("TimeoutInterceptor")
	return func(c *Context, next HandlerFunc) (any, error) {
		parent := c.Context()
		ctx, cancel := context.WithTimeout(parent, d)
		defer cancel()

		done := make(chan outcome, 1)
		go func(cc *Context) {
			defer func() {
				if rec := recover(); rec != nil {
					done <- outcome{err: exception.Recovered(rec)}
				}
			}()
			v, err := next(cc)
			done <- outcome{value: v, err: err}
		}(c.WithContext(ctx))

		select {
		case o := <-done:
			return o.value, o.err
		case <-ctx.Done():
			if perr := parent.Err(); perr != nil {
				return nil, perr
			}
			log.Warn(fmt.Sprintf("Request timeout: %s %s exceeded %dms",
				c.Request.Method, c.Request.URL.RequestURI(), d.Milliseconds()))
			return nil, apperrors.RequestTimeout("Request timeout")
		}
	}
}

// Logging logs every request on entry and its outcome on exit.
func Logging(log *zap.Logger) Interceptor {
	log = log.Named("GlobalInterceptor")
	return func(c *Context, next HandlerFunc) (any, error) {
		r := c.Request
		url := r.URL.RequestURI()
		ua := r.UserAgent()
		if ua == "" {
			ua = "Unknown"
		}
		rid := zap.String("request_id", middleware.GetRequestID(r.Context()))

		log.Info(fmt.Sprintf("Incoming Request: %s %s - IP: %s - User-Agent: %s", r.Method, url, clientIP(r.RemoteAddr), ua), rid)

		out, err := next(c)
		ms := time.Since(c.Start).Milliseconds()
		if err != nil {
			log.Error(fmt.Sprintf("Failed Request: %s %s - Duration: %dms - Error: %s", r.Method, url, ms, errMessage(err)), rid)
			return nil, err
		}
		log.Info(fmt.Sprintf("Outgoing Response: %s %s - Status: %d - Duration: %dms", r.Method, url, c.Status(), ms), rid)
		return out, nil
	}
}

func errMessage(err error) string {
	var ae *apperrors.AppError
	if errors.As(err, &ae) && len(ae.Messages) == 0 {
		return ae.Message
	}
	return err.Error()
}

func clientIP(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}
