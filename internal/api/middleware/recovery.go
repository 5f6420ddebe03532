package middleware

import (
	"net/http"

	"github.com/inventory-system/api/internal/api/exception"
)

// Recovery turns panics into a 500 failure envelope through the filter.
func Recovery(filter *exception.Filter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					filter.Handle(w, r, exception.Recovered(rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
