package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Marcholio/product-review-catalog-sub000/pkg/httputil"
)

// Recovery turns a handler panic into a 500 response in the error envelope.
func Recovery(l *slog.Logger, ew *httputil.ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := debug.Stack()
				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(stack)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)
				ew.WritePanic(w, r, rec, stack)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
