package muxhandlers

import (
	"fmt"
	"net/http"

	"github.com/vitalvas/oaspec/logging"
	"github.com/vitalvas/oaspec/mux"
)

// RecoveryConfig configures RecoveryMiddleware.
type RecoveryConfig struct {
	// Logger receives recovered panics. Defaults to a no-op logger.
	Logger logging.Logger

	// ErrorHandler writes the response. Defaults to WriteFailure, which
	// renders a 500 failure payload.
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

// RecoveryMiddleware turns panics in downstream handlers into a 500 failure
// payload.
func RecoveryMiddleware(cfg RecoveryConfig) mux.MiddlewareFunc {
	logger := logging.OrNoOp(cfg.Logger)

	onError := cfg.ErrorHandler
	if onError == nil {
		onError = WriteFailure
	}

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

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", rec)
				}

				logger.WithContext(r.Context()).Error("handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
					"error", err.Error(),
				)

				onError(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
