package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/omni/vaa-bridge/logging"
	"github.com/omni/vaa-bridge/presenter/http/render"
)

var ErrPanic = errors.New("handler panicked")

// Recoverer turns a handler panic into an internal error response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			//nolint:errorlint
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			logging.LoggerFromContext(r.Context()).
				WithField("stack", string(debug.Stack())).
				WithError(err).
				Error("recovered panic in http handler")
			render.Error(w, r, http.StatusInternalServerError, "internal", fmt.Errorf("%w: %s", ErrPanic, err))
		}()
		next.ServeHTTP(w, r)
	})
}
