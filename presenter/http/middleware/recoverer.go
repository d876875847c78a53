package middleware

import (
	"fmt"
	"net/http"

	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/presenter/http/render"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				logging.LoggerFromContext(r.Context()).WithField("recovered", true).WithError(err).Error("recovered panic from the http handler")
				render.JSON(w, r, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
