package middleware

import (
	"net/http"
	"runtime/debug"

	"taskmanager/internal/apperrors"
	"taskmanager/internal/response"

	"github.com/sirupsen/logrus"
)

// Recovery turns a handler panic into a 500 response
func Recovery(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.WithFields(logrus.Fields{
						"panic": p,
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					}).Error("handler panic recovered")
					response.Fail(w, http.StatusInternalServerError, apperrors.CodeUnknown, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
