package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/victor-nwoseh/finance-tracker/internal/http/respond"
)

// Recover turns a panic anywhere below it into a 500 response. The stack
// trace is always logged and is echoed to the client only when exposeStack is set.
func Recover(log logrus.FieldLogger, exposeStack bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			stack := string(debug.Stack())
			log.WithFields(logrus.Fields{
				"panic":  fmt.Sprint(rec),
				"path":   r.URL.Path,
				"method": r.Method,
				"stack":  stack,
			}).Error("unhandled panic")

			if exposeStack {
				respond.JSON(w, http.StatusInternalServerError, "internal server error", map[string]string{
					"error": fmt.Sprint(rec),
					"stack": stack,
				})
				return
			}
			respond.Error(w, http.StatusInternalServerError, "internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
