package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/logger"
	"tempiaops/internal/respond"
)

// Recovery logs panics and answers 500 with a generic message.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.L().Error("panic recovered",
					zap.String("id", GetRequestID(r.Context())),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				respond.Fail(w, http.StatusInternalServerError, apperror.CodeInternal, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
