package router

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/otpgate/internal/pkg/stacktrace"
)

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:errorlint // sentinel must be re-panicked untouched
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			// skip this closure and runtime.gopanic
			if frames := stacktrace.Internal(2); len(frames) > 0 {
				slog.ErrorContext(r.Context(), "panic recovered", "panic", rvr, "stack", stacktrace.Strings(frames))
			} else {
				slog.ErrorContext(r.Context(), "panic recovered", "panic", rvr, "stack", string(debug.Stack()))
			}

			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
