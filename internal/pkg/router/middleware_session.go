package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	// Name of the cookie. Defaults to DefaultCookieName.
	Name string
	// Secure marks the cookie as HTTPS-only.
	Secure bool
	// MaxAge is the cookie lifetime; it should match the token TTL.
	MaxAge time.Duration
}

// DefaultCookieName is used when CookieConfig.Name is empty.
const DefaultCookieName = "otpgate_session"

func middlewareSession(signer jwt.JWT, store session.Store, oid uid.StringID, cc CookieConfig) Middleware {
	if cc.Name == "" {
		cc.Name = DefaultCookieName
	}

	issue := func(w http.ResponseWriter, sid string) error {
		token, err := signer.Generate(sid)
		if err != nil {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cc.Name,
			Value:    token,
			Path:     "/",
			MaxAge:   int(cc.MaxAge.Seconds()),
			HttpOnly: true,
			Secure:   cc.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var sid string
			if c, err := r.Cookie(cc.Name); err == nil && c.Value != "" {
				if claims, err := signer.Verify(c.Value); err == nil {
					sid = claims.SessionID
				} else {
					slog.DebugContext(ctx, "session cookie rejected", "error", err)
				}
			}

			if sid == "" {
				sid = oid.Generate()
				if err := issue(w, sid); err != nil {
					slog.ErrorContext(ctx, "failed to sign session cookie", "error", err)
					writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
					return
				}
			}

			sess, err := store.Load(ctx, sid)
			if err != nil {
				slog.ErrorContext(ctx, "failed to load session", "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}

			// A promoted session moves to a fresh ID before the first byte of
			// the response, while the cookie can still be replaced.
			rotate := func() {
				if !sess.NeedsRotation() {
					return
				}
				moved := sess.MoveTo(oid.Generate())
				if err := store.Save(ctx, moved); err != nil {
					slog.ErrorContext(ctx, "failed to rotate session", "error", err)
					return
				}
				if err := issue(w, moved.ID); err != nil {
					slog.ErrorContext(ctx, "failed to sign rotated session cookie", "error", err)
					return
				}
				if err := store.Delete(ctx, sess.ID); err != nil {
					slog.WarnContext(ctx, "failed to delete pre-login session", "error", err)
				}
			}

			sw := &sessionWriter{ResponseWriter: w, before: rotate}
			next.ServeHTTP(sw, r.WithContext(session.WithSession(ctx, sess)))
			sw.flushHook()
		})
	}
}

// sessionWriter runs before exactly once, ahead of the first header or body write.
type sessionWriter struct {
	http.ResponseWriter
	before func()
	done   bool
}

func (w *sessionWriter) flushHook() {
	if !w.done {
		w.done = true
		w.before()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.flushHook()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flushHook()
	return w.ResponseWriter.Write(b)
}

// SetError forwards handler errors to the observability recorder.
func (w *sessionWriter) SetError(err error) {
	if rec, ok := w.ResponseWriter.(interface{ SetError(error) }); ok {
		rec.SetError(err)
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
