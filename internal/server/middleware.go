package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/meltforce/ironlog/internal/models"
)

type contextKey int

const userKey contextKey = iota

// UserFromContext returns the user resolved by the Identity middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// Identity resolves the requesting user and stores it in the request
// context. With Tailscale attached, the login name comes from WhoIs on
// the remote address; otherwise from the X-IronLog-User header, which
// is the name-only dev login. Unknown logins are created on first use.
func (s *Server) Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login := r.Header.Get("X-IronLog-User")
		display := r.Header.Get("X-IronLog-Display-Name")

		if s.lc != nil {
			who, err := s.lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil {
				s.log.Error("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				http.Error(w, `{"error":"identity resolution failed"}`, http.StatusInternalServerError)
				return
			}
			login = who.UserProfile.LoginName
			display = who.UserProfile.DisplayName
		}

		if login == "" {
			login = "local"
			display = "Local Dev User"
		}

		user, err := s.engine.Identify(r.Context(), login, display)
		if err != nil {
			s.log.Error("identify failed", "login", login, "error", err)
			http.Error(w, `{"error":"identity resolution failed"}`, http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-IronLog-User, X-IronLog-Display-Name")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
