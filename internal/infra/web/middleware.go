package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-media-relay/internal/infra/logging"
	"telegram-media-relay/internal/infra/metrics"
)

func traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get("X-Request-ID")
		if tid == "" {
			tid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", tid)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), tid)))
	})
}

func requestLog(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logging.With(r.Context(), logger).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("http_request")
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func recoverer(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logging.With(r.Context(), logger).Error().Interface("panic", rec).Msg("panic recovered")
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// requireAdmin guards the API: 401 without a usable bearer token, 403 for a bad
// token or when no secret is configured.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routePattern(r)
		if !s.auth.Enabled() {
			s.log.Error().Msg("admin jwt secret is not configured")
			metrics.IncAdminRequest(route, "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		_, err := s.auth.ParseFromRequest(r)
		switch {
		case errors.Is(err, ErrMissingToken):
			metrics.IncAdminRequest(route, "unauthorized")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		case err != nil:
			metrics.IncAdminRequest(route, "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		metrics.IncAdminRequest(route, "authorized")
		next.ServeHTTP(w, r)
	})
}

// routePattern keeps metric labels bounded by using the chi pattern, not the raw path.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
