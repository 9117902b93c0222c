package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
)

// Logging кладёт логгер запроса (с request_id) в контекст и пишет итоговую запись "http".
// Уровень записи зависит от статуса: 5xx — Error, 4xx — Warn, остальное — Info.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			lg := l
			if rid := r.Header.Get(HeaderRequestID); rid != "" {
				lg = lg.With(slog.String("request_id", rid))
			}

			ctx := log.Into(r.Context(), lg)
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.code()
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", sw.count),
				slog.Duration("dur", time.Since(start)),
			}
			if rc := chi.RouteContext(ctx); rc != nil && rc.RoutePattern() != "" {
				attrs = append(attrs, slog.String("route", rc.RoutePattern()))
			}

			lg.LogAttrs(ctx, statusLevel(status), "http", attrs...)
		})
	}
}

func statusLevel(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
