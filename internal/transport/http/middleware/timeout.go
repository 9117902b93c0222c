package middleware

import (
	"context"
	"mime"
	"net/http"
	"time"
)

// Timeout навешивает deadline на запрос, если его ещё нет.
// Для multipart-загрузок берётся upload; upload <= 0 означает тот же d.
// Итоговое значение <= 0 оставляет запрос без дедлайна.
func Timeout(d, upload time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := d
			if upload > 0 && isMultipart(r) {
				limit = upload
			}

			if _, ok := r.Context().Deadline(); ok || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}
