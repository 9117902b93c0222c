// http собирает REST-поверхность сервиса на chi.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/handlers"
	"github.com/pribylovaa/photo-sharing/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout       time.Duration
	UploadTimeout time.Duration       // дедлайн multipart-загрузок; 0 — как Timeout
	Metrics       *middleware.Metrics // nil — метрики не собираются
	BasePath      string              // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(h *handlers.Handlers, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования
		middleware.Logging(opts.Logger),
	)
	if opts.Metrics != nil {
		root.Use(opts.Metrics.Middleware())
	}
	root.Use(middleware.Timeout(opts.Timeout, opts.UploadTimeout))

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	// users: публичные
	r.Post("/users/signup", h.Signup)
	r.Post("/users/login", h.Login)
	r.Post("/users/request_email", h.RequestEmail)
	r.Get("/users/confirmed_email/{token}", h.ConfirmedEmail)
	r.Post("/users/refresh_token", h.RefreshToken)

	// photos, comments: чтение без авторизации
	r.Get("/photos/{id}", h.GetPhoto)
	r.Get("/photos/{id}/comments", h.ListComments)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.Sessions))

		// users
		r.Post("/users/logout", h.Logout)
		r.Get("/users/me", h.Me)
		r.With(middleware.RequireRole(models.RoleAdmin)).Get("/users/admin", h.Admin)
		r.With(middleware.RequireRole(models.RoleAdmin, models.RoleModerator)).Get("/users/moderator", h.Moderator)
		r.With(middleware.RequireRole(models.RoleAdmin)).Put("/users/{id}/role", h.SetRole)

		// photos
		r.Post("/photos", h.UploadPhoto)
		r.Put("/photos/{id}", h.UpdatePhoto)
		r.Delete("/photos/{id}", h.DeletePhoto)

		// comments
		r.Post("/photos/{id}/comments", h.CreateComment)
		r.Put("/comments/{id}", h.UpdateComment)
		r.Delete("/comments/{id}", h.DeleteComment)
	})
}
