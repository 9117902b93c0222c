// handlers — REST-обработчики: пользователи и сессии, фотографии, комментарии.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/photo-sharing/internal/comments"
	"github.com/pribylovaa/photo-sharing/internal/photos"
	"github.com/pribylovaa/photo-sharing/internal/session"
	apierrors "github.com/pribylovaa/photo-sharing/internal/transport/http/errors"
)

// Handlers агрегирует сервисы бизнес-логики.
type Handlers struct {
	Sessions *session.Service
	Photos   *photos.Service
	Comments *comments.Service

	// MaxUploadBytes ограничивает тело multipart-запроса загрузки.
	MaxUploadBytes int64
}

func New(s *session.Service, p *photos.Service, c *comments.Service, maxUploadBytes int64) *Handlers {
	return &Handlers{
		Sessions:       s,
		Photos:         p,
		Comments:       c,
		MaxUploadBytes: maxUploadBytes,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// pathID читает положительный int64 из параметра маршрута.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return 0, false
	}

	return id, true
}

type messageResponse struct {
	Message string `json:"message"`
}
