// photos содержит бизнес-логику фотографий: загрузку содержимого в объектное
// хранилище, метаданные и теги в PostgreSQL, изменение описания и удаление.
package photos

import (
	"errors"

	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

var (
	// ErrNotFound — фото нет или оно принадлежит другой записи.
	ErrNotFound = errors.New("photo not found")
	// ErrInvalidArgument — неверные входные параметры (тип, размер, id).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTooManyTags — тегов больше, чем разрешено конфигом.
	ErrTooManyTags = errors.New("too many tags")
	// ErrInternal — ошибка хранилищ.
	ErrInternal = errors.New("internal")
)

// Service описывает бизнес-логику фотографий.
type Service struct {
	photos   storage.PhotoStorage
	objects  storage.ObjectStorage
	comments storage.CommentStorage // может быть nil
	cfg      config.PhotosConfig
}

// New создаёт Service.
func New(photos storage.PhotoStorage, objects storage.ObjectStorage, cfg config.PhotosConfig) *Service {
	return &Service{
		photos:  photos,
		objects: objects,
		cfg:     cfg,
	}
}

// SetComments включает удаление комментариев вместе с фото.
func (s *Service) SetComments(c storage.CommentStorage) {
	s.comments = c
}
