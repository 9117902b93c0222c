// comments содержит бизнес-логику комментариев к фотографиям.
// Создавать может любая аутентифицированная запись, изменять — только автор,
// удалять — admin или moderator.
package comments

import (
	"errors"

	"github.com/pribylovaa/photo-sharing/internal/storage"
)

var (
	// ErrNotFound — комментарий отсутствует.
	ErrNotFound = errors.New("comment not found")
	// ErrPhotoNotFound — фото, к которому относится комментарий, отсутствует.
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrInvalidArgument — пустой текст или неверные параметры.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal — ошибка хранилищ.
	ErrInternal = errors.New("internal")
)

// Service описывает бизнес-логику комментариев.
type Service struct {
	comments storage.CommentStorage
	photos   storage.PhotoStorage
}

// New создаёт Service.
func New(comments storage.CommentStorage, photos storage.PhotoStorage) *Service {
	return &Service{
		comments: comments,
		photos:   photos,
	}
}
