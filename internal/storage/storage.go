// storage описывает контракты хранилищ: учётные записи (PostgreSQL),
// фотографии (PostgreSQL + объектное хранилище) и комментарии (MongoDB).
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/pribylovaa/photo-sharing/internal/models"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (identity).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument — нарушены ограничения запроса (тип/размер/формат).
	ErrInvalidArgument = errors.New("invalid argument")
)

// CredentialStore хранит учётные записи: одна запись на identity.
// Реализации обеспечивают атомарность чтения и записи отдельной записи.
type CredentialStore interface {
	// Create создаёт запись. Подсчёт существующих записей и вставка выполняются
	// атомарно: первая запись в хранилище получает роль admin, остальные — user.
	// Занятый identity — ErrAlreadyExists.
	Create(ctx context.Context, identity, credentialHash string) (*models.Account, error)
	// FindByIdentity — поиск по identity; ErrNotFound если записи нет.
	FindByIdentity(ctx context.Context, identity string) (*models.Account, error)
	// FindByID — поиск по ID; ErrNotFound если записи нет.
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	// Save сохраняет запись: ID == 0 — вставка, иначе обновление изменяемых полей.
	// Возвращает сохранённое состояние.
	Save(ctx context.Context, acc *models.Account) (*models.Account, error)
	// SetRefreshToken меняет только сохранённый refresh-токен (nil — отзыв).
	// Остальные поля записи не перезаписываются. ErrNotFound если записи нет.
	SetRefreshToken(ctx context.Context, id int64, tok *string) (*models.Account, error)
	// MarkEmailConfirmed выставляет только признак подтверждения e-mail.
	MarkEmailConfirmed(ctx context.Context, id int64) (*models.Account, error)
	// SetRole меняет только роль; недопустимая роль — ErrInvalidArgument.
	SetRole(ctx context.Context, id int64, role models.Role) (*models.Account, error)
	// CountAll — общее число записей.
	CountAll(ctx context.Context) (int64, error)
}

// PhotoStorage хранит метаданные фотографий и их теги.
type PhotoStorage interface {
	// CreatePhoto сохраняет фото и создаёт недостающие теги.
	CreatePhoto(ctx context.Context, p *models.Photo) (*models.Photo, error)
	// PhotoByID — ErrNotFound если фото нет.
	PhotoByID(ctx context.Context, id int64) (*models.Photo, error)
	// UpdateDescription меняет описание фото владельца; чужое или отсутствующее — ErrNotFound.
	UpdateDescription(ctx context.Context, id, ownerID int64, description string) (*models.Photo, error)
	// DeletePhoto удаляет фото владельца и возвращает удалённую запись.
	DeletePhoto(ctx context.Context, id, ownerID int64) (*models.Photo, error)
}

// ObjectStorage хранит содержимое фотографий.
type ObjectStorage interface {
	// PutObject загружает объект под новым ключом "photos/<ownerID>/<uuid><ext>".
	// Возвращает ключ и публичный URL (пустой, если публичная база не задана).
	PutObject(ctx context.Context, ownerID int64, contentType string, size int64, body io.Reader) (key, url string, err error)
	// RemoveObject удаляет объект по ключу.
	RemoveObject(ctx context.Context, key string) error
}

// CommentStorage хранит комментарии к фотографиям.
type CommentStorage interface {
	CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error)
	// CommentByID — ErrNotFound если комментария нет или id некорректен.
	CommentByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateComment(ctx context.Context, id, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	// DeleteByPhoto удаляет все комментарии фото, возвращает их число.
	DeleteByPhoto(ctx context.Context, photoID int64) (int64, error)
	// ListByPhoto — комментарии фото по возрастанию created_at.
	ListByPhoto(ctx context.Context, photoID int64) ([]models.Comment, error)
}
