package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// cleanupTimeout ограничивает удаление объекта после неудачной записи метаданных.
const cleanupTimeout = 5 * time.Second

// UploadInput — загрузка фотографии.
type UploadInput struct {
	OwnerID     int64
	ContentType string
	Size        int64
	Body        io.Reader
	Description string
	Tags        []string
}

// Upload сохраняет содержимое в объектное хранилище, затем метаданные и теги.
// Если запись метаданных не удалась, объект удаляется.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Photo, error) {
	const op = "photos.photos.Upload"

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("owner_id", in.OwnerID))

	if in.OwnerID <= 0 || in.Body == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	tags, err := normalizeTags(in.Tags, s.cfg.MaxTags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	key, url, err := s.objects.PutObject(ctx, in.OwnerID, in.ContentType, in.Size, in.Body)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, err)
		}

		lg.Error("object_put_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	photo, err := s.photos.CreatePhoto(ctx, &models.Photo{
		OwnerID:     in.OwnerID,
		ObjectKey:   key,
		URL:         url,
		Description: strings.TrimSpace(in.Description),
		Tags:        tags,
	})
	if err != nil {
		lg.Error("photo_create_failed", slog.String("key", key), slog.String("err", err.Error()))
		s.removeObject(ctx, key)

		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidArgument, err)
		}

		return nil, fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}

	lg.Info("photo_uploaded", slog.Int64("photo_id", photo.ID), slog.Int("tags", len(photo.Tags)))

	return photo, nil
}

// PhotoByID возвращает фото по id.
func (s *Service) PhotoByID(ctx context.Context, id int64) (*models.Photo, error) {
	const op = "photos.photos.PhotoByID"

	if id <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	p, err := s.photos.PhotoByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	return p, nil
}

// UpdateDescription меняет описание фото. Только владелец, иначе ErrNotFound.
func (s *Service) UpdateDescription(ctx context.Context, ownerID, id int64, description string) (*models.Photo, error) {
	const op = "photos.photos.UpdateDescription"

	if id <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	p, err := s.photos.UpdateDescription(ctx, id, ownerID, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	return p, nil
}

// Delete удаляет фото владельца, его объект и комментарии.
// Запись удаляется первой; ошибки удаления объекта и комментариев только логируются.
func (s *Service) Delete(ctx context.Context, ownerID, id int64) error {
	const op = "photos.photos.Delete"

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("photo_id", id))

	if id <= 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	p, err := s.photos.DeletePhoto(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	s.removeObject(ctx, p.ObjectKey)

	if s.comments != nil {
		n, err := s.comments.DeleteByPhoto(ctx, p.ID)
		if err != nil {
			lg.Error("comments_delete_failed", slog.String("err", err.Error()))
		} else {
			lg.Debug("comments_deleted", slog.Int64("count", n))
		}
	}

	lg.Info("photo_deleted", slog.Int64("owner_id", ownerID))

	return nil
}

// removeObject удаляет объект независимо от отмены ctx; ошибка только логируется.
func (s *Service) removeObject(ctx context.Context, key string) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.objects.RemoveObject(wctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.From(ctx).Warn("object_remove_failed",
			slog.String("op", "photos.photos.removeObject"),
			slog.String("key", key),
			slog.String("err", err.Error()),
		)
	}
}

// normalizeTags: TrimSpace, нижний регистр, без пустых и повторов, не больше limit.
func normalizeTags(raw []string, limit int) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}

		out = append(out, t)
	}

	if limit > 0 && len(out) > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyTags, len(out), limit)
	}

	return out, nil
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrInvalidArgument):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	default:
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
