package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/pkg/log"
	"github.com/pribylovaa/photo-sharing/internal/rolegate"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// Create добавляет комментарий к существующему фото.
//
// Ошибки:
//   - nil автор или пустой текст: ErrInvalidArgument;
//   - фото нет: ErrPhotoNotFound.
func (s *Service) Create(ctx context.Context, author *models.Account, photoID int64, content string) (*models.Comment, error) {
	const op = "comments.comments.Create"

	content = strings.TrimSpace(content)
	if author == nil || content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	lg := log.From(ctx).With(slog.String("op", op), slog.Int64("photo_id", photoID), slog.Int64("author_id", author.ID))

	if err := s.ensurePhoto(ctx, photoID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, err := s.comments.CreateComment(ctx, models.Comment{
		PhotoID:  photoID,
		AuthorID: author.ID,
		Content:  content,
	})
	if err != nil {
		lg.Error("comment_create_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	lg.Info("comment_created", slog.String("comment_id", c.ID))

	return c, nil
}

// Update меняет текст комментария. Изменять может только автор: rolegate.ErrForbidden.
func (s *Service) Update(ctx context.Context, actor *models.Account, id, content string) (*models.Comment, error) {
	const op = "comments.comments.Update"

	content = strings.TrimSpace(content)
	if actor == nil || content == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	cur, err := s.comments.CommentByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	if cur.AuthorID != actor.ID {
		log.From(ctx).Warn("comment_update_forbidden",
			slog.String("op", op),
			slog.String("comment_id", cur.ID),
			slog.Int64("actor_id", actor.ID),
		)
		return nil, fmt.Errorf("%s: %w", op, rolegate.ErrForbidden)
	}

	upd, err := s.comments.UpdateComment(ctx, cur.ID, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	return upd, nil
}

// Delete удаляет комментарий. Разрешено admin и moderator: rolegate.RequireModerator.
func (s *Service) Delete(ctx context.Context, actor *models.Account, id string) error {
	const op = "comments.comments.Delete"

	if _, err := rolegate.RequireModerator(actor); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.comments.DeleteComment(ctx, strings.TrimSpace(id)); err != nil {
		return fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	log.From(ctx).Info("comment_deleted",
		slog.String("op", op),
		slog.String("comment_id", id),
		slog.Int64("actor_id", actor.ID),
	)

	return nil
}

// List возвращает комментарии фото по возрастанию created_at.
func (s *Service) List(ctx context.Context, photoID int64) ([]models.Comment, error) {
	const op = "comments.comments.List"

	if err := s.ensurePhoto(ctx, photoID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.comments.ListByPhoto(ctx, photoID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapStorageError(err))
	}

	return items, nil
}

func (s *Service) ensurePhoto(ctx context.Context, photoID int64) error {
	if photoID <= 0 {
		return ErrPhotoNotFound
	}

	if _, err := s.photos.PhotoByID(ctx, photoID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrPhotoNotFound
		}

		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return nil
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
