package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// CreatePhoto сохраняет фото и привязывает теги; отсутствующие теги создаются.
func (s *Storage) CreatePhoto(ctx context.Context, p *models.Photo) (*models.Photo, error) {
	const op = "storage.postgres.CreatePhoto"

	if p == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := *p
	out.Tags = nil

	err = tx.QueryRow(ctx, `
		INSERT INTO photos (owner_id, object_key, url, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		p.OwnerID, p.ObjectKey, p.URL, p.Description,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapPgError(err))
	}

	for _, name := range p.Tags {
		var tagID int64
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, name,
		).Scan(&tagID)
		if err != nil {
			return nil, fmt.Errorf("%s: tag %q: %w", op, name, err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO photo_tags (photo_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, out.ID, tagID)
		if err != nil {
			return nil, fmt.Errorf("%s: link tag %q: %w", op, name, err)
		}
		if tag.RowsAffected() == 1 {
			out.Tags = append(out.Tags, name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()

	return &out, nil
}

// PhotoByID возвращает фото с тегами (по алфавиту).
func (s *Storage) PhotoByID(ctx context.Context, id int64) (*models.Photo, error) {
	const op = "storage.postgres.PhotoByID"

	query := `
		SELECT p.id, p.owner_id, p.object_key, p.url, p.description, p.created_at, p.updated_at,
		       COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}')
		FROM photos p
		LEFT JOIN photo_tags pt ON pt.photo_id = p.id
		LEFT JOIN tags t ON t.id = pt.tag_id
		WHERE p.id = $1
		GROUP BY p.id`

	var p models.Photo
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.OwnerID,
		&p.ObjectKey,
		&p.URL,
		&p.Description,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Tags,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()

	return &p, nil
}

// UpdateDescription меняет описание фото владельца.
func (s *Storage) UpdateDescription(ctx context.Context, id, ownerID int64, description string) (*models.Photo, error) {
	const op = "storage.postgres.UpdateDescription"

	tag, err := s.db.Exec(ctx, `
		UPDATE photos SET description = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2`, id, ownerID, description)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	p, err := s.PhotoByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// DeletePhoto удаляет фото владельца; теги остаются в справочнике.
func (s *Storage) DeletePhoto(ctx context.Context, id, ownerID int64) (*models.Photo, error) {
	const op = "storage.postgres.DeletePhoto"

	p, err := s.PhotoByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM photos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return p, nil
}
