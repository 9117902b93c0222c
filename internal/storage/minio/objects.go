package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mclient "github.com/minio/minio-go/v7"

	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// PutObject проверяет тип и размер содержимого и загружает его
// под ключом "photos/<ownerID>/<uuid><ext>".
// Возвращает ключ и публичный URL (пустой, если PublicBaseURL не задан).
func (o *Objects) PutObject(ctx context.Context, ownerID int64, contentType string, size int64, body io.Reader) (string, string, error) {
	const op = "storage.minio.PutObject"

	if size <= 0 || size > o.photos.MaxSizeBytes {
		return "", "", fmt.Errorf("%s: %w: size %d", op, storage.ErrInvalidArgument, size)
	}

	if !slices.Contains(o.photos.AllowedContentTypes, contentType) {
		return "", "", fmt.Errorf("%s: %w: content type %q", op, storage.ErrInvalidArgument, contentType)
	}

	key := path.Join("photos", strconv.FormatInt(ownerID, 10), uuid.NewString()+extension(contentType))

	_, err := o.client.PutObject(ctx, o.s3.Bucket, key, body, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	return key, o.publicURL(key), nil
}

// RemoveObject удаляет объект. Отсутствующий ключ — ErrNotFound.
func (o *Objects) RemoveObject(ctx context.Context, key string) error {
	const op = "storage.minio.RemoveObject"

	if key == "" {
		return fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	if _, err := o.client.StatObject(ctx, o.s3.Bucket, key, mclient.StatObjectOptions{}); err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := o.client.RemoveObject(ctx, o.s3.Bucket, key, mclient.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (o *Objects) publicURL(key string) string {
	if o.s3.PublicBaseURL == "" {
		return ""
	}

	return strings.TrimRight(o.s3.PublicBaseURL, "/") + "/" + key
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
