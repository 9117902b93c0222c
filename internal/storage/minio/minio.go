// minio предоставляет реализацию storage.ObjectStorage на базе MinIO/S3.
// minio.go — конструктор клиента: нормализует endpoint, выбирает Secure по схеме
// и проверяет наличие бакета.
// objects.go — загрузка и удаление содержимого фотографий.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// Objects — адаптер MinIO для содержимого фотографий.
type Objects struct {
	s3     config.S3Config
	photos config.PhotosConfig
	client *mclient.Client
}

// New создаёт клиент MinIO и выполняет fail-fast-проверку бакета.
func New(ctx context.Context, s3 config.S3Config, photos config.PhotosConfig) (*Objects, error) {
	const op = "storage.minio.New"

	endpoint, secure := normalizeEndpoint(s3.Endpoint)

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(s3.RootUser, s3.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o := &Objects{s3: s3, photos: photos, client: client}
	if err := o.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return o, nil
}

// Ping проверяет доступность бакета.
func (o *Objects) Ping(ctx context.Context) error {
	exists, err := o.client.BucketExists(ctx, o.s3.Bucket)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("bucket %q does not exist", o.s3.Bucket)
	}

	return nil
}

// normalizeEndpoint убирает схему из endpoint: minio-go принимает только host:port.
func normalizeEndpoint(raw string) (endpoint string, secure bool) {
	endpoint = raw
	secure = strings.HasPrefix(raw, "https://")

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	return endpoint, secure
}

var _ storage.ObjectStorage = (*Objects)(nil)
