package minio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// Интеграционные тесты пакета minio:
//   - поднимают MinIO через testcontainers-go и создают бакет;
//   - проверяют New (бакет есть / бакета нет), PutObject и RemoveObject.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/minio -v -race -count=1

const (
	rootUser     = "root"
	rootPassword = "rootpass"
	bucket       = "photos"
)

var testPhotos = config.PhotosConfig{
	MaxSizeBytes:        1024,
	AllowedContentTypes: []string{"image/jpeg", "image/png"},
	MaxTags:             5,
}

func startMinio(t *testing.T, createBucket bool) config.S3Config {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image: "docker.io/minio/minio:latest",
		Env: map[string]string{
			"MINIO_ROOT_USER":     rootUser,
			"MINIO_ROOT_PASSWORD": rootPassword,
		},
		Cmd:          []string{"server", "/data"},
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForListeningPort("9000/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	if createBucket {
		admin, err := mclient.New(host+":"+port.Port(), &mclient.Options{
			Creds: credentials.NewStaticV4(rootUser, rootPassword, ""),
		})
		require.NoError(t, err)
		require.NoError(t, admin.MakeBucket(ctx, bucket, mclient.MakeBucketOptions{Region: "us-east-1"}))
	}

	return config.S3Config{
		Endpoint:      fmt.Sprintf("http://%s:%s", host, port.Port()),
		RootUser:      rootUser,
		RootPassword:  rootPassword,
		Bucket:        bucket,
		PublicBaseURL: "https://cdn.example.com/photos/",
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   string
		secure bool
	}{
		{"http://localhost:9000", "localhost:9000", false},
		{"https://s3.example.com", "s3.example.com", true},
		{"localhost:9000", "localhost:9000", false},
	}

	for _, c := range cases {
		got, secure := normalizeEndpoint(c.in)
		require.Equal(t, c.want, got, c.in)
		require.Equal(t, c.secure, secure, c.in)
	}
}

func TestPutObject_Validation(t *testing.T) {
	t.Parallel()

	// Проверки выполняются до обращения к клиенту.
	o := &Objects{s3: config.S3Config{Bucket: bucket}, photos: testPhotos}
	ctx := context.Background()

	_, _, err := o.PutObject(ctx, 1, "image/jpeg", 0, bytes.NewReader(nil))
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, _, err = o.PutObject(ctx, 1, "image/jpeg", 2048, bytes.NewReader(nil))
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	_, _, err = o.PutObject(ctx, 1, "image/gif", 10, bytes.NewReader(nil))
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	require.ErrorIs(t, o.RemoveObject(ctx, ""), storage.ErrInvalidArgument)
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	o := &Objects{s3: config.S3Config{PublicBaseURL: "https://cdn/x/"}}
	require.Equal(t, "https://cdn/x/photos/1/a.jpg", o.publicURL("photos/1/a.jpg"))

	o.s3.PublicBaseURL = ""
	require.Empty(t, o.publicURL("photos/1/a.jpg"))
}

func TestIntegration_New_NoBucket(t *testing.T) {
	s3 := startMinio(t, false)

	_, err := New(context.Background(), s3, testPhotos)
	require.Error(t, err)
}

func TestIntegration_PutRemove(t *testing.T) {
	s3 := startMinio(t, true)
	ctx := context.Background()

	o, err := New(ctx, s3, testPhotos)
	require.NoError(t, err)

	body := []byte("fake-png-bytes")
	key, url, err := o.PutObject(ctx, 42, "image/png", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "photos/42/"), key)
	require.True(t, strings.HasSuffix(key, ".png"), key)
	require.Equal(t, "https://cdn.example.com/photos/"+key, url)

	info, err := o.client.StatObject(ctx, bucket, key, mclient.StatObjectOptions{})
	require.NoError(t, err)
	require.Equal(t, int64(len(body)), info.Size)
	require.Equal(t, "image/png", info.ContentType)

	require.NoError(t, o.RemoveObject(ctx, key))
	require.ErrorIs(t, o.RemoveObject(ctx, key), storage.ErrNotFound)
}
