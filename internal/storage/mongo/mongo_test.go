package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

const testTimeout = 10 * time.Second

// TestMain запускает MongoDB в контейнере один раз на пакет.
// Адрес прокидывается в MONGO_URL; каждый тест работает в своей базе (см. newTestMongo).
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}

	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}

	_ = os.Setenv("MONGO_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func newTestMongo(t *testing.T, clk clock.Clock) *Mongo {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	cfg := config.MongoConfig{
		URL:      os.Getenv("MONGO_URL"),
		Database: "comments_test_" + uuid.NewString(),
	}

	m, err := New(ctx, cfg, clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return m
}

func TestDatabaseFromURI(t *testing.T) {
	t.Parallel()

	require.Equal(t, "photos", databaseFromURI("mongodb://h:27017/photos", "x"))
	require.Equal(t, "x", databaseFromURI("mongodb://h:27017", "x"))
	require.Equal(t, "x", databaseFromURI("mongodb://h:27017/", "x"))
}

func TestIntegration_Comments_CRUD(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	m := newTestMongo(t, clock.Func(func() time.Time { return now }))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	c1, err := m.CreateComment(ctx, models.Comment{PhotoID: 1, AuthorID: 10, Content: "first"})
	require.NoError(t, err)
	require.NotEmpty(t, c1.ID)
	require.True(t, c1.CreatedAt.Equal(t0))

	now = t0.Add(time.Minute)
	c2, err := m.CreateComment(ctx, models.Comment{PhotoID: 1, AuthorID: 11, Content: "second"})
	require.NoError(t, err)

	_, err = m.CreateComment(ctx, models.Comment{PhotoID: 2, AuthorID: 10, Content: "other photo"})
	require.NoError(t, err)

	_, err = m.CreateComment(ctx, models.Comment{PhotoID: 1, AuthorID: 10, Content: "  "})
	require.ErrorIs(t, err, storage.ErrInvalidArgument)

	got, err := m.CommentByID(ctx, c1.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.Content)
	require.Equal(t, int64(10), got.AuthorID)

	_, err = m.CommentByID(ctx, "not-an-object-id")
	require.ErrorIs(t, err, storage.ErrNotFound)

	list, err := m.ListByPhoto(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, c1.ID, list[0].ID)
	require.Equal(t, c2.ID, list[1].ID)

	now = t0.Add(time.Hour)
	upd, err := m.UpdateComment(ctx, c1.ID, "edited")
	require.NoError(t, err)
	require.Equal(t, "edited", upd.Content)
	require.True(t, upd.UpdatedAt.Equal(now))
	require.True(t, upd.CreatedAt.Equal(t0))

	require.NoError(t, m.DeleteComment(ctx, c1.ID))
	require.ErrorIs(t, m.DeleteComment(ctx, c1.ID), storage.ErrNotFound)
	_, err = m.UpdateComment(ctx, c1.ID, "x")
	require.ErrorIs(t, err, storage.ErrNotFound)

	n, err := m.DeleteByPhoto(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	list, err = m.ListByPhoto(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, list)
}
