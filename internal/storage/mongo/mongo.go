// mongo предоставляет реализацию storage.CommentStorage на базе MongoDB.
// mongo.go — подключение, проверка и индексы.
// comments.go — операции с комментариями к фотографиям.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pribylovaa/photo-sharing/internal/clock"
	"github.com/pribylovaa/photo-sharing/internal/config"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

const commentsCollection = "comments"

// Mongo — тонкий адаптер для подключения и коллекции комментариев.
type Mongo struct {
	client   *mongodriver.Client
	comments *mongodriver.Collection
	clock    clock.Clock
}

// New подключается к MongoDB, проверяет соединение и создаёт индексы.
// Имя базы берётся из пути URI, иначе из cfg.Database.
func New(ctx context.Context, cfg config.MongoConfig, clk clock.Clock) (*Mongo, error) {
	const op = "storage.mongo.New"

	if cfg.URL == "" {
		return nil, fmt.Errorf("%s: empty mongo url", op)
	}

	if clk == nil {
		clk = clock.Real{}
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	db := cli.Database(databaseFromURI(cfg.URL, cfg.Database))

	m := &Mongo{
		client:   cli,
		comments: db.Collection(commentsCollection),
		clock:    clk,
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return m, nil
}

// Ping проверяет доступность primary.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes: список комментариев фото — photo_id + created_at(asc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.comments.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "photo_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("photo_created_asc"),
	})
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы из пути URI; если его нет — fallback.
func databaseFromURI(uri, fallback string) string {
	if u, err := url.Parse(uri); err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return fallback
}

var _ storage.CommentStorage = (*Mongo)(nil)
