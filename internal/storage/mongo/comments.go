package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/photo-sharing/internal/models"
	"github.com/pribylovaa/photo-sharing/internal/storage"
)

// commentDoc — представление комментария в коллекции.
type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	PhotoID   int64              `bson:"photo_id"`
	AuthorID  int64              `bson:"author_id"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d commentDoc) model() *models.Comment {
	return &models.Comment{
		ID:        d.ID.Hex(),
		PhotoID:   d.PhotoID,
		AuthorID:  d.AuthorID,
		Content:   d.Content,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// now — MongoDB DateTime хранит миллисекунды.
func (m *Mongo) now() time.Time {
	return m.clock.Now().UTC().Truncate(time.Millisecond)
}

// CreateComment вставляет комментарий; ID и временные поля проставляются здесь.
func (m *Mongo) CreateComment(ctx context.Context, c models.Comment) (*models.Comment, error) {
	const op = "storage.mongo.CreateComment"

	if c.PhotoID <= 0 || c.AuthorID <= 0 || strings.TrimSpace(c.Content) == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	now := m.now()
	doc := commentDoc{
		PhotoID:   c.PhotoID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	res, err := m.comments.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type %T", op, res.InsertedID)
	}

	doc.ID = oid

	return doc.model(), nil
}

// CommentByID возвращает комментарий. Некорректный id трактуется как «нет такой записи».
func (m *Mongo) CommentByID(ctx context.Context, id string) (*models.Comment, error) {
	const op = "storage.mongo.CommentByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.model(), nil
}

// UpdateComment меняет текст и возвращает обновлённый комментарий.
func (m *Mongo) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	const op = "storage.mongo.UpdateComment"

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "content", Value: content},
		{Key: "updated_at", Value: m.now()},
	}}}

	var doc commentDoc
	err = m.comments.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.model(), nil
}

// DeleteComment удаляет комментарий. При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) DeleteComment(ctx context.Context, id string) error {
	const op = "storage.mongo.DeleteComment"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.comments.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteByPhoto удаляет все комментарии фотографии и возвращает их число.
func (m *Mongo) DeleteByPhoto(ctx context.Context, photoID int64) (int64, error) {
	const op = "storage.mongo.DeleteByPhoto"

	res, err := m.comments.DeleteMany(ctx, bson.D{{Key: "photo_id", Value: photoID}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.DeletedCount, nil
}

// ListByPhoto возвращает комментарии фото. Сортировка: created_at ASC, _id ASC.
func (m *Mongo) ListByPhoto(ctx context.Context, photoID int64) ([]models.Comment, error) {
	const op = "storage.mongo.ListByPhoto"

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := m.comments.Find(ctx, bson.D{{Key: "photo_id", Value: photoID}}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	items := make([]models.Comment, 0)
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, *doc.model())
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}
