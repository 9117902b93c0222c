// cache — Redis-кэш учётных записей для проверки access-токенов.
// В кэш не попадают хэш пароля и refresh-токен: обновление по refresh-токену
// всегда читает запись из основного хранилища.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/photo-sharing/internal/models"
)

// AccountCache — минимальный контракт кэша учётных записей.
type AccountCache interface {
	// Get возвращает запись и признак её наличия в кэше.
	Get(ctx context.Context, identity string) (*models.Account, bool, error)
	// Set сохраняет запись с TTL.
	Set(ctx context.Context, acc *models.Account, ttl time.Duration) error
	// Delete удаляет запись (после любого изменения в хранилище).
	Delete(ctx context.Context, identity string) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "ps:acc:".
func NewRedisCache(ctx context.Context, redisURL, prefix string) (AccountCache, error) {
	const op = "cache.NewRedisCache"

	if prefix == "" {
		prefix = "ps:acc:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

func (c *redisCache) key(identity string) string { return c.prefix + identity }

// Храним как Redis Hash с полями: id, idn, ec (0/1), role, ca, ua (unix nano).
func (c *redisCache) Get(ctx context.Context, identity string) (*models.Account, bool, error) {
	m, err := c.rdb.HGetAll(ctx, c.key(identity)).Result()
	if err != nil {
		return nil, false, err
	}

	if len(m) == 0 {
		return nil, false, nil
	}

	id, err := strconv.ParseInt(m["id"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	ca, err := strconv.ParseInt(m["ca"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	ua, err := strconv.ParseInt(m["ua"], 10, 64)
	if err != nil {
		return nil, false, err
	}

	role := models.Role(m["role"])
	if !role.Valid() {
		return nil, false, fmt.Errorf("cache: invalid role %q", role)
	}

	return &models.Account{
		ID:             id,
		Identity:       m["idn"],
		EmailConfirmed: m["ec"] == "1",
		Role:           role,
		CreatedAt:      time.Unix(0, ca).UTC(),
		UpdatedAt:      time.Unix(0, ua).UTC(),
	}, true, nil
}

func (c *redisCache) Set(ctx context.Context, acc *models.Account, ttl time.Duration) error {
	kv := map[string]string{
		"id":   strconv.FormatInt(acc.ID, 10),
		"idn":  acc.Identity,
		"ec":   boolTo01(acc.EmailConfirmed),
		"role": string(acc.Role),
		"ca":   strconv.FormatInt(acc.CreatedAt.UnixNano(), 10),
		"ua":   strconv.FormatInt(acc.UpdatedAt.UnixNano(), 10),
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, c.key(acc.Identity), kv)
	pipe.Expire(ctx, c.key(acc.Identity), ttl)

	_, err := pipe.Exec(ctx)
	return err
}

func (c *redisCache) Delete(ctx context.Context, identity string) error {
	return c.rdb.Del(ctx, c.key(identity)).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }

func boolTo01(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
