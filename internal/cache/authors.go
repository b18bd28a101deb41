// Package cache кэширует авторов в Redis по схеме cache-aside.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/UkralStul/forum-service/internal/domain"
	"github.com/UkralStul/forum-service/internal/storage"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "forum:author:"
	genPrefix = "forum:author-gen:"
)

// AuthorCache реализует storage.AuthorSource поверх Redis.
// Ошибки Redis не ломают запрос: при любой проблеме читаем из источника.
type AuthorCache struct {
	client *redis.Client
	next   storage.AuthorSource
	ttl    time.Duration
	log    *slog.Logger
}

// NewAuthorCache создает кэш, который при промахе обращается к next.
func NewAuthorCache(client *redis.Client, next storage.AuthorSource, ttl time.Duration, log *slog.Logger) *AuthorCache {
	if log == nil {
		log = slog.Default()
	}
	return &AuthorCache{client: client, next: next, ttl: ttl, log: log}
}

// Connect разбирает адрес вида redis://host:port/db или host:port и проверяет соединение.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func key(id string) string {
	return keyPrefix + id
}

func genKey(id string) string {
	return genPrefix + id
}

func (c *AuthorCache) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	result := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}

	missing := ids
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.WarnContext(ctx, "author cache read failed", "err", err)
	} else {
		missing = missing[:0:0]
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var u domain.User
			if err := json.Unmarshal([]byte(s), &u); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			result[ids[i]] = &u
		}
	}

	if len(missing) == 0 {
		return result, nil
	}
	if err != nil {
		// Redis недоступен, идем сразу в источник
		return c.fetch(ctx, missing, result)
	}
	return c.fetchAndStore(ctx, missing, result)
}

func (c *AuthorCache) fetch(ctx context.Context, ids []string, into map[string]*domain.User) (map[string]*domain.User, error) {
	fetched, err := c.next.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for id, u := range fetched {
		into[id] = u
	}
	return into, nil
}

// fetchAndStore читает промахи из источника и кладет их в кэш под WATCH
// на ключах поколений. Invalidate, случившийся между чтением и записью,
// сдвигает поколение, и устаревшая запись отбрасывается.
func (c *AuthorCache) fetchAndStore(ctx context.Context, ids []string, into map[string]*domain.User) (map[string]*domain.User, error) {
	gens := make([]string, len(ids))
	for i, id := range ids {
		gens[i] = genKey(id)
	}

	var (
		fetched  map[string]*domain.User
		fetchErr error
		watched  bool
	)
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		watched = true
		fetched, fetchErr = c.next.GetUsersByIDs(ctx, ids)
		if fetchErr != nil {
			return fetchErr
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for id, u := range fetched {
				b, err := json.Marshal(u)
				if err != nil {
					continue
				}
				pipe.Set(ctx, key(id), b, c.ttl)
			}
			return nil
		})
		return err
	}, gens...)

	if !watched {
		c.log.WarnContext(ctx, "author cache watch failed", "err", err)
		return c.fetch(ctx, ids, into)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		c.log.DebugContext(ctx, "author cache write skipped, concurrent invalidation")
	default:
		c.log.WarnContext(ctx, "author cache write failed", "err", err)
	}

	for id, u := range fetched {
		into[id] = u
	}
	return into, nil
}

// Invalidate удаляет авторов из кэша после изменения или удаления пользователя
// и сдвигает их поколение, чтобы параллельное чтение не вернуло старую запись.
func (c *AuthorCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		for _, id := range ids {
			pipe.Incr(ctx, genKey(id))
			pipe.Expire(ctx, genKey(id), c.ttl)
		}
		return nil
	})
	return err
}
