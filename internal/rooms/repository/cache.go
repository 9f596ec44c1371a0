package repository

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix     = "rooms:id:"
	roomVersionSuffix = ":version"
	listKeyPrefix     = "rooms:list:"
	listVersionKey    = "rooms:list:version"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is the subset of a key/value store the room cache needs.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

type redisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) Cache {
	return &redisCache{rdb: rdb}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// cachedRoomRepository is a read-through cache in front of a RoomRepository.
// Entries are keyed under a version that writes bump after the store
// accepts them. A read that raced a write stores its result under the old
// version, where nothing looks it up again. Cache failures are logged and
// the store answers instead.
type cachedRoomRepository struct {
	next  RoomRepository
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedRoomRepository wraps next with cache. A nil cache or a
// non-positive ttl returns next unchanged.
func NewCachedRoomRepository(next RoomRepository, cache Cache, ttl time.Duration, log *logger.Logger) RoomRepository {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &cachedRoomRepository{next: next, cache: cache, ttl: ttl, log: log}
}

func (r *cachedRoomRepository) Create(ctx context.Context, room *model.Room) error {
	if err := r.next.Create(ctx, room); err != nil {
		return err
	}
	r.invalidate(ctx, "")
	return nil
}

func (r *cachedRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	key, ok := r.roomKey(ctx, id)
	if ok {
		var room model.Room
		if r.load(ctx, key, &room) {
			return &room, nil
		}
	}

	found, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ok {
		r.store(ctx, key, found)
	}
	return found, nil
}

func (r *cachedRoomRepository) List(ctx context.Context, filter model.RoomFilter) ([]*model.Room, error) {
	key, ok := r.listKey(ctx, filter)
	if ok {
		var rooms []*model.Room
		if r.load(ctx, key, &rooms) {
			return rooms, nil
		}
	}

	rooms, err := r.next.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if ok {
		r.store(ctx, key, rooms)
	}
	return rooms, nil
}

func (r *cachedRoomRepository) Update(ctx context.Context, id string, update *model.RoomUpdate, at time.Time) (*model.Room, error) {
	room, err := r.next.Update(ctx, id, update, at)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return room, nil
}

func (r *cachedRoomRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) (*model.Room, error) {
	room, err := r.next.SetActive(ctx, id, active, at)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return room, nil
}

func (r *cachedRoomRepository) roomKey(ctx context.Context, id string) (string, bool) {
	version, ok := r.version(ctx, roomKeyPrefix+id+roomVersionSuffix)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s%s:%s", roomKeyPrefix, id, version), true
}

func (r *cachedRoomRepository) listKey(ctx context.Context, filter model.RoomFilter) (string, bool) {
	version, ok := r.version(ctx, listVersionKey)
	if !ok {
		return "", false
	}

	raw, _ := json.Marshal(filter)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("%s%s:%x", listKeyPrefix, version, sum[:]), true
}

// version reads a version counter. It reports false when the counter
// cannot be read, so the caller bypasses the cache rather than risk
// serving an entry from before a write.
func (r *cachedRoomRepository) version(ctx context.Context, key string) (string, bool) {
	data, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		return string(data), true
	case errors.Is(err, ErrCacheMiss):
		return "0", true
	default:
		r.log.Warn("Room cache unavailable", "key", key, "error", err)
		return "", false
	}
}

func (r *cachedRoomRepository) load(ctx context.Context, key string, dst any) bool {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			r.log.Warn("Room cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.log.Warn("Room cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (r *cachedRoomRepository) store(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
		r.log.Warn("Room cache write failed", "key", key, "error", err)
	}
}

func (r *cachedRoomRepository) invalidate(ctx context.Context, id string) {
	if id != "" {
		if _, err := r.cache.Incr(ctx, roomKeyPrefix+id+roomVersionSuffix); err != nil {
			r.log.Warn("Room cache invalidation failed", "room_id", id, "error", err)
		}
	}
	if _, err := r.cache.Incr(ctx, listVersionKey); err != nil {
		r.log.Warn("Room list cache invalidation failed", "error", err)
	}
}
