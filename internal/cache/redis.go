package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisNamespace = "kanza"

// RedisStore shares the tag index between replicas. Values live under
// namespaced keys with the configured TTL; each tag is a Redis set of the
// keys to drop on invalidation.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := s.client.Get(ctx, redisNamespace+":v:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, tags ...string) {
	if err := s.client.Set(ctx, redisNamespace+":v:"+key, payload, s.ttl).Err(); err != nil {
		return
	}
	for _, tag := range tags {
		tagKey := redisNamespace + ":t:" + tag
		_ = s.client.SAdd(ctx, tagKey, key).Err()
		// Tag sets outlive their members slightly so a stale index entry
		// only causes a harmless extra DEL.
		_ = s.client.Expire(ctx, tagKey, s.ttl+time.Minute).Err()
	}
}

func (s *RedisStore) Invalidate(ctx context.Context, tags ...string) {
	for _, tag := range tags {
		tagKey := redisNamespace + ":t:" + tag
		keys, err := s.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			continue
		}
		for _, key := range keys {
			_ = s.client.Del(ctx, redisNamespace+":v:"+key).Err()
		}
		_ = s.client.Del(ctx, tagKey).Err()
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
