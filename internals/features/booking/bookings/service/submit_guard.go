package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// compare-and-delete: only the holder's token releases the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSubmitGuard holds a short-lived SET NX key per submit. Redis errors
// fail open: the database transaction and unique index still decide.
type RedisSubmitGuard struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisSubmitGuard(rdb redis.UniversalClient, ttl time.Duration) *RedisSubmitGuard {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisSubmitGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisSubmitGuard) Acquire(ctx context.Context, key string) (func(), bool) {
	noop := func() {}
	if g == nil || g.rdb == nil {
		return noop, true
	}

	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("submit guard unavailable, continuing without it")
		return noop, true
	}
	if !ok {
		return nil, false
	}

	return func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, g.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("submit guard release failed, key will expire")
		}
	}, true
}
