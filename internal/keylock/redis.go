package keylock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRedisTTL    = 10 * time.Second
	DefaultRedisPrefix = "courtbook:lock:"

	minRetryDelay  = 5 * time.Millisecond
	maxRetryDelay  = 100 * time.Millisecond
	releaseTimeout = 2 * time.Second
)

// releaseScript deletes the key only while it still carries our token, so an
// expired holder cannot release a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions tunes a Redis locker. Zero values take the defaults.
type RedisOptions struct {
	TTL    time.Duration
	Prefix string
}

// Redis is a Locker shared by every process pointing at the same Redis.
// A key is held with SET NX and expires after TTL if the holder dies.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedis(client redis.Cmdable, opts RedisOptions) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis locker requires a client")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultRedisTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, ttl: opts.TTL, prefix: opts.Prefix}, nil
}

func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := r.prefix + key
	token := uuid.NewString()
	delay := minRetryDelay

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to release redis lock")
			}
		})
	}, nil
}
