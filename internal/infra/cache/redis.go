package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const releaseTimeout = 5 * time.Second

// releaseScript удаляет ключ только если он всё ещё принадлежит владельцу.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock реализует domain.RunLock через SETNX с TTL.
type RedisLock struct {
	client *redis.Client
}

// NewRedis создаёт блокировку поверх клиента Redis.
func NewRedis(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// WithLock выполняет fn, если ключ удалось занять. Занятый ключ — acquired=false без ошибки.
// Ошибка освобождения ключа объединяется с ошибкой fn.
func (l *RedisLock) WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) (acquired bool, err error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if relErr := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); relErr != nil {
			err = errors.Join(err, fmt.Errorf("release lock %s: %w", key, relErr))
		}
	}()
	return true, fn()
}
