package helpers

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client with the given hooks attached.
func NewRedisClient(addr, password string, db int, hooks ...redis.Hook) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	for _, h := range hooks {
		rdb.AddHook(h)
	}
	return rdb
}

// SessionKey is the Redis hash holding a user's login session.
func SessionKey(userID string) string {
	return "user:session:" + userID
}
