// Package connlimit tracks the per-IP connection cap and per-connection
// failed-login-attempt count described in spec §4.5 and the CapError
// taxonomy entry of §7. Grounded on
// _examples/Operatorr-godot-networking-poc/api/internal/redis/client.go's
// Client/Config/NewClient wrapper shape and
// api/internal/redis/session.go's TTL-keyed counter pattern — an
// enrichment pulled from a non-teacher pack repo, since the teacher
// carries no connection-cap concern of its own (see SPEC_FULL.md §4.5).
package connlimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Limiter enforces max_client_connections per IP across however many
// loginserver processes share one Redis instance.
type Limiter struct {
	rdb *redis.Client
}

func New(cfg Config) *Limiter {
	return &Limiter{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (l *Limiter) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

func (l *Limiter) Close() error {
	return l.rdb.Close()
}

func connKey(ip string) string { return fmt.Sprintf("connlimit:conn:%s", ip) }

// TryAcquire increments the connection count for ip and reports whether it
// is still within max. On failure (including over-limit) the caller must
// not call Release. The counter carries a generous TTL as a crash-safety
// backstop, independent of Release.
func (l *Limiter) TryAcquire(ctx context.Context, ip string, max int) (bool, error) {
	key := connKey(ip)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incr conn count: %w", err)
	}
	l.rdb.Expire(ctx, key, time.Hour)
	if n > int64(max) {
		l.rdb.Decr(ctx, key)
		return false, nil
	}
	return true, nil
}

// Release decrements the connection count for ip on disconnect.
func (l *Limiter) Release(ctx context.Context, ip string) {
	l.rdb.Decr(ctx, connKey(ip))
}

func attemptKey(remoteAddr string) string { return fmt.Sprintf("connlimit:attempts:%s", remoteAddr) }

// RecordFailedAttempt increments the failed-login-attempt counter for one
// connection (keyed by its remote address) and reports the new count.
func (l *Limiter) RecordFailedAttempt(ctx context.Context, remoteAddr string) (int, error) {
	key := attemptKey(remoteAddr)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr attempt count: %w", err)
	}
	l.rdb.Expire(ctx, key, 10*time.Minute)
	return int(n), nil
}

// ClearAttempts resets the failed-login-attempt counter, called on a
// successful login.
func (l *Limiter) ClearAttempts(ctx context.Context, remoteAddr string) {
	l.rdb.Del(ctx, attemptKey(remoteAddr))
}
