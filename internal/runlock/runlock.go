package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ymhc/dailyemail/internal/config"
)

// ErrAlreadySent is returned when another run already claimed the day.
var ErrAlreadySent = errors.New("daily email already claimed for this date")

const keyPrefix = "dailyemail:sent:"

// Guard claims a calendar day so overlapping scheduler triggers send once.
type Guard interface {
	Acquire(ctx context.Context, day time.Time) error
	Release(ctx context.Context, day time.Time) error
}

// Key returns the redis key for day.
func Key(day time.Time) string {
	return keyPrefix + day.Format(time.DateOnly)
}

// Noop is the Guard used when no redis is configured. Every run proceeds.
type Noop struct{}

func (Noop) Acquire(context.Context, time.Time) error { return nil }
func (Noop) Release(context.Context, time.Time) error { return nil }

// Redis is a Guard backed by SET NX with an expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedis creates a new Redis guard. The client connects on first use, so
// constructing a guard never touches the network.
func NewRedis(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     2,
		MaxRetries:   1,
	})

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 20 * time.Hour
	}

	return &Redis{client: client, ttl: ttl, now: time.Now}
}

// Acquire claims day, or returns ErrAlreadySent if it was already claimed.
func (r *Redis) Acquire(ctx context.Context, day time.Time) error {
	ok, err := r.client.SetNX(ctx, Key(day), r.now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to claim %s: %w", Key(day), err)
	}
	if !ok {
		return ErrAlreadySent
	}
	return nil
}

// Release drops the claim on day so a later trigger can try again.
func (r *Redis) Release(ctx context.Context, day time.Time) error {
	return r.client.Del(ctx, Key(day)).Err()
}

// Close closes the underlying client
func (r *Redis) Close() error {
	return r.client.Close()
}
