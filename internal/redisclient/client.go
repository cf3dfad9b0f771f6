package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ChangesChannel is the pub/sub channel carrying change notifications
const ChangesChannel = "backoffice:changes"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func idempotencyKey(key string) string {
	return "idempotency:" + key
}

func revokedKey(tokenID string) string {
	return "revoked:" + tokenID
}

// claimAttempts bounds the SETNX/GET race with an expiring key
const claimAttempts = 3

// ClaimIdempotencyKey tries to take key for a new request. When the key is
// already taken, claimed is false and result holds the id stored by
// CompleteIdempotencyKey, or "" while the first request is still running.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (result string, claimed bool, err error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		ok, err := c.rdb.SetNX(ctx, idempotencyKey(key), "", ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("claim idempotency key: %w", err)
		}
		if ok {
			return "", true, nil
		}

		result, err = c.rdb.Get(ctx, idempotencyKey(key)).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("read idempotency key: %w", err)
		}
		return result, false, nil
	}
	return "", false, fmt.Errorf("claim idempotency key %s: gave up after %d attempts", key, claimAttempts)
}

// CompleteIdempotencyKey stores the id produced for key
func (c *Client) CompleteIdempotencyKey(ctx context.Context, key, result string, ttl time.Duration) error {
	return c.rdb.Set(ctx, idempotencyKey(key), result, ttl).Err()
}

// ReleaseIdempotencyKey frees key after a failed request so it can be retried
func (c *Client) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, idempotencyKey(key)).Err()
}

// RevokeToken blocks a session token until it would have expired anyway
func (c *Client) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

// IsTokenRevoked reports whether tokenID was revoked
func (c *Client) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PublishChange forwards a serialized event to every change subscriber
func (c *Client) PublishChange(ctx context.Context, payload []byte) error {
	return c.rdb.Publish(ctx, ChangesChannel, payload).Err()
}

// SubscribeChanges streams change payloads until ctx is done. The returned
// channel is closed when the subscription ends.
func (c *Client) SubscribeChanges(ctx context.Context) (<-chan string, error) {
	sub := c.rdb.Subscribe(ctx, ChangesChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", ChangesChannel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
