package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "idempotency:abc", idempotencyKey("abc"))
	assert.Equal(t, "revoked:jti-1", revokedKey("jti-1"))
}

var errOffline = errors.New("offline")

// vanishingKey answers every SETNX with "taken" and every GET with a miss,
// as if the key expired in between each time. No command reaches a server.
type vanishingKey struct {
	setnx int
}

func (h *vanishingKey) BeforeProcess(ctx context.Context, cmd redis.Cmder) (context.Context, error) {
	return ctx, errOffline
}

func (h *vanishingKey) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	switch c := cmd.(type) {
	case *redis.BoolCmd:
		h.setnx++
		c.SetVal(false)
		c.SetErr(nil)
	case *redis.StringCmd:
		c.SetErr(redis.Nil)
	}
	return nil
}

func (h *vanishingKey) BeforeProcessPipeline(ctx context.Context, cmds []redis.Cmder) (context.Context, error) {
	return ctx, errOffline
}

func (h *vanishingKey) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	return nil
}

func TestClaimIdempotencyKeyGivesUp(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	hook := &vanishingKey{}
	rdb.AddHook(hook)

	c := &Client{rdb: rdb}
	_, claimed, err := c.ClaimIdempotencyKey(context.Background(), "k1", time.Minute)
	require.Error(t, err)
	assert.False(t, claimed)
	assert.Equal(t, claimAttempts, hook.setnx)
}

func TestIdempotencyKeys(t *testing.T) {
	t.Skip("Integration test - requires redis")

	c, err := NewClient("localhost:6379", "", 15)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	_, claimed, err := c.ClaimIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed)

	result, claimed, err := c.ClaimIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Empty(t, result)

	require.NoError(t, c.CompleteIdempotencyKey(ctx, "k1", "ord_1", time.Minute))
	result, _, err = c.ClaimIdempotencyKey(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "ord_1", result)

	require.NoError(t, c.ReleaseIdempotencyKey(ctx, "k1"))
}

func TestTokenRevocation(t *testing.T) {
	t.Skip("Integration test - requires redis")

	c, err := NewClient("localhost:6379", "", 15)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.RevokeToken(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := c.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
