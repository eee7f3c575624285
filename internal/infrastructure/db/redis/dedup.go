package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDedupTTL comfortably exceeds the window in which Telegram redelivers
// an unacknowledged update.
const DefaultDedupTTL = 24 * time.Hour

// UpdateDeduper remembers which Telegram update ids were already claimed so a
// redelivered update (after a restart or by a second replica) is skipped.
// Key format: dedup:update:<update_id>
type UpdateDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUpdateDeduper(client *redis.Client, ttl time.Duration) *UpdateDeduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &UpdateDeduper{client: client, ttl: ttl}
}

// Claim atomically marks the update as taken. It reports false when another
// consumer claimed it first.
func (d *UpdateDeduper) Claim(ctx context.Context, updateID int) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(updateID), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}

// Release forgets a claim so the update can be retried.
func (d *UpdateDeduper) Release(ctx context.Context, updateID int) error {
	return d.client.Del(ctx, d.key(updateID)).Err()
}

func (d *UpdateDeduper) key(updateID int) string {
	return "dedup:update:" + strconv.Itoa(updateID)
}
