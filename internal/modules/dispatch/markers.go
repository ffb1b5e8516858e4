// README: Dispatch markers in Redis; last dispatch per booking and the awaiting-driver set.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridebook/internal/types"
)

const (
	awaitingKey       = "dispatch:awaiting"
	dispatchKeyPrefix = "dispatch:booking:%s"
	keyTTL            = 7 * 24 * time.Hour
)

type Markers struct {
	redis *redis.Client
}

func NewMarkers(redis *redis.Client) *Markers {
	return &Markers{redis: redis}
}

// RecordDispatch stores when and to whom a booking was last dispatched and clears it from awaiting.
func (m *Markers) RecordDispatch(ctx context.Context, bookingID, driverID types.ID, at time.Time) error {
	key := dispatchKey(bookingID)
	pipe := m.redis.TxPipeline()
	pipe.HSet(ctx, key, "driver_id", string(driverID), "dispatched_at", at.UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, keyTTL)
	pipe.ZRem(ctx, awaitingKey, string(bookingID))
	_, err := pipe.Exec(ctx)
	return err
}

// MarkAwaiting keeps the first time a booking was seen without a driver.
func (m *Markers) MarkAwaiting(ctx context.Context, bookingID types.ID, at time.Time) error {
	return m.redis.ZAddNX(ctx, awaitingKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: string(bookingID),
	}).Err()
}

// ListAwaiting returns the oldest awaiting bookings first.
func (m *Markers) ListAwaiting(ctx context.Context, limit int) ([]Awaiting, error) {
	if limit <= 0 {
		limit = 50
	}
	zs, err := m.redis.ZRangeWithScores(ctx, awaitingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Awaiting, 0, len(zs))
	for _, z := range zs {
		id, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected awaiting member %v", z.Member)
		}
		out = append(out, Awaiting{BookingID: types.ID(id), Since: time.Unix(int64(z.Score), 0).UTC()})
	}
	return out, nil
}

func (m *Markers) ClearAwaiting(ctx context.Context, bookingID types.ID) error {
	return m.redis.ZRem(ctx, awaitingKey, string(bookingID)).Err()
}

func dispatchKey(bookingID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(bookingID))
}
