package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/metroreserve/config"
	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache holds the seat list cache and the per-passenger selections.
type RedisCache struct {
	client       *redis.Client
	seatsTTL     time.Duration
	selectionTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, seatsTTL, selectionTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		seatsTTL,
		selectionTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, seatsTTL, selectionTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, seatsTTL: seatsTTL, selectionTTL: selectionTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetSeats returns nil, nil on a cache miss.
func (c *RedisCache) GetSeats(ctx context.Context) ([]domain.Seat, error) {
	data, err := c.client.Get(ctx, seatsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var seats []domain.Seat
	if err := json.Unmarshal(data, &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

// invalidateSeats bumps the generation and drops the snapshot in one step so
// that a refill started before the bump can never land after it.
var invalidateSeats = redis.NewScript(`
redis.call('INCR', KEYS[1])
redis.call('DEL', KEYS[2])
return 1
`)

// setSeatsIfGeneration writes the snapshot only while the generation still
// matches the one read before the seats were loaded.
var setSeatsIfGeneration = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// SeatsGeneration returns the current invalidation counter, 0 if it was
// never bumped.
func (c *RedisCache) SeatsGeneration(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, seatsGenerationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetSeats stores the snapshot if no invalidation happened since generation
// was read. It reports whether the snapshot was written.
func (c *RedisCache) SetSeats(ctx context.Context, seats []domain.Seat, generation int64) (bool, error) {
	payload, err := json.Marshal(seats)
	if err != nil {
		return false, err
	}
	written, err := setSeatsIfGeneration.Run(ctx, c.client,
		[]string{seatsGenerationKey(), seatsKey()},
		strconv.FormatInt(generation, 10), string(payload), c.seatsTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

func (c *RedisCache) InvalidateSeats(ctx context.Context) error {
	return invalidateSeats.Run(ctx, c.client, []string{seatsGenerationKey(), seatsKey()}).Err()
}

func (c *RedisCache) SelectionMembers(ctx context.Context, passengerID string) ([]domain.SeatID, error) {
	members, err := c.client.SMembers(ctx, selectionKey(passengerID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]domain.SeatID, 0, len(members))
	for _, m := range members {
		id, err := domain.ParseSeatID(m)
		if err != nil {
			// Stale entry from an older layout; skip it.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *RedisCache) InSelection(ctx context.Context, passengerID string, seat domain.SeatID) (bool, error) {
	return c.client.SIsMember(ctx, selectionKey(passengerID), seat.String()).Result()
}

func (c *RedisCache) AddToSelection(ctx context.Context, passengerID string, seat domain.SeatID) error {
	key := selectionKey(passengerID)
	if err := c.client.SAdd(ctx, key, seat.String()).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.selectionTTL).Err()
}

func (c *RedisCache) RemoveFromSelection(ctx context.Context, passengerID string, seats ...domain.SeatID) error {
	if len(seats) == 0 {
		return nil
	}
	members := make([]interface{}, len(seats))
	for i, s := range seats {
		members[i] = s.String()
	}
	return c.client.SRem(ctx, selectionKey(passengerID), members...).Err()
}

func (c *RedisCache) ClearSelection(ctx context.Context, passengerID string) error {
	return c.client.Del(ctx, selectionKey(passengerID)).Err()
}

func seatsKey() string {
	return "cache:seats"
}

func seatsGenerationKey() string {
	return "cache:seats:gen"
}

func selectionKey(passengerID string) string {
	return fmt.Sprintf("selection:%s", passengerID)
}
