package locations

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash RedisMemo stores its ids in.
const DefaultRedisKey = "geocode:locations"

// RedisMemo is a Memo backed by a Redis hash, so several ingestion runs can
// share geoname_id → entity id assignments.
type RedisMemo struct {
	client redis.Cmdable
	key    string
}

// NewRedisMemo returns a memo storing its entries in the hash key. An empty
// key selects DefaultRedisKey.
func NewRedisMemo(client redis.Cmdable, key string) *RedisMemo {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisMemo{client: client, key: key}
}

// ScopedRedisKey returns the hash key for ids minted by one sink instance.
// Entries written against a database that was since recreated are then
// never read back. An empty base selects DefaultRedisKey.
func ScopedRedisKey(base, scope string) string {
	if base == "" {
		base = DefaultRedisKey
	}
	if scope == "" {
		return base
	}
	return base + ":" + scope
}

// Get implements Memo.
func (m *RedisMemo) Get(ctx context.Context, geonameID int64) (int64, bool, error) {
	id, err := m.client.HGet(ctx, m.key, strconv.FormatInt(geonameID, 10)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Put implements Memo.
func (m *RedisMemo) Put(ctx context.Context, geonameID, id int64) error {
	return m.client.HSet(ctx, m.key, strconv.FormatInt(geonameID, 10), id).Err()
}

// OpenRedis returns a client for addr, or nil when addr is empty.
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}
