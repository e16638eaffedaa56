package locations

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startRedis starts a throwaway Redis and returns its address.
func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisMemoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	rdb := OpenRedis(startRedis(ctx, t), "", 0)
	require.NotNil(t, rdb)
	defer rdb.Close()

	memo := NewRedisMemo(rdb, "")
	_, ok, err := memo.Get(ctx, paris.GeonameID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, memo.Put(ctx, paris.GeonameID, 99))
	id, ok, err := memo.Get(ctx, paris.GeonameID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(99), id)

	// A second cache sharing the hash never reaches its sink.
	sink := newFakeSink()
	got, err := NewCache(sink, WithSharedMemo(NewRedisMemo(rdb, DefaultRedisKey))).GetOrCreate(ctx, paris)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got)
	assert.Zero(t, sink.finds)
}

func TestRedisMemoScopesAreIsolated(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	rdb := OpenRedis(startRedis(ctx, t), "", 0)
	require.NotNil(t, rdb)
	defer rdb.Close()

	before := NewRedisMemo(rdb, ScopedRedisKey("", "old-db"))
	require.NoError(t, before.Put(ctx, paris.GeonameID, 99))

	// After a database reset the sink has a new instance id, and ids minted
	// against the old database are not returned.
	sink := newFakeSink()
	after := NewCache(sink, WithSharedMemo(NewRedisMemo(rdb, ScopedRedisKey("", "new-db"))))
	got, err := after.GetOrCreate(ctx, paris)
	require.NoError(t, err)
	assert.Equal(t, int64(101), got)
	assert.Len(t, sink.created, 1)

	id, ok, err := before.Get(ctx, paris.GeonameID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(99), id)
}

func TestOpenRedisDisabled(t *testing.T) {
	assert.Nil(t, OpenRedis("", "", 0))
}
