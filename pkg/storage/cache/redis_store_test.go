package cache

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blockverity/pkg/core"
	"blockverity/pkg/logging"
	"blockverity/pkg/types"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SpyStore 统计底层方法被调用的次数，验证请求是否穿透了缓存
type SpyStore struct {
	hasCount int32
	putCount int32

	mu      sync.Mutex
	objects map[types.Hash][]byte
}

func NewSpyStore() *SpyStore {
	return &SpyStore{objects: make(map[types.Hash][]byte)}
}

func (s *SpyStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	atomic.AddInt32(&s.hasCount, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[hash]
	return ok, nil
}

func (s *SpyStore) Put(ctx context.Context, obj core.Object) error {
	atomic.AddInt32(&s.putCount, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.ID()] = obj.Bytes()
	return nil
}

func (s *SpyStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) { return nil, nil }
func (s *SpyStore) ExpandHash(ctx context.Context, short types.HashPrefix) (types.Hash, error) {
	return "", nil
}

type mockObject struct {
	id types.Hash
}

func (m mockObject) ID() types.Hash        { return m.id }
func (m mockObject) Bytes() []byte         { return []byte("fake data") }
func (m mockObject) Type() core.ObjectType { return core.TypeSeal }

// Redis 不可用时 Has/Put 退化为直接访问底层存储，不返回错误
func TestCachedStore_RedisDownFallsBack(t *testing.T) {
	// 端口 1 上没有 Redis，命令会立即失败
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	base, hook := test.NewNullLogger()
	spy := NewSpyStore()
	store := newCachedStore(spy, client, time.Hour, logging.Wrap(base))
	ctx := context.Background()

	obj := mockObject{id: "1111222233334444555566667777888899990000aaaabbbbccccddddeeeeffff"}

	exists, err := store.Has(ctx, obj.id)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.hasCount))
	require.NotEmpty(t, hook.AllEntries())
	assert.Contains(t, hook.AllEntries()[0].Message, "falling back to backend")

	require.NoError(t, store.Put(ctx, obj))
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.putCount))

	exists, err = store.Has(ctx, obj.id)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCachedStore_Integration(t *testing.T) {
	redisAddr := "localhost:6379"
	conn, err := net.DialTimeout("tcp", redisAddr, 1*time.Second)
	if err != nil {
		t.Skipf("Skipping Redis integration test: %v", err)
	}
	conn.Close()

	ctx := context.Background()
	spy := NewSpyStore()
	cachedStore, err := NewCachedStore(spy, Config{
		RedisURL: fmt.Sprintf("redis://%s/0", redisAddr),
		TTL:      time.Hour,
	}, nil)
	require.NoError(t, err)
	defer cachedStore.Close()

	hash := types.Hash("1111222233334444555566667777888899990000aaaabbbbccccddddeeeeffff")
	require.NoError(t, cachedStore.client.Del(ctx, cacheKey(hash)).Err())
	obj := mockObject{id: hash}

	// 未命中：底层 Has 被调用一次
	exists, err := cachedStore.Has(ctx, hash)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.hasCount))

	// 写穿：Put 内部的 Has 再穿透一次，然后写底层并写缓存
	require.NoError(t, cachedStore.Put(ctx, obj))
	assert.Equal(t, int32(1), atomic.LoadInt32(&spy.putCount))

	n, err := cachedStore.client.Exists(ctx, cacheKey(hash)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "Redis key should be set after Put")

	// 命中：不再访问底层
	exists, err = cachedStore.Has(ctx, hash)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int32(2), atomic.LoadInt32(&spy.hasCount), "Backend Has() should NOT be called on hit")
}
