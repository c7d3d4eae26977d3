package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"blockverity/pkg/core"
	"blockverity/pkg/logging"
	"blockverity/pkg/storage"
	"blockverity/pkg/types"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "verity:obj:"

// CachedStore 为底层 storage.Store 加一层 Redis 存在性缓存
// 只缓存“对象存在”这一事实；封印不可变，所以缓存不需要失效。
type CachedStore struct {
	backend storage.Store
	client  *redis.Client
	ttl     time.Duration
	logger  logging.Logger
}

type Config struct {
	RedisURL string // redis://<user>:<password>@<host>:<port>/<db>
	TTL      time.Duration
}

func NewCachedStore(backend storage.Store, cfg Config, logger logging.Logger) (*CachedStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newCachedStore(backend, client, cfg.TTL, logger), nil
}

func newCachedStore(backend storage.Store, client *redis.Client, ttl time.Duration, logger logging.Logger) *CachedStore {
	if logger == nil {
		logger = logging.Noop()
	}
	return &CachedStore{
		backend: backend,
		client:  client,
		ttl:     ttl,
		logger:  logger,
	}
}

func cacheKey(hash types.Hash) string {
	return keyPrefix + string(hash)
}

// Has 先查 Redis；Redis 故障时降级为直接查底层存储
func (s *CachedStore) Has(ctx context.Context, hash types.Hash) (bool, error) {
	key := cacheKey(hash)

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		s.logger.WithField("hash", hash.Short()).Warningf("redis exists failed, falling back to backend: %v", err)
	} else if val > 0 {
		return true, nil
	}

	found, err := s.backend.Has(ctx, hash)
	if err != nil {
		return false, err
	}

	if found {
		// 异步回填，上层 ctx 取消也不影响
		go func() {
			fillCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.client.Set(fillCtx, key, "1", s.ttl).Err(); err != nil {
				s.logger.Debugf("redis fill failed: %v", err)
			}
		}()
	}
	return found, nil
}

func (s *CachedStore) Put(ctx context.Context, obj core.Object) error {
	exists, err := s.Has(ctx, obj.ID())
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.backend.Put(ctx, obj); err != nil {
		return err
	}

	// 底层写成功后才写缓存；失败只影响下一次 Has 的速度
	if err := s.client.Set(ctx, cacheKey(obj.ID()), "1", s.ttl).Err(); err != nil {
		s.logger.Debugf("redis set failed: %v", err)
	}
	return nil
}

// Get 透传，不缓存对象内容
func (s *CachedStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	return s.backend.Get(ctx, hash)
}

func (s *CachedStore) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	return s.backend.ExpandHash(ctx, prefix)
}

func (s *CachedStore) Close() error {
	return s.client.Close()
}
