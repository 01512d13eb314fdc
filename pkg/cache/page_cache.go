package cache

import (
	"context"
	"library_portal_backend/pkg/logger"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	pageKeyPrefix       = "page_cache:"
	generationKeyPrefix = "page_cache_gen:"
)

// PageCache 缓存已渲染的页面，按路径失效。所有操作尽力而为，失败只记日志。
// 每次 Invalidate 都会推进路径的代数；渲染前先取代数，Set 时代数已变则放弃写入，
// 避免失效之前开始的渲染把旧页面写回缓存
type PageCache interface {
	Get(ctx context.Context, path string) ([]byte, bool)
	Generation(ctx context.Context, path string) (int64, bool)
	Set(ctx context.Context, path string, generation int64, body []byte, ttl time.Duration)
	Invalidate(ctx context.Context, path string)
}

// 代数一致时才写入页面；代数键不存在视为 0
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

type RedisPageCache struct {
	Redis *redis.Client
}

func NewRedisPageCache(rdb *redis.Client) *RedisPageCache {
	return &RedisPageCache{Redis: rdb}
}

func (c *RedisPageCache) Get(ctx context.Context, path string) ([]byte, bool) {
	body, err := c.Redis.Get(ctx, pageKeyPrefix+path).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Log.Warn("page cache read failed", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return body, true
}

// Generation 读取失败时返回 false，调用方不应再写缓存
func (c *RedisPageCache) Generation(ctx context.Context, path string) (int64, bool) {
	gen, err := c.Redis.Get(ctx, generationKeyPrefix+path).Int64()
	if err == redis.Nil {
		return 0, true
	}
	if err != nil {
		logger.Log.Warn("page cache generation read failed", zap.String("path", path), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (c *RedisPageCache) Set(ctx context.Context, path string, generation int64, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	keys := []string{pageKeyPrefix + path, generationKeyPrefix + path}
	stored, err := setIfGeneration.Run(ctx, c.Redis, keys,
		strconv.FormatInt(generation, 10), body, ttl.Milliseconds()).Int()
	if err != nil {
		logger.Log.Warn("page cache write failed", zap.String("path", path), zap.Error(err))
		return
	}
	if stored == 0 {
		logger.Log.Debug("page cache write skipped, path invalidated during render", zap.String("path", path))
	}
}

func (c *RedisPageCache) Invalidate(ctx context.Context, path string) {
	pipe := c.Redis.TxPipeline()
	pipe.Incr(ctx, generationKeyPrefix+path)
	pipe.Del(ctx, pageKeyPrefix+path)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("page cache invalidation failed", zap.String("path", path), zap.Error(err))
	}
}

// NoopPageCache 未启用 redis 时使用
type NoopPageCache struct{}

func (NoopPageCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (NoopPageCache) Generation(context.Context, string) (int64, bool) { return 0, false }
func (NoopPageCache) Set(context.Context, string, int64, []byte, time.Duration) {}
func (NoopPageCache) Invalidate(context.Context, string) {}
