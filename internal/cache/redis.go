// 包 cache：基于 Redis 的 WFS 图层响应缓存，负载以 zstd 压缩存储
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "geopma:layer:"

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Compress / Decompress：EncodeAll / DecodeAll 可并发调用
func Compress(b []byte) []byte { return encoder.EncodeAll(b, make([]byte, 0, len(b)/4)) }

func Decompress(b []byte) ([]byte, error) { return decoder.DecodeAll(b, nil) }

// 文档注释：Redis 图层缓存
// 背景：GeoServer 全量图层响应较大且变化缓慢，重复运行时避免重复拉取。
// 约束：TTL<=0 时不写入；键为 geopma:layer:<layer>。
type Redis struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewRedis(rc *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rc: rc, ttl: ttl}
}

func Key(layer string) string { return keyPrefix + layer }

func (c *Redis) Get(ctx context.Context, layer string) ([]byte, bool, error) {
	b, err := c.rc.Get(ctx, Key(layer)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	body, err := Decompress(b)
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
}

func (c *Redis) Set(ctx context.Context, layer string, body []byte) error {
	if c.ttl <= 0 {
		return nil
	}
	return c.rc.Set(ctx, Key(layer), Compress(body), c.ttl).Err()
}

// Purge 删除指定图层的缓存
func (c *Redis) Purge(ctx context.Context, layers ...string) error {
	if len(layers) == 0 {
		return nil
	}
	keys := make([]string, len(layers))
	for i, l := range layers {
		keys[i] = Key(l)
	}
	return c.rc.Del(ctx, keys...).Err()
}
