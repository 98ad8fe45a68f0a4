// aisweb-fetch：将全部（或指定）WFS 图层快照到本地目录，供转换器以 -i 离线读取
package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"geo-pma/internal/aisweb"
	"geo-pma/internal/cache"
	"geo-pma/internal/feature"
	"geo-pma/internal/logger"
	"geo-pma/internal/pipeline"
	"geo-pma/internal/utils"
)

// 文档注释：简单令牌桶限流（每分钟）
// 背景：GeoServer 全量图层请求较重，控制每分钟最大请求数；超出时阻塞等待下一分钟刷新。
type minuteLimiter struct {
	capacity int
	used     int
	lastMin  int64
	mu       sync.Mutex
}

func (ml *minuteLimiter) allow() bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	nowMin := time.Now().Unix() / 60
	if ml.lastMin != nowMin {
		ml.lastMin = nowMin
		ml.used = 0
	}
	if ml.used < ml.capacity {
		ml.used++
		return true
	}
	return false
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, e := strconv.Atoi(v); e == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Info("aisweb_fetch_start")

	outDir := os.Getenv("FETCH_OUT_DIR")
	if outDir == "" {
		outDir = filepath.Join("data", "aisweb")
	}
	workers := envInt("FETCH_WORKERS", 3)
	limiter := &minuteLimiter{capacity: envInt("FETCH_RATE_LIMIT_PER_MIN", 30)}

	// 参数为图层名/种类名；为空时拉取全部
	kinds := feature.LayerKinds()
	if len(os.Args) > 1 {
		kinds = kinds[:0:0]
		for _, a := range os.Args[1:] {
			k, ok := feature.ParseKind(a)
			if !ok || k.Layer() == "" {
				l.Error("unknown_layer", "arg", a)
				os.Exit(1)
			}
			kinds = append(kinds, k)
		}
	}

	client := &aisweb.Client{
		BaseURL: os.Getenv("AISWEB_URL"),
		User:    os.Getenv("AISWEB_USER"),
		Pass:    os.Getenv("AISWEB_PASS"),
	}
	// 缓存可选：命中则直接落盘；FETCH_REFRESH=true 时先清除再拉取
	if ttl := envInt("FETCH_CACHE_TTL_S", 0); ttl > 0 {
		if rc := utils.OpenRedisFromEnv(); rc != nil {
			if err := utils.PingRedis(context.Background(), rc); err != nil {
				l.Error("redis_ping_error", "err", err)
			} else {
				defer rc.Close()
				rcache := cache.NewRedis(rc, time.Duration(ttl)*time.Second)
				if v, _ := strconv.ParseBool(os.Getenv("FETCH_REFRESH")); v {
					layers := make([]string, len(kinds))
					for i, k := range kinds {
						layers[i] = k.Layer()
					}
					if err := rcache.Purge(context.Background(), layers...); err != nil {
						l.Error("cache_purge_error", "err", err)
					}
				}
				client.Cache = rcache
			}
		}
	}
	timeout := time.Duration(envInt("AISWEB_TIMEOUT_S", 120)) * time.Second

	jobs := make(chan feature.Kind, len(kinds))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for k := range jobs {
				for !limiter.allow() {
					time.Sleep(250 * time.Millisecond)
				}
				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				body, err := client.Layer(ctx, k)
				cancel()
				if err == nil {
					// 落盘前校验可解码，避免把错误页写入快照
					_, err = feature.Decode(k, body)
				}
				if err == nil {
					err = pipeline.SaveLayer(outDir, k, body)
				}
				if err != nil {
					l.Error("aisweb_fetch_error", "worker", id, "layer", k.Layer(), "err", err)
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				l.Info("aisweb_fetch_ok", "worker", id, "layer", k.Layer(), "bytes", len(body))
			}
		}(i)
	}
	for _, k := range kinds {
		jobs <- k
	}
	close(jobs)
	wg.Wait()
	l.Info("aisweb_fetch_done", "total", len(kinds), "failed", failed, "dir", outDir)
	if failed > 0 {
		os.Exit(1)
	}
}
