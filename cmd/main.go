// 程序入口：读取配置、初始化可选依赖（缓存、归档、上传）并执行一次 GeoServer → PMA 转换
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"geo-pma/internal/aisweb"
	"geo-pma/internal/cache"
	"geo-pma/internal/ingest"
	"geo-pma/internal/logger"
	"geo-pma/internal/metrics"
	"geo-pma/internal/migrate"
	"geo-pma/internal/pipeline"
	"geo-pma/internal/pmafile"
	"geo-pma/internal/publish"
	"geo-pma/internal/utils"
)

func envBool(name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(name)))
	return b
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()

	var outDir, inDir, baseURL string
	var strict bool
	flag.StringVar(&outDir, "o", os.Getenv("OUTPUT_DIR"), "output directory for the generated txt files (relative or full path)")
	flag.StringVar(&outDir, "output-directory", os.Getenv("OUTPUT_DIR"), "alias for -o")
	flag.StringVar(&inDir, "i", "", "read <layer>.json files from this directory instead of the network")
	flag.StringVar(&inDir, "input", "", "alias for -i")
	flag.StringVar(&baseURL, "url", os.Getenv("AISWEB_URL"), "WFS endpoint (default "+aisweb.DefaultBaseURL+")")
	flag.BoolVar(&strict, "strict", envBool("PMA_STRICT"), "abort a file on the first write error and never fall back to the working directory")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var src pipeline.Source
	if inDir != "" {
		l.Info("source_dir", "dir", inDir)
		src = pipeline.DirSource{Dir: inDir}
	} else {
		c := &aisweb.Client{
			BaseURL: baseURL,
			User:    os.Getenv("AISWEB_USER"),
			Pass:    os.Getenv("AISWEB_PASS"),
			HTTP: &http.Client{
				Timeout:   time.Duration(envInt("AISWEB_TIMEOUT_S", 60)) * time.Second,
				Transport: &logger.Transport{Logger: l},
			},
		}
		if ttl := envInt("FETCH_CACHE_TTL_S", 0); ttl > 0 {
			if rc := utils.OpenRedisFromEnv(); rc == nil {
				l.Info("redis_disabled")
			} else if err := utils.PingRedis(ctx, rc); err != nil {
				l.Error("redis_ping_error", "err", err)
			} else {
				defer rc.Close()
				l.Info("redis_ping_ok", "ttl_s", ttl)
				c.Cache = cache.NewRedis(rc, time.Duration(ttl)*time.Second)
			}
		}
		src = c
	}

	opts := pipeline.Options{
		OutputDir:     outDir,
		Policy:        pmafile.LenientPolicy(),
		PublishPrefix: os.Getenv("PUBLISH_PREFIX"),
	}
	if strict {
		opts.Policy = pmafile.StrictPolicy()
	}

	if envBool("ARCHIVE_ENABLE") {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
			os.Exit(1)
		}
		if err := migrate.EnsureSchema(db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		opts.Archive = ingest.NewArchive(db)
	}

	if envBool("PUBLISH_DRY_RUN") {
		opts.Publisher = publish.DryRunBackend{}
	} else if bucket := os.Getenv("PUBLISH_GCS_BUCKET"); bucket != "" {
		g, err := publish.NewGCSBackend(ctx, bucket)
		if err != nil {
			l.Error("gcs_open_error", "err", err)
			os.Exit(1)
		}
		defer g.Close()
		opts.Publisher = g
	}

	res, err := pipeline.Run(ctx, src, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Something went wrong: %v\n", err)
		l.Error("run_error", "err", err)
		os.Exit(1)
	}
	l.Debug("run_result", "run", res.RunID, "files", len(res.Reports), "failed", len(res.Failed))
	if err := metrics.WriteTextfile(os.Getenv("METRICS_TEXTFILE")); err != nil {
		l.Error("metrics_textfile_error", "err", err)
	}
}
