package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"geo-pma/internal/logger"
	"geo-pma/internal/migrate"
	"geo-pma/internal/store"
	"geo-pma/internal/utils"
)

// 文档注释：运行归档保留窗口
// 背景：每次转换都会归档全部输出行，按开始时间保留最近 N 次运行，其余删除（行随外键级联删除）。
// 约束：RUN_KEEP_N 默认 10，非正数忽略。
func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	keepN := 10
	if s := os.Getenv("RUN_KEEP_N"); s != "" {
		var n int
		_, _ = fmt.Sscanf(s, "%d", &n)
		if n > 0 {
			keepN = n
		}
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	n, err := store.AttachDB(db).PruneRuns(context.Background(), keepN)
	if err != nil {
		l.Error("run_rollback_error", "err", err)
		os.Exit(1)
	}
	l.Info("run_rollback_done", "keep", keepN, "deleted", n)
}
