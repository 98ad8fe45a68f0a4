package migrate

import (
	"database/sql"

	"geo-pma/internal/logger"
)

// 背景：首次启用运行归档时自动建表，便于回溯每次转换的输出
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；行文本为转码前的 UTF-8
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _pma_runs (
			id BIGSERIAL PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			finished_at TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'running'
		)`,
		`CREATE TABLE IF NOT EXISTS _pma_lines (
			run_id BIGINT NOT NULL REFERENCES _pma_runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			seq INT NOT NULL,
			line TEXT NOT NULL,
			PRIMARY KEY (run_id, kind, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pma_runs_started ON _pma_runs(started_at DESC)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
