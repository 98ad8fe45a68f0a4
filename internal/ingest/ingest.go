// 包 ingest：运行归档写入，将每次转换产出的行批量导入 Postgres
package ingest

import (
	"context"
	"database/sql"

	"geo-pma/internal/feature"
	"geo-pma/internal/logger"
	"geo-pma/internal/metrics"
)

// BatchSize：单事务提交行数，降低锁持有与 WAL 压力
const BatchSize = 5000

const insertLine = "INSERT INTO _pma_lines(run_id,kind,seq,line) VALUES($1,$2,$3,$4)"

const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

type Archive struct {
	db *sql.DB
}

func NewArchive(db *sql.DB) *Archive { return &Archive{db: db} }

// BeginRun 新建运行记录并返回其 id
func (a *Archive) BeginRun(ctx context.Context) (int64, error) {
	var id int64
	err := a.db.QueryRowContext(ctx, "INSERT INTO _pma_runs(status) VALUES($1) RETURNING id", StatusRunning).Scan(&id)
	if err != nil {
		return 0, err
	}
	logger.L().Info("archive_run_begin", "run", id)
	return id, nil
}

// FinishRun 记录结束时间与状态
func (a *Archive) FinishRun(ctx context.Context, runID int64, status string) error {
	_, err := a.db.ExecContext(ctx, "UPDATE _pma_runs SET finished_at=now(), status=$2 WHERE id=$1", runID, status)
	return err
}

// 文档注释：写入某一种类的全部行
// 背景：按 BatchSize 分批提交，每批独立事务与预编译语句
// 异常：数据库错误直接返回，已提交批次保留（由 FinishRun 标记失败）
func (a *Archive) WriteLines(ctx context.Context, runID int64, kind feature.Kind, lines []string) error {
	label := kind.String()
	for start := 0; start < len(lines); start += BatchSize {
		end := min(start+BatchSize, len(lines))
		if err := a.writeBatch(ctx, runID, label, start, lines[start:end]); err != nil {
			return err
		}
		if end-start == BatchSize {
			logger.L().Info("archive_progress", "run", runID, "kind", label, "count", end)
		}
	}
	logger.L().Debug("archive_kind_done", "run", runID, "kind", label, "count", len(lines))
	return nil
}

// writeBatch 在单个事务内写入一批行，seq 从 start 起连续编号
func (a *Archive) writeBatch(ctx context.Context, runID int64, label string, start int, batch []string) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, insertLine)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, line := range batch {
		if _, err := stmt.ExecContext(ctx, runID, label, start+i, line); err != nil {
			return err
		}
		metrics.ArchiveRowsTotal.Inc()
	}
	return tx.Commit()
}
