// 包 store: 运行归档的读取与清理，供 run-archive / run-rollback 命令使用
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"geo-pma/internal/feature"
	"geo-pma/internal/logger"

	_ "github.com/lib/pq"
)

var ErrRunNotFound = errors.New("run not found")

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Run: 一次转换运行的摘要
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Lines      int64
}

// ListRuns: 按开始时间倒序列出最近的运行
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.started_at, r.finished_at, r.status,
		       (SELECT COUNT(1) FROM _pma_lines l WHERE l.run_id = r.id)
		FROM _pma_runs r
		ORDER BY r.started_at DESC, r.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var fin sql.NullTime
		if err := rows.Scan(&r.ID, &r.StartedAt, &fin, &r.Status, &r.Lines); err != nil {
			return nil, err
		}
		if fin.Valid {
			t := fin.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRun: 最近一次成功的运行
func (s *Store) LatestRun(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM _pma_runs WHERE status='ok' ORDER BY started_at DESC, id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRunNotFound
	}
	return id, err
}

// KindCount: 某次运行中单个种类的行数
type KindCount struct {
	Kind  feature.Kind
	Lines int64
}

// Kinds: 列出某次运行归档的种类及行数；无法识别的种类名被跳过
func (s *Store) Kinds(ctx context.Context, runID int64) ([]KindCount, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT kind, COUNT(1) FROM _pma_lines WHERE run_id=$1 GROUP BY kind ORDER BY kind", runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []KindCount
	for rows.Next() {
		var name string
		var n int64
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		k, ok := feature.ParseKind(name)
		if !ok {
			logger.L().Warn("archive_unknown_kind", "run", runID, "kind", name)
			continue
		}
		out = append(out, KindCount{Kind: k, Lines: n})
	}
	return out, rows.Err()
}

// Lines: 按写出顺序读取某次运行、某种类的全部行
func (s *Store) Lines(ctx context.Context, runID int64, kind feature.Kind) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT line FROM _pma_lines WHERE run_id=$1 AND kind=$2 ORDER BY seq", runID, kind.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// 文档注释：保留最近 keep 次运行，删除其余（行数据随外键级联删除）
// 返回：删除的运行数
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, errors.New("keep must be >= 1")
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM _pma_runs
		WHERE id NOT IN (SELECT id FROM _pma_runs ORDER BY started_at DESC, id DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	logger.L().Info("archive_pruned", "keep", keep, "deleted", n)
	return n, nil
}
