package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"geo-pma/internal/logger"
	"geo-pma/internal/metrics"
	"geo-pma/internal/pmafile"
)

const ManifestName = "manifest.msgpack.zst"

type ManifestFile struct {
	Kind          string `msgpack:"kind"`
	Name          string `msgpack:"name"`
	Lines         int    `msgpack:"lines"`
	Skipped       int    `msgpack:"skipped"`
	Failed        int    `msgpack:"failed"`
	Substitutions int    `msgpack:"substitutions"`
	Bytes         int64  `msgpack:"bytes"`
}

type Manifest struct {
	RunID   int64          `msgpack:"run_id,omitempty"`
	Created time.Time      `msgpack:"created"`
	Files   []ManifestFile `msgpack:"files"`
}

// RunPrefix 返回 <prefix>/<UTC 时间戳>
func RunPrefix(prefix string, ts time.Time) string {
	return path.Join(prefix, ts.UTC().Format("20060102T150405Z"))
}

// 文档注释：上传一次运行的全部文件与清单
// 约束：文件按 reports 顺序上传到 RunPrefix 下，清单最后写入；任一失败立即返回。
func Run(ctx context.Context, b Backend, prefix string, ts time.Time, runID int64, reports []pmafile.Report) (Manifest, error) {
	dir := RunPrefix(prefix, ts)
	m := Manifest{RunID: runID, Created: ts.UTC()}
	for _, rep := range reports {
		name := filepath.Base(rep.Path)
		f, err := os.Open(rep.Path)
		if err != nil {
			return m, err
		}
		n, err := b.Store(ctx, path.Join(dir, name), f)
		_ = f.Close()
		if err != nil {
			return m, fmt.Errorf("publish %s: %w", name, err)
		}
		metrics.PublishBytesTotal.Add(float64(n))
		logger.L().Debug("publish_file", "object", path.Join(dir, name), "bytes", n)
		m.Files = append(m.Files, ManifestFile{
			Kind:          rep.Kind.String(),
			Name:          name,
			Lines:         rep.Lines,
			Skipped:       rep.Skipped,
			Failed:        rep.Failed,
			Substitutions: rep.Substitutions,
			Bytes:         n,
		})
	}
	n, err := b.StoreObject(ctx, path.Join(dir, ManifestName), m)
	if err != nil {
		return m, fmt.Errorf("publish manifest: %w", err)
	}
	metrics.PublishBytesTotal.Add(float64(n))
	logger.L().Info("publish_done", "prefix", dir, "files", len(m.Files))
	return m, nil
}
