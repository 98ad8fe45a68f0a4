package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"geo-pma/internal/feature"
	"geo-pma/internal/ingest"
	"geo-pma/internal/join"
	"geo-pma/internal/logger"
	"geo-pma/internal/metrics"
	"geo-pma/internal/pmafile"
	"geo-pma/internal/pmaformat"
	"geo-pma/internal/publish"
)

// Archiver：运行归档（ingest.Archive 实现）
type Archiver interface {
	BeginRun(ctx context.Context) (int64, error)
	WriteLines(ctx context.Context, runID int64, kind feature.Kind, lines []string) error
	FinishRun(ctx context.Context, runID int64, status string) error
}

type Result struct {
	RunID    int64
	Reports  []pmafile.Report
	Failed   []feature.Kind
	Manifest *publish.Manifest
}

// Run：拉取全部图层后执行转换；拉取或解码失败时不写出任何文件
func Run(ctx context.Context, src Source, opts Options) (*Result, error) {
	c, err := FetchAll(ctx, src)
	if err != nil {
		return nil, err
	}
	return Convert(ctx, c, opts)
}

// Records 返回某输出种类的记录（连接结果由调用方传入）
func (c *Collections) Records(k feature.Kind, complete []feature.CompleteThreshold) []feature.Record {
	switch k {
	case feature.KindAirport:
		return feature.AsRecords(c.Airports)
	case feature.KindVOR:
		return feature.AsRecords(c.VORs)
	case feature.KindNDB:
		return feature.AsRecords(c.NDBs)
	case feature.KindWaypoint:
		return feature.AsRecords(c.Waypoints)
	case feature.KindThreshold:
		return feature.AsRecords(c.Thresholds)
	case feature.KindRunway:
		return feature.AsRecords(c.Runways)
	case feature.KindCompleteThreshold:
		return feature.AsRecords(complete)
	}
	return nil
}

// 文档注释：连接、渲染并写出
// 背景：核心流程单线程顺序执行；每个输出文件只由一个 Writer 写入。
// 约束：
//   - 连接失败（机场代码过短）整体失败，不写出任何文件；
//   - 单个种类写出失败打印 "Something went wrong: <err>" 到 Stderr 并继续下一种类；
//   - 归档与上传失败只记录日志，不影响返回值。
func Convert(ctx context.Context, c *Collections, opts Options) (*Result, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	l := logger.L()
	started := time.Now()

	complete, err := join.CompleteThresholds(c.Thresholds, c.Runways, c.Airports)
	if err != nil {
		return nil, err
	}
	l.Info("join_done", "thresholds", len(c.Thresholds), "runways", len(c.Runways), "airports", len(c.Airports), "complete", len(complete))

	res := &Result{}
	archive := opts.Archive
	if archive != nil {
		if res.RunID, err = archive.BeginRun(ctx); err != nil {
			l.Error("archive_begin_error", "err", err)
			archive = nil
		}
	}

	w := pmafile.NewWriter(opts.OutputDir, opts.Policy)
	archiveOK := true
	for _, out := range Outputs() {
		lines, skipped := pmaformat.Lines(c.Records(out.Kind, complete))
		metrics.LinesSkippedTotal.WithLabelValues(out.Kind.String()).Add(float64(skipped))
		rep, err := w.WriteLines(out.Kind, lines)
		rep.Skipped = skipped
		if err != nil {
			fmt.Fprintf(stderr, "Something went wrong: %v\n", err)
			l.Error("pma_write_error", "kind", out.Kind.String(), "err", err)
			res.Failed = append(res.Failed, out.Kind)
			continue
		}
		fmt.Fprintln(stdout, out.Message)
		res.Reports = append(res.Reports, rep)
		if archive != nil {
			if err := archive.WriteLines(ctx, res.RunID, out.Kind, lines); err != nil {
				l.Error("archive_write_error", "run", res.RunID, "kind", out.Kind.String(), "err", err)
				archiveOK = false
			}
		}
	}

	if archive != nil {
		status := ingest.StatusOK
		if !archiveOK || len(res.Failed) > 0 {
			status = ingest.StatusFailed
		}
		if err := archive.FinishRun(ctx, res.RunID, status); err != nil {
			l.Error("archive_finish_error", "run", res.RunID, "err", err)
		}
	}

	if opts.Publisher != nil && len(res.Reports) > 0 {
		m, err := publish.Run(ctx, opts.Publisher, opts.PublishPrefix, started, res.RunID, res.Reports)
		if err != nil {
			l.Error("publish_error", "err", err)
		} else {
			res.Manifest = &m
		}
	}
	l.Info("run_done", "files", len(res.Reports), "failed", len(res.Failed), "duration_ms", time.Since(started).Milliseconds())
	return res, nil
}
