package pmafile

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"geo-pma/internal/feature"
	"geo-pma/internal/logger"
	"geo-pma/internal/metrics"
)

// Policy：写出策略
// FallbackToWorkingDir：目标文件创建失败时改用工作目录下的裸文件名；
// AbortOnLineError：单行写入失败时中止该文件并返回错误，否则记录后继续。
type Policy struct {
	FallbackToWorkingDir bool
	AbortOnLineError     bool
}

// LenientPolicy 为默认策略
func LenientPolicy() Policy { return Policy{FallbackToWorkingDir: true} }

func StrictPolicy() Policy { return Policy{AbortOnLineError: true} }

// FileName 返回种类对应的输出文件名（aisweb_<token>.txt）
func FileName(k feature.Kind) string {
	return "aisweb_" + k.FileToken() + ".txt"
}

// Destination：dir 为已存在目录时拼接，否则返回裸文件名（工作目录）
func Destination(dir string, k feature.Kind) string {
	name := FileName(k)
	if dir == "" {
		return name
	}
	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return filepath.Join(dir, name)
	}
	return name
}

// Report：单个文件的写出结果
type Report struct {
	Kind          feature.Kind
	Path          string
	Lines         int
	Skipped       int
	Failed        int
	Substitutions int
	Bytes         int64
}

// 文档注释：按种类写出 PMA 文件
// 背景：每个种类一个文件，由单个 Writer 调用独占；行在写出前逐条转码。
// 约束：Create 为空时使用 os.Create；Logger 为空时使用默认日志器。
type Writer struct {
	Dir    string
	Policy Policy
	Create func(name string) (io.WriteCloser, error)
	Logger *slog.Logger
}

func NewWriter(dir string, p Policy) *Writer {
	return &Writer{Dir: dir, Policy: p}
}

func (w *Writer) create(name string) (io.WriteCloser, error) {
	if w.Create != nil {
		return w.Create(name)
	}
	return os.Create(name)
}

func (w *Writer) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return logger.L()
}

// 文档注释：写出已渲染的行
// 约束：
//   - 目标文件创建失败：宽松策略下记录并回退到工作目录裸文件名，严格策略直接返回错误；
//   - 单行写入失败：宽松策略下记录、计数并继续，严格策略中止该文件；
//   - 转码替换只记录告警，不视为错误。
func (w *Writer) WriteLines(kind feature.Kind, lines []string) (Report, error) {
	l := w.log()
	rep := Report{Kind: kind, Path: Destination(w.Dir, kind)}
	f, err := w.create(rep.Path)
	if err != nil {
		if !w.Policy.FallbackToWorkingDir || rep.Path == FileName(kind) {
			return rep, fmt.Errorf("create %s: %w", rep.Path, err)
		}
		l.Warn("pma_create_fallback", "path", rep.Path, "err", err)
		rep.Path = FileName(kind)
		if f, err = w.create(rep.Path); err != nil {
			return rep, fmt.Errorf("create %s: %w", rep.Path, err)
		}
	}
	label := kind.String()
	for i, line := range lines {
		b, subs := Encode(line)
		if subs > 0 {
			rep.Substitutions += subs
			metrics.SubstitutionsTotal.WithLabelValues(label).Add(float64(subs))
			l.Warn("pma_encoding_substituted", "kind", label, "line", i, "count", subs)
		}
		n, err := f.Write(b)
		rep.Bytes += int64(n)
		if err != nil {
			rep.Failed++
			metrics.LinesFailedTotal.WithLabelValues(label).Inc()
			if w.Policy.AbortOnLineError {
				_ = f.Close()
				return rep, fmt.Errorf("write %s line %d: %w", rep.Path, i, err)
			}
			l.Error("pma_line_write_error", "path", rep.Path, "line", i, "err", err)
			continue
		}
		rep.Lines++
	}
	metrics.LinesWrittenTotal.WithLabelValues(label).Add(float64(rep.Lines))
	if err := f.Close(); err != nil {
		return rep, fmt.Errorf("close %s: %w", rep.Path, err)
	}
	l.Debug("pma_file_written", "kind", label, "path", rep.Path, "lines", rep.Lines, "bytes", rep.Bytes)
	return rep, nil
}
