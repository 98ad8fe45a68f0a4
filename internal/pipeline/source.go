// 包 pipeline：拉取六个图层 → 连接跑道入口 → 渲染并按种类写出 PMA 文件
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"geo-pma/internal/feature"
	"geo-pma/internal/pmafile"
	"geo-pma/internal/publish"
)

// Source：图层原始响应体来源（网络或本地目录）
type Source interface {
	Layer(ctx context.Context, k feature.Kind) ([]byte, error)
}

// DirSource：从本地目录读取 <dir>/<layer>.json
type DirSource struct {
	Dir string
}

// LayerFile 返回种类在目录中的快照文件路径
func LayerFile(dir string, k feature.Kind) string {
	return filepath.Join(dir, k.Layer()+".json")
}

func (s DirSource) Layer(_ context.Context, k feature.Kind) ([]byte, error) {
	if k.Layer() == "" {
		return nil, fmt.Errorf("kind %s has no WFS layer", k)
	}
	return os.ReadFile(LayerFile(s.Dir, k))
}

// SaveLayer 将响应体写入快照目录（aisweb-fetch 使用）
func SaveLayer(dir string, k feature.Kind, body []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := LayerFile(dir, k) + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, LayerFile(dir, k))
}

// Output：一个输出种类及其确认信息
type Output struct {
	Kind    feature.Kind
	Message string
}

// Outputs 返回写出顺序
func Outputs() []Output {
	return []Output{
		{feature.KindWaypoint, "Created waypoints DB."},
		{feature.KindNDB, "Created NDB DB."},
		{feature.KindVOR, "Created VOR DB."},
		{feature.KindAirport, "Created Airport DB."},
		{feature.KindCompleteThreshold, "Created Thresholds DB."},
	}
}

// Options：一次运行的配置
// Archive / Publisher 为空时跳过对应步骤；Stdout / Stderr 为空时使用进程标准输出。
type Options struct {
	OutputDir     string
	Policy        pmafile.Policy
	Archive       Archiver
	Publisher     publish.Backend
	PublishPrefix string
	Stdout        io.Writer
	Stderr        io.Writer
}
