// 包 pmaformat：将航空要素记录渲染为 PMA 导入工具使用的下划线分隔文本行
package pmaformat

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"geo-pma/internal/feature"
)

const (
	// FeetPerMeter：米转英尺系数（与 PMA 工具保持一致，勿改为精确值）
	FeetPerMeter = 3.28084
	Delimiter    = "_"
	Placeholder  = " "
)

// 文档注释：渲染单条记录
// 约束：
//   - 返回 (行, true)，行以 "\n" 结尾；无模板或被过滤时返回 ("", false)；
//   - 经纬度同为 0 的完整跑道入口视为未设置坐标，不输出；
//   - Threshold 与 Runway 仅作为连接输入，没有输出模板；
//   - 不返回错误。
func Line(rec feature.Record) (string, bool) {
	switch r := rec.(type) {
	case feature.Airport:
		return join("Aeródromos", r.Operator, strings.TrimSpace(r.Name), r.LocalityID,
			"Aeródromo", Float(r.Latitude), Float(r.Longitude), feet(r.Elevation)), true
	case feature.NavAid:
		return join(r.Type.String(), Fixed2(r.Frequency), r.Name, r.Ident,
			"Padrão", Float(r.Latitude), Float(r.Longitude), "0"), true
	case feature.NDB:
		return join(r.Subtype, r.Name, Float(r.Frequency), r.CodeID,
			"Padrão", Float(r.Latitude), Float(r.Longitude), "0"), true
	case feature.Waypoint:
		return join("Fixos", strings.ReplaceAll(r.CodeType, "_", "-"), Placeholder, r.Ident,
			"Padrão", Float(r.Latitude), Float(r.Longitude), "0"), true
	case feature.CompleteThreshold:
		if r.Latitude == 0 && r.Longitude == 0 {
			return "", false
		}
		elev := "0"
		if r.Elevation != nil {
			elev = feet(*r.Elevation)
		}
		return join(r.LocalityID, r.Surface, Float(r.Length)+"x"+Float(r.Width), r.RunwayEndID,
			"Padrão", Float(r.Latitude), Float(r.Longitude), elev), true
	case feature.Threshold, feature.Runway:
		return "", false
	default:
		panic(fmt.Sprintf("pmaformat: unhandled record type %T", rec))
	}
}

// Lines 渲染整批记录，返回输出行与被跳过的记录数
func Lines(recs []feature.Record) (lines []string, skipped int) {
	lines = make([]string, 0, len(recs))
	for _, r := range recs {
		if s, ok := Line(r); ok {
			lines = append(lines, s)
		} else {
			skipped++
		}
	}
	return lines, skipped
}

func join(fields ...string) string {
	return strings.Join(fields, Delimiter) + "\n"
}

// Float：最短可往返十进制表示，不使用指数；无穷输出 inf / -inf
func Float(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Fixed2：固定两位小数（VOR 频率）
func Fixed2(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Feet：米转英尺，向零截断并饱和到 int32；NaN 记为 0
func Feet(m float64) int32 {
	ft := m * FeetPerMeter
	switch {
	case math.IsNaN(ft):
		return 0
	case ft >= math.MaxInt32:
		return math.MaxInt32
	case ft <= math.MinInt32:
		return math.MinInt32
	}
	return int32(ft)
}

func feet(m float64) string { return strconv.FormatInt(int64(Feet(m)), 10) }
