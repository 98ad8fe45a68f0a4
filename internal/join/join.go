// 包 join：跑道入口 × 机场 × 跑道 的外键连接，产出 CompleteThreshold
package join

import (
	"errors"
	"fmt"

	"geo-pma/internal/feature"
	"geo-pma/internal/metrics"
)

// ErrShortLocality：机场代码不足两个字符，无法构造复合入口编号
var ErrShortLocality = errors.New("locality shorter than two characters")

// 文档注释：构建完整跑道入口
// 背景：上游三张图层仅通过 runway_pk / airport_pk 关联；机场主键缺失按 0 参与匹配。
// 约束：
//   - 每个满足 t.RunwayKey==r.RunwayKey 且 r.AirportKey==a.Key() 的三元组输出一条；
//   - 输出顺序等同于 入口 → 机场 → 跑道 的嵌套遍历，重复键产生的重复记录保留；
//   - 经纬度为 0 的入口照常连接（由格式化阶段过滤）；
//   - 任一命中的机场代码不足两字符时整体失败。
func CompleteThresholds(thresholds []feature.Threshold, runways []feature.Runway, airports []feature.Airport) ([]feature.CompleteThreshold, error) {
	byRunway := make(map[uint32][]int, len(runways))
	for i, r := range runways {
		byRunway[r.RunwayKey] = append(byRunway[r.RunwayKey], i)
	}
	var out []feature.CompleteThreshold
	for _, t := range thresholds {
		cand := byRunway[t.RunwayKey]
		if len(cand) == 0 {
			continue
		}
		for _, a := range airports {
			key := a.Key()
			for _, ri := range cand {
				r := runways[ri]
				if r.AirportKey != key {
					continue
				}
				ct, err := Complete(a, r, t)
				if err != nil {
					return nil, err
				}
				out = append(out, ct)
			}
		}
	}
	metrics.JoinedThresholds.Add(float64(len(out)))
	return out, nil
}

// Complete 由一组匹配的 机场/跑道/入口 构造单条记录
func Complete(a feature.Airport, r feature.Runway, t feature.Threshold) (feature.CompleteThreshold, error) {
	id, err := CompositeID(a.LocalityID, t.RunwayEndID)
	if err != nil {
		return feature.CompleteThreshold{}, err
	}
	var elev *float64
	if t.Elevation != nil {
		v := *t.Elevation
		elev = &v
	}
	return feature.CompleteThreshold{
		LocalityID:  a.LocalityID,
		RunwayEndID: id,
		Latitude:    t.Latitude,
		Longitude:   t.Longitude,
		Elevation:   elev,
		Surface:     r.Surface,
		Length:      r.Length,
		Width:       r.Width,
	}, nil
}

// CompositeID：机场代码末两个字符 + 入口编号（按字符而非字节截取）
func CompositeID(locality, runwayEnd string) (string, error) {
	rs := []rune(locality)
	if len(rs) < 2 {
		return "", fmt.Errorf("%w: %q", ErrShortLocality, locality)
	}
	return string(rs[len(rs)-2:]) + runwayEnd, nil
}
