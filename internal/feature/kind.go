// 包 feature：GeoServer 航空要素（机场、VOR、NDB、定位点、跑道入口、跑道）的强类型记录与解码
package feature

import "strings"

// Kind：要素种类（封闭集合）
// 约束：Layer 为 WFS 图层名（派生种类为空）；FileToken 为输出文件名中的标记。
type Kind int

const (
	KindAirport Kind = iota
	KindVOR
	KindNDB
	KindWaypoint
	KindThreshold
	KindRunway
	KindCompleteThreshold
)

var kindInfo = [...]struct {
	name  string
	layer string
	token string
}{
	KindAirport:           {"airport", "airport", "airport"},
	KindVOR:               {"vor", "vor", "vor"},
	KindNDB:               {"ndb", "ndb", "ndb"},
	KindWaypoint:          {"waypoint", "waypoint", "waypoint"},
	KindThreshold:         {"threshold", "rwydirection", "rwydirection"},
	KindRunway:            {"runway", "runway_v2", "runway_v2"},
	KindCompleteThreshold: {"complete_threshold", "", "cabeceiras"},
}

func (k Kind) valid() bool { return k >= KindAirport && k <= KindCompleteThreshold }

func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindInfo[k].name
}

// Layer 返回 WFS 图层名；派生种类返回空串
func (k Kind) Layer() string {
	if !k.valid() {
		return ""
	}
	return kindInfo[k].layer
}

func (k Kind) FileToken() string {
	if !k.valid() {
		return ""
	}
	return kindInfo[k].token
}

// LayerKinds 返回需要从上游拉取的六个种类（按图层声明顺序）
func LayerKinds() []Kind {
	return []Kind{KindAirport, KindVOR, KindNDB, KindWaypoint, KindThreshold, KindRunway}
}

// ParseKind：按名称、图层名或文件标记解析种类（不区分大小写）
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	for k := KindAirport; k <= KindCompleteThreshold; k++ {
		info := kindInfo[k]
		if s == info.name || s == info.layer || s == info.token {
			return k, true
		}
	}
	return 0, false
}
