package feature

import (
	"encoding/json"
	"fmt"
)

// Record：六种上游要素及派生 CompleteThreshold 的封闭和类型
// 约束：仅本包内类型可实现；记录以值传递，解码后只读。
type Record interface {
	Kind() Kind
	record()
}

// 文档注释：机场（airport 图层）
// 约束：airport_pk 在旧数据中可能缺失，连接时按 0 处理；Elevation 单位为米。
type Airport struct {
	LocalityID string  `json:"localidade_id"`
	Name       string  `json:"nome"`
	Operator   string  `json:"opr"`
	Latitude   float64 `json:"latitude_dec"`
	Longitude  float64 `json:"longitude_dec"`
	Elevation  float64 `json:"elevacao"`
	AirportKey *uint32 `json:"airport_pk"`
}

// Key 返回连接用机场主键，缺失时为 0
func (a Airport) Key() uint32 {
	if a.AirportKey == nil {
		return 0
	}
	return *a.AirportKey
}

type NavAidType int

const (
	NavAidDVOR NavAidType = iota
	NavAidVOR
)

func (t NavAidType) String() string {
	if t == NavAidDVOR {
		return "DVOR"
	}
	return "VOR"
}

func (t *NavAidType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "DVOR":
		*t = NavAidDVOR
	case "VOR":
		*t = NavAidVOR
	default:
		return fmt.Errorf("unknown vortype %q", s)
	}
	return nil
}

func (t NavAidType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

type NavAid struct {
	Ident     string     `json:"ident"`
	Name      string     `json:"txtname"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Frequency float64    `json:"frequency"`
	Type      NavAidType `json:"vortype"`
}

// NDB：Subtype 为自由文本标签（tipo）
type NDB struct {
	CodeID    string  `json:"codeid"`
	Latitude  float64 `json:"geolat"`
	Longitude float64 `json:"geolong"`
	Name      string  `json:"txtname"`
	Frequency float64 `json:"valfreq"`
	Subtype   string  `json:"tipo"`
}

type Waypoint struct {
	Ident     string  `json:"ident"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	CodeType  string  `json:"codetype"`
}

// 文档注释：跑道入口（rwydirection 图层）
// 约束：Elevation 可缺失（米）；经纬度同为 0 视为未设置，格式化阶段丢弃；GroupID 仅新版数据携带。
type Threshold struct {
	RunwayEndID string   `json:"rwyendid"`
	Latitude    float64  `json:"threshlat"`
	Longitude   float64  `json:"threshlon"`
	Elevation   *float64 `json:"threshelev"`
	RunwayKey   uint32   `json:"runway_pk"`
	GroupID     *uint32  `json:"group_id"`
}

// Runway：仅作为连接与属性载体，不单独输出
type Runway struct {
	RunwayKey  uint32  `json:"runway_pk"`
	AirportKey uint32  `json:"airport_pk"`
	Surface    string  `json:"surface"`
	Length     float64 `json:"runwayleng"`
	Width      float64 `json:"width"`
}

// 文档注释：完整跑道入口（连接派生）
// 约束：RunwayEndID 为机场代码末两位字符 + 入口编号；构造后不再修改。
type CompleteThreshold struct {
	LocalityID  string
	RunwayEndID string
	Latitude    float64
	Longitude   float64
	Elevation   *float64
	Surface     string
	Length      float64
	Width       float64
}

func (Airport) Kind() Kind           { return KindAirport }
func (NavAid) Kind() Kind            { return KindVOR }
func (NDB) Kind() Kind               { return KindNDB }
func (Waypoint) Kind() Kind          { return KindWaypoint }
func (Threshold) Kind() Kind         { return KindThreshold }
func (Runway) Kind() Kind            { return KindRunway }
func (CompleteThreshold) Kind() Kind { return KindCompleteThreshold }

func (Airport) record()           {}
func (NavAid) record()            {}
func (NDB) record()               {}
func (Waypoint) record()          {}
func (Threshold) record()         {}
func (Runway) record()            {}
func (CompleteThreshold) record() {}

// AsRecords 将具体类型切片转换为 Record 切片（顺序不变）
func AsRecords[T Record](xs []T) []Record {
	out := make([]Record, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
