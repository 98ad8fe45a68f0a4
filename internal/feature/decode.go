package feature

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingProperty：要素 properties 缺少必需键或其值为 null
	ErrMissingProperty = errors.New("missing required property")
	// ErrNotCollection：响应体不是 FeatureCollection（无 features 数组）
	ErrNotCollection = errors.New("not a feature collection")
)

var required = map[Kind][]string{
	KindAirport:   {"localidade_id", "nome", "opr", "latitude_dec", "longitude_dec", "elevacao"},
	KindVOR:       {"ident", "txtname", "latitude", "longitude", "frequency", "vortype"},
	KindNDB:       {"codeid", "geolat", "geolong", "txtname", "valfreq", "tipo"},
	KindWaypoint:  {"ident", "latitude", "longitude", "codetype"},
	KindThreshold: {"rwyendid", "threshlat", "threshlon", "runway_pk"},
	KindRunway:    {"runway_pk", "airport_pk", "surface", "runwayleng", "width"},
}

// RequiredProperties 返回种类的必需属性名（派生种类为空）
func RequiredProperties(k Kind) []string {
	return append([]string(nil), required[k]...)
}

type collection struct {
	Features *[]struct {
		Properties json.RawMessage `json:"properties"`
	} `json:"features"`
}

// 文档注释：将 FeatureCollection 解码为指定具体类型的记录切片
// 背景：上游偶尔返回错误页或其他图层的数据，仅靠字段缺省会静默产出零值记录。
// 约束：
//   - 每个要素必须带齐该种类全部必需属性且非 null，否则整个集合失败；
//   - 不产出部分集合；返回顺序与 features 数组顺序一致。
func DecodeAs[T Record](body []byte) ([]T, error) {
	var zero T
	kind := zero.Kind()
	var fc collection
	if err := unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	if fc.Features == nil {
		return nil, fmt.Errorf("decode %s: %w", kind, ErrNotCollection)
	}
	keys := required[kind]
	out := make([]T, 0, len(*fc.Features))
	for i, f := range *fc.Features {
		if err := checkRequired(f.Properties, keys); err != nil {
			return nil, fmt.Errorf("decode %s: feature %d: %w", kind, i, err)
		}
		var rec T
		if err := unmarshal(f.Properties, &rec); err != nil {
			return nil, fmt.Errorf("decode %s: feature %d: %w", kind, i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Decode 按种类解码并返回 Record 切片
func Decode(kind Kind, body []byte) ([]Record, error) {
	switch kind {
	case KindAirport:
		return decodeRecords[Airport](body)
	case KindVOR:
		return decodeRecords[NavAid](body)
	case KindNDB:
		return decodeRecords[NDB](body)
	case KindWaypoint:
		return decodeRecords[Waypoint](body)
	case KindThreshold:
		return decodeRecords[Threshold](body)
	case KindRunway:
		return decodeRecords[Runway](body)
	default:
		return nil, fmt.Errorf("decode: kind %s is not fetched from a layer", kind)
	}
}

func decodeRecords[T Record](body []byte) ([]Record, error) {
	xs, err := DecodeAs[T](body)
	if err != nil {
		return nil, err
	}
	return AsRecords(xs), nil
}

func checkRequired(props json.RawMessage, keys []string) error {
	var m map[string]json.RawMessage
	if len(props) == 0 || string(props) == "null" {
		if len(keys) == 0 {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrMissingProperty, keys[0])
	}
	if err := json.Unmarshal(props, &m); err != nil {
		return err
	}
	for _, k := range keys {
		v, ok := m[k]
		if !ok || string(v) == "null" {
			return fmt.Errorf("%w: %s", ErrMissingProperty, k)
		}
	}
	return nil
}

// unmarshal 在语法/类型错误时附带行列位置
func unmarshal(b []byte, out any) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}
	pos := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	switch {
	case errors.As(err, &se):
		line, char := pos(se.Offset)
		return fmt.Errorf("line %d, char %d: %w", line, char, err)
	case errors.As(err, &te):
		line, char := pos(te.Offset)
		return fmt.Errorf("line %d, char %d: %s value for %s invalid for type %s: %w", line, char, te.Value, te.Field, te.Type, err)
	default:
		return err
	}
}
