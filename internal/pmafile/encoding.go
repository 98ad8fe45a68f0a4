// 包 pmafile：PMA 文本文件的 Windows-1252 转码与按种类落盘
package pmafile

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// passthrough：WHATWG windows-1252 表中与 C1 控制字符同值互映的五个码位（charmap 未收录）
func passthrough(r rune) bool {
	switch r {
	case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
		return true
	}
	return false
}

// 文档注释：UTF-8 → Windows-1252（WHATWG 映射表）
// 约束：代码页之外的字符替换为 HTML 十进制数字字符引用（&#NNNN;），返回替换次数；不返回错误。
func Encode(s string) ([]byte, int) {
	out := make([]byte, 0, len(s))
	subs := 0
	for _, r := range s {
		if passthrough(r) {
			out = append(out, byte(r))
			continue
		}
		if b, ok := charmap.Windows1252.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		subs++
		out = append(out, '&', '#')
		out = strconv.AppendInt(out, int64(r), 10)
		out = append(out, ';')
	}
	return out, subs
}

// Decode：Windows-1252 → UTF-8，用于回读与导出校验；与 Encode 互逆
func Decode(b []byte) (string, error) {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if passthrough(rune(c)) {
			sb.WriteRune(rune(c))
			continue
		}
		sb.WriteRune(charmap.Windows1252.DecodeByte(c))
	}
	return sb.String(), nil
}
