package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Row 查询结果中的一行（定长元组）
type Row []any

// String 读取字符串列，null 或越界返回空字符串
func (r Row) String(i int) string {
	if i < 0 || i >= len(r) || r[i] == nil {
		return ""
	}
	switch v := r[i].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Float 读取数值列，null、NaN 或无法解析时返回 0
func (r Row) Float(i int) float64 {
	if i < 0 || i >= len(r) || r[i] == nil {
		return 0
	}
	var f float64
	switch v := r[i].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case string:
		f, _ = strconv.ParseFloat(v, 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Int 读取整数列
func (r Row) Int(i int) int64 {
	if i >= 0 && i < len(r) {
		if n, ok := r[i].(json.Number); ok {
			if v, err := n.Int64(); err == nil {
				return v
			}
		}
	}
	return int64(math.Round(r.Float(i)))
}
