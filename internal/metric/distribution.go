package metric

import (
	"math"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/protocol"
)

// DeviceTypeStats 设备类型分布
type DeviceTypeStats struct {
	DeviceType string `json:"deviceType"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

// BrowserStats 浏览器分布
type BrowserStats struct {
	Browser    string `json:"browser"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

// OSStats 操作系统分布
type OSStats struct {
	OS         string `json:"os"`
	Count      int64  `json:"count"`
	Percentage int    `json:"percentage"`
}

// DeviceDistribution 设备相关的三组分布
type DeviceDistribution struct {
	DeviceTypes      []DeviceTypeStats `json:"deviceTypes"`
	Browsers         []BrowserStats    `json:"browsers"`
	OperatingSystems []OSStats         `json:"operatingSystems"`
}

// Percentage 计算占比（0-100 的整数），total 为 0 时返回 0。
// 同一组内各项独立取整，总和不保证为 100。
func Percentage(count, total int64) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	if count >= total {
		return 100
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// Distribution 将 [label, count] 行转换为带占比的记录，
// 占比在整组数据读取完成后统一计算
func Distribution[T any](rows []protocol.Row, build func(label string, count int64, percentage int) T) []T {
	var total int64
	for _, row := range rows {
		total += row.Int(1)
	}

	items := make([]T, 0, len(rows))
	for _, row := range rows {
		count := row.Int(1)
		items = append(items, build(row.String(0), count, Percentage(count, total)))
	}
	return items
}

// ToDeviceTypes 设备类型分布
func ToDeviceTypes(rows []protocol.Row) []DeviceTypeStats {
	return Distribution(rows, func(label string, count int64, percentage int) DeviceTypeStats {
		return DeviceTypeStats{DeviceType: label, Count: count, Percentage: percentage}
	})
}

// ToBrowsers 浏览器分布
func ToBrowsers(rows []protocol.Row) []BrowserStats {
	return Distribution(rows, func(label string, count int64, percentage int) BrowserStats {
		return BrowserStats{Browser: label, Count: count, Percentage: percentage}
	})
}

// ToOperatingSystems 操作系统分布
func ToOperatingSystems(rows []protocol.Row) []OSStats {
	return Distribution(rows, func(label string, count int64, percentage int) OSStats {
		return OSStats{OS: label, Count: count, Percentage: percentage}
	})
}
