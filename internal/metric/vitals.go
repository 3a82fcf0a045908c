package metric

import (
	"math"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/protocol"
)

// VitalStats 单个 web vitals 指标的聚合值
type VitalStats struct {
	Avg   float64 `json:"avg"`
	P75   float64 `json:"p75"`
	P95   float64 `json:"p95"`
	Count int64   `json:"count"`
}

// WebVitalsMetrics web vitals 汇总，TTFB 和 FID 仅在扩展模式下返回
type WebVitalsMetrics struct {
	LCP  VitalStats  `json:"lcp"`
	FCP  VitalStats  `json:"fcp"`
	CLS  VitalStats  `json:"cls"`
	INP  VitalStats  `json:"inp"`
	TTFB *VitalStats `json:"ttfb,omitempty"`
	FID  *VitalStats `json:"fid,omitempty"`
}

// Round2 保留两位小数
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToVitalStats 行形状: [avg, p75, p95, count]，无数据时全部为 0
func ToVitalStats(result *protocol.QueryResult) VitalStats {
	row := result.First()
	return VitalStats{
		Avg:   Round2(row.Float(0)),
		P75:   Round2(row.Float(1)),
		P95:   Round2(row.Float(2)),
		Count: row.Int(3),
	}
}
