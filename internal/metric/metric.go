package metric

import "github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/protocol"

// PageviewsByDay 每日浏览量
type PageviewsByDay struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// VisitorsByDay 每日独立访客
type VisitorsByDay struct {
	Date     string `json:"date"`
	Visitors int64  `json:"visitors"`
}

// TopPage 热门页面
type TopPage struct {
	Pathname string `json:"pathname"`
	Count    int64  `json:"count"`
}

// TrafficSource 流量来源
type TrafficSource struct {
	Source   string `json:"source"`
	Visitors int64  `json:"visitors"`
}

// VisitorsByCountry 按国家统计的访客
type VisitorsByCountry struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	Visitors    int64  `json:"visitors"`
}

// EngagementStats 参与度指标
type EngagementStats struct {
	BounceRate         float64 `json:"bounceRate"`
	TotalSessions      int64   `json:"totalSessions"`
	BouncedSessions    int64   `json:"bouncedSessions"`
	AvgPagesPerSession float64 `json:"avgPagesPerSession"`
	NewVisitors        int64   `json:"newVisitors"`
	ReturningVisitors  int64   `json:"returningVisitors"`
}

// DirectSource 无来源标记的流量
const DirectSource = "Direct"

// ToPageviewsByDay 行形状: [date, count]
func ToPageviewsByDay(rows []protocol.Row) []PageviewsByDay {
	items := make([]PageviewsByDay, 0, len(rows))
	for _, row := range rows {
		items = append(items, PageviewsByDay{Date: row.String(0), Count: row.Int(1)})
	}
	return items
}

// ToVisitorsByDay 行形状: [date, visitors]
func ToVisitorsByDay(rows []protocol.Row) []VisitorsByDay {
	items := make([]VisitorsByDay, 0, len(rows))
	for _, row := range rows {
		items = append(items, VisitorsByDay{Date: row.String(0), Visitors: row.Int(1)})
	}
	return items
}

// ToTopPages 行形状: [pathname, count]
func ToTopPages(rows []protocol.Row) []TopPage {
	items := make([]TopPage, 0, len(rows))
	for _, row := range rows {
		items = append(items, TopPage{Pathname: row.String(0), Count: row.Int(1)})
	}
	return items
}

// ToTrafficSources 行形状: [source, visitors]，空来源归为 Direct
func ToTrafficSources(rows []protocol.Row) []TrafficSource {
	items := make([]TrafficSource, 0, len(rows))
	for _, row := range rows {
		source := row.String(0)
		if source == "" {
			source = DirectSource
		}
		items = append(items, TrafficSource{Source: source, Visitors: row.Int(1)})
	}
	return items
}

// ToVisitorsByCountry 行形状: [country, countryCode, visitors]
func ToVisitorsByCountry(rows []protocol.Row) []VisitorsByCountry {
	items := make([]VisitorsByCountry, 0, len(rows))
	for _, row := range rows {
		items = append(items, VisitorsByCountry{
			Country:     row.String(0),
			CountryCode: row.String(1),
			Visitors:    row.Int(2),
		})
	}
	return items
}

// ScalarInt 读取单值查询结果（第一行第一列）
func ScalarInt(result *protocol.QueryResult) int64 {
	return result.First().Int(0)
}

// ScalarFloat 读取单值查询结果
func ScalarFloat(result *protocol.QueryResult) float64 {
	return result.First().Float(0)
}

// NewVsReturning 行形状: [visitorType, count]，缺失的类别为 0
func NewVsReturning(rows []protocol.Row) (newVisitors, returningVisitors int64) {
	for _, row := range rows {
		switch row.String(0) {
		case "New":
			newVisitors = row.Int(1)
		case "Returning":
			returningVisitors = row.Int(1)
		}
	}
	return newVisitors, returningVisitors
}
