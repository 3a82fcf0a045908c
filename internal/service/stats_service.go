package service

import (
	"context"
	"math"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/metric"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/protocol"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/query"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Querier 执行 HogQL 查询的上游客户端
type Querier interface {
	Query(ctx context.Context, hogql string) (*protocol.QueryResult, error)
}

// TotalPageviewsResult 总浏览量
type TotalPageviewsResult struct {
	TotalPageviews int64 `json:"totalPageviews"`
}

// PageviewsByDayResult 每日浏览量
type PageviewsByDayResult struct {
	PageviewsByDay []metric.PageviewsByDay `json:"pageviewsByDay"`
	Days           int                     `json:"days"`
}

// TopPagesResult 热门页面
type TopPagesResult struct {
	TopPages []metric.TopPage `json:"topPages"`
}

// UniqueVisitorsResult 独立访客数
type UniqueVisitorsResult struct {
	UniqueVisitors int64 `json:"uniqueVisitors"`
}

// VisitorsOverTimeResult 每日独立访客
type VisitorsOverTimeResult struct {
	VisitorsOverTime []metric.VisitorsByDay `json:"visitorsOverTime"`
	Days             int                    `json:"days"`
}

// VisitorsByCountryResult 访客国家分布
type VisitorsByCountryResult struct {
	VisitorsByCountry []metric.VisitorsByCountry `json:"visitorsByCountry"`
}

// SessionResult 平均会话时长（秒）
type SessionResult struct {
	AvgSessionDuration int64 `json:"avgSessionDuration"`
}

// TrafficResult 流量来源
type TrafficResult struct {
	TrafficSources []metric.TrafficSource `json:"trafficSources"`
}

// StatsService 访问统计服务
type StatsService struct {
	logger  *zap.Logger
	querier Querier
	catalog *query.Catalog
}

// NewStatsService 创建访问统计服务
func NewStatsService(logger *zap.Logger, querier Querier, catalog *query.Catalog) *StatsService {
	if catalog == nil {
		catalog = query.Default()
	}
	return &StatsService{
		logger:  logger,
		querier: querier,
		catalog: catalog,
	}
}

// run 渲染并执行单个模板
func (s *StatsService) run(ctx context.Context, id query.ID, w query.Window) (*protocol.QueryResult, error) {
	hogql, err := s.catalog.Render(id, w)
	if err != nil {
		return nil, err
	}
	result, err := s.querier.Query(ctx, hogql)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &protocol.QueryResult{}
	}
	return result, nil
}

// runAll 并发执行多个相互独立的模板，全部完成后返回；
// 任一失败时取消其余查询并返回第一个错误
func (s *StatsService) runAll(ctx context.Context, w query.Window, ids ...query.ID) (map[query.ID]*protocol.QueryResult, error) {
	results := make([]*protocol.QueryResult, len(ids))

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, id := range ids {
		p.Go(func(ctx context.Context) error {
			result, err := s.run(ctx, id, w)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[query.ID]*protocol.QueryResult, len(ids))
	for i, id := range ids {
		byID[id] = results[i]
	}
	return byID, nil
}

// TotalPageviews 总浏览量
func (s *StatsService) TotalPageviews(ctx context.Context) (*TotalPageviewsResult, error) {
	result, err := s.run(ctx, query.TotalPageviews, query.DefaultWindow)
	if err != nil {
		return nil, err
	}
	return &TotalPageviewsResult{TotalPageviews: metric.ScalarInt(result)}, nil
}

// PageviewsByDay 每日浏览量
func (s *StatsService) PageviewsByDay(ctx context.Context, w query.Window) (*PageviewsByDayResult, error) {
	result, err := s.run(ctx, query.PageviewsByDay, w)
	if err != nil {
		return nil, err
	}
	return &PageviewsByDayResult{
		PageviewsByDay: metric.ToPageviewsByDay(result.Results),
		Days:           w.Days(),
	}, nil
}

// TopPages 热门页面
func (s *StatsService) TopPages(ctx context.Context) (*TopPagesResult, error) {
	result, err := s.run(ctx, query.TopPages, query.DefaultWindow)
	if err != nil {
		return nil, err
	}
	return &TopPagesResult{TopPages: metric.ToTopPages(result.Results)}, nil
}

// UniqueVisitors 独立访客数
func (s *StatsService) UniqueVisitors(ctx context.Context) (*UniqueVisitorsResult, error) {
	result, err := s.run(ctx, query.UniqueVisitors, query.DefaultWindow)
	if err != nil {
		return nil, err
	}
	return &UniqueVisitorsResult{UniqueVisitors: metric.ScalarInt(result)}, nil
}

// VisitorsOverTime 每日独立访客
func (s *StatsService) VisitorsOverTime(ctx context.Context, w query.Window) (*VisitorsOverTimeResult, error) {
	result, err := s.run(ctx, query.VisitorsOverTime, w)
	if err != nil {
		return nil, err
	}
	return &VisitorsOverTimeResult{
		VisitorsOverTime: metric.ToVisitorsByDay(result.Results),
		Days:             w.Days(),
	}, nil
}

// VisitorsByCountry 访客国家分布
func (s *StatsService) VisitorsByCountry(ctx context.Context) (*VisitorsByCountryResult, error) {
	result, err := s.run(ctx, query.VisitorsByCountry, query.DefaultWindow)
	if err != nil {
		return nil, err
	}
	return &VisitorsByCountryResult{VisitorsByCountry: metric.ToVisitorsByCountry(result.Results)}, nil
}

// AvgSessionDuration 平均会话时长，取整到秒
func (s *StatsService) AvgSessionDuration(ctx context.Context) (*SessionResult, error) {
	result, err := s.run(ctx, query.AvgSessionDuration, query.DefaultWindow)
	if err != nil {
		return nil, err
	}
	return &SessionResult{AvgSessionDuration: int64(math.Round(metric.ScalarFloat(result)))}, nil
}

// TrafficSources 流量来源
func (s *StatsService) TrafficSources(ctx context.Context) (*TrafficResult, error) {
	result, err := s.run(ctx, query.TrafficSources, query.DefaultWindow)
	if err != nil {
		return nil, err
	}
	return &TrafficResult{TrafficSources: metric.ToTrafficSources(result.Results)}, nil
}

// Devices 设备类型、浏览器、操作系统分布
func (s *StatsService) Devices(ctx context.Context) (*metric.DeviceDistribution, error) {
	results, err := s.runAll(ctx, query.DefaultWindow, query.DeviceTypes, query.Browsers, query.OperatingSystems)
	if err != nil {
		return nil, err
	}
	return &metric.DeviceDistribution{
		DeviceTypes:      metric.ToDeviceTypes(results[query.DeviceTypes].Results),
		Browsers:         metric.ToBrowsers(results[query.Browsers].Results),
		OperatingSystems: metric.ToOperatingSystems(results[query.OperatingSystems].Results),
	}, nil
}

// WebVitals web vitals 指标，extended 时额外返回 TTFB 和 FID
func (s *StatsService) WebVitals(ctx context.Context, extended bool) (*metric.WebVitalsMetrics, error) {
	ids := []query.ID{query.VitalsLCP, query.VitalsFCP, query.VitalsCLS, query.VitalsINP}
	if extended {
		ids = append(ids, query.VitalsTTFB, query.VitalsFID)
	}

	results, err := s.runAll(ctx, query.DefaultWindow, ids...)
	if err != nil {
		return nil, err
	}

	vitals := &metric.WebVitalsMetrics{
		LCP: metric.ToVitalStats(results[query.VitalsLCP]),
		FCP: metric.ToVitalStats(results[query.VitalsFCP]),
		CLS: metric.ToVitalStats(results[query.VitalsCLS]),
		INP: metric.ToVitalStats(results[query.VitalsINP]),
	}
	if extended {
		ttfb := metric.ToVitalStats(results[query.VitalsTTFB])
		fid := metric.ToVitalStats(results[query.VitalsFID])
		vitals.TTFB = &ttfb
		vitals.FID = &fid
	}
	return vitals, nil
}

// Engagement 参与度指标。
// 新老访客查询较慢且容易失败，失败时记录告警并返回 0，不影响其他字段。
func (s *StatsService) Engagement(ctx context.Context) (*metric.EngagementStats, error) {
	results, err := s.runAll(ctx, query.DefaultWindow, query.BounceRate, query.PagesPerSession, query.TotalSessions)
	if err != nil {
		return nil, err
	}

	bounce := results[query.BounceRate].First()
	stats := &metric.EngagementStats{
		BounceRate:         metric.Round2(bounce.Float(2)),
		BouncedSessions:    bounce.Int(0),
		TotalSessions:      bounce.Int(1),
		AvgPagesPerSession: metric.Round2(metric.ScalarFloat(results[query.PagesPerSession])),
	}
	if sessions := results[query.TotalSessions]; len(sessions.Results) > 0 {
		stats.TotalSessions = metric.ScalarInt(sessions)
	}

	newVsReturning, err := s.run(ctx, query.NewVsReturning, query.DefaultWindow)
	if err != nil {
		s.logger.Warn("获取新老访客数据失败，使用默认值", zap.Error(err))
		return stats, nil
	}
	stats.NewVisitors, stats.ReturningVisitors = metric.NewVsReturning(newVsReturning.Results)
	return stats, nil
}
