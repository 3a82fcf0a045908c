package handler

import (
	"errors"
	"strconv"

	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/posthog"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/query"
	"github.com/AshutoshDash1999/Ashutosh-Dash-portfolio/internal/service"

	goerrors "github.com/go-errors/errors"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BasePath 统计接口的挂载路径
const BasePath = "/api/stats"

const invalidDaysMessage = "Invalid days parameter. Must be 7, 30, or 90."

var validate = validator.New()

// StatsHandler 访问统计接口
type StatsHandler struct {
	logger  *zap.Logger
	service *service.StatsService
}

// NewStatsHandler 创建处理器
func NewStatsHandler(logger *zap.Logger, service *service.StatsService) *StatsHandler {
	return &StatsHandler{
		logger:  logger,
		service: service,
	}
}

// Register 注册路由
func (h *StatsHandler) Register(g *echo.Group) {
	g.GET("", h.Index)
	g.GET("/pageviews", h.Pageviews)
	g.GET("/pages/views", h.PageviewsByDay)
	g.GET("/pages/top", h.TopPages)
	g.GET("/visitors", h.Visitors)
	g.GET("/visitors/over-time", h.VisitorsOverTime)
	g.GET("/visitors/countries", h.Countries)
	g.GET("/session", h.Session)
	g.GET("/traffic", h.Traffic)
	g.GET("/devices", h.Devices)
	g.GET("/vitals", h.Vitals)
	g.GET("/engagement", h.Engagement)
}

// Index 列出所有可用接口
// GET /api/stats
func (h *StatsHandler) Index(c echo.Context) error {
	return Success(c, map[string]any{
		"endpoints": map[string]string{
			"pageviews":         BasePath + "/pageviews",
			"visitors":          BasePath + "/visitors",
			"visitorsOverTime":  BasePath + "/visitors/over-time",
			"visitorsByCountry": BasePath + "/visitors/countries",
			"session":           BasePath + "/session",
			"traffic":           BasePath + "/traffic",
			"devices":           BasePath + "/devices",
			"pageviewsByDay":    BasePath + "/pages/views",
			"topPages":          BasePath + "/pages/top",
			"vitals":            BasePath + "/vitals",
			"engagement":        BasePath + "/engagement",
		},
	})
}

// Pageviews 总浏览量
// GET /api/stats/pageviews
func (h *StatsHandler) Pageviews(c echo.Context) error {
	result, err := h.service.TotalPageviews(c.Request().Context())
	if err != nil {
		return h.fail(c, "pageviews", "Failed to fetch pageviews data", err)
	}
	return Success(c, result)
}

// PageviewsByDay 每日浏览量
// GET /api/stats/pages/views?days=30
func (h *StatsHandler) PageviewsByDay(c echo.Context) error {
	w, ok := parseDays(c)
	if !ok {
		return BadRequest(c, invalidDaysMessage)
	}
	result, err := h.service.PageviewsByDay(c.Request().Context(), w)
	if err != nil {
		return h.fail(c, "pages/views", "Failed to fetch pageviews by day data", err)
	}
	return Success(c, result)
}

// TopPages 热门页面
// GET /api/stats/pages/top
func (h *StatsHandler) TopPages(c echo.Context) error {
	result, err := h.service.TopPages(c.Request().Context())
	if err != nil {
		return h.fail(c, "pages/top", "Failed to fetch top pages data", err)
	}
	return Success(c, result)
}

// Visitors 独立访客数
// GET /api/stats/visitors
func (h *StatsHandler) Visitors(c echo.Context) error {
	result, err := h.service.UniqueVisitors(c.Request().Context())
	if err != nil {
		return h.fail(c, "visitors", "Failed to fetch visitors data", err)
	}
	return Success(c, result)
}

// VisitorsOverTime 每日独立访客
// GET /api/stats/visitors/over-time?days=30
func (h *StatsHandler) VisitorsOverTime(c echo.Context) error {
	w, ok := parseDays(c)
	if !ok {
		return BadRequest(c, invalidDaysMessage)
	}
	result, err := h.service.VisitorsOverTime(c.Request().Context(), w)
	if err != nil {
		return h.fail(c, "visitors/over-time", "Failed to fetch visitors over time data", err)
	}
	return Success(c, result)
}

// Countries 访客国家分布
// GET /api/stats/visitors/countries
func (h *StatsHandler) Countries(c echo.Context) error {
	result, err := h.service.VisitorsByCountry(c.Request().Context())
	if err != nil {
		return h.fail(c, "visitors/countries", "Failed to fetch visitors by country data", err)
	}
	return Success(c, result)
}

// Session 平均会话时长
// GET /api/stats/session
func (h *StatsHandler) Session(c echo.Context) error {
	result, err := h.service.AvgSessionDuration(c.Request().Context())
	if err != nil {
		return h.fail(c, "session", "Failed to fetch session data", err)
	}
	return Success(c, result)
}

// Traffic 流量来源
// GET /api/stats/traffic
func (h *StatsHandler) Traffic(c echo.Context) error {
	result, err := h.service.TrafficSources(c.Request().Context())
	if err != nil {
		return h.fail(c, "traffic", "Failed to fetch traffic data", err)
	}
	return Success(c, result)
}

// Devices 设备、浏览器、操作系统分布
// GET /api/stats/devices
func (h *StatsHandler) Devices(c echo.Context) error {
	result, err := h.service.Devices(c.Request().Context())
	if err != nil {
		return h.fail(c, "devices", "Failed to fetch device data", err)
	}
	return Success(c, result)
}

// Vitals web vitals
// GET /api/stats/vitals?extended=true
func (h *StatsHandler) Vitals(c echo.Context) error {
	raw := c.QueryParam("extended")
	if err := validate.Var(raw, "omitempty,oneof=true false"); err != nil {
		return BadRequest(c, "Invalid extended parameter. Must be true or false.")
	}
	extended, _ := strconv.ParseBool(raw)

	result, err := h.service.WebVitals(c.Request().Context(), extended)
	if err != nil {
		return h.fail(c, "vitals", "Failed to fetch web vitals data", err)
	}
	return Success(c, result)
}

// Engagement 参与度指标
// GET /api/stats/engagement
func (h *StatsHandler) Engagement(c echo.Context) error {
	result, err := h.service.Engagement(c.Request().Context())
	if err != nil {
		return h.fail(c, "engagement", "Failed to fetch engagement data", err)
	}
	return Success(c, result)
}

// parseDays 校验 days 参数，缺省时使用默认窗口
func parseDays(c echo.Context) (query.Window, bool) {
	w, err := query.ParseWindow(c.QueryParam("days"))
	if err != nil {
		return 0, false
	}
	return w, true
}

// fail 将错误映射为统一响应：上游错误返回 502 并携带上游信息，其他错误返回 500 和固定信息
func (h *StatsHandler) fail(c echo.Context, endpoint, message string, err error) error {
	var qe *posthog.QueryError
	if errors.As(err, &qe) {
		h.logger.Error("查询 PostHog 失败",
			zap.String("endpoint", endpoint),
			zap.Int("statusCode", qe.StatusCode),
			zap.Stringer("kind", qe.Kind),
			zap.Error(err),
		)
		return PostHogError(c, qe.Message)
	}

	h.logger.Error("统计接口内部错误",
		zap.String("endpoint", endpoint),
		zap.Error(err),
		zap.String("stack", goerrors.Wrap(err, 1).ErrorStack()),
	)
	return InternalError(c, message)
}
