package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valyala/fasttemplate"
)

// ID 查询模板标识
type ID string

const (
	TotalPageviews     ID = "total_pageviews"
	UniqueVisitors     ID = "unique_visitors"
	AvgSessionDuration ID = "avg_session_duration"

	PageviewsByDay ID = "pageviews_by_day"
	TopPages       ID = "top_pages"

	VisitorsOverTime  ID = "visitors_over_time"
	VisitorsByCountry ID = "visitors_by_country"

	TrafficSources ID = "traffic_sources"

	DeviceTypes      ID = "device_types"
	Browsers         ID = "browsers"
	OperatingSystems ID = "operating_systems"

	VitalsLCP  ID = "vitals_lcp"
	VitalsFCP  ID = "vitals_fcp"
	VitalsCLS  ID = "vitals_cls"
	VitalsINP  ID = "vitals_inp"
	VitalsTTFB ID = "vitals_ttfb"
	VitalsFID  ID = "vitals_fid"

	BounceRate      ID = "bounce_rate"
	PagesPerSession ID = "pages_per_session"
	TotalSessions   ID = "total_sessions"
	NewVsReturning  ID = "new_vs_returning"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// Definition 查询模板定义
type Definition struct {
	ID     ID
	Source string            // HogQL 模板文本，{{days}} 为时间窗口占位符
	Params map[string]string // 固定参数（如 web vitals 指标名）
}

// Catalog 查询模板目录，创建后只读
type Catalog struct {
	templates map[ID]*fasttemplate.Template
	params    map[ID]map[string]string
}

// New 根据定义创建目录
func New(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[ID]*fasttemplate.Template, len(defs)),
		params:    make(map[ID]map[string]string, len(defs)),
	}
	for _, def := range defs {
		if _, exists := c.templates[def.ID]; exists {
			return nil, fmt.Errorf("duplicate query template: %s", def.ID)
		}
		tpl, err := fasttemplate.NewTemplate(def.Source, startTag, endTag)
		if err != nil {
			return nil, fmt.Errorf("parse query template %s: %w", def.ID, err)
		}
		c.templates[def.ID] = tpl
		c.params[def.ID] = def.Params
	}
	return c, nil
}

var defaultCatalog = mustNew(Definitions()...)

func mustNew(defs ...Definition) *Catalog {
	c, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default 返回内置查询目录
func Default() *Catalog {
	return defaultCatalog
}

// Render 渲染指定模板
func (c *Catalog) Render(id ID, w Window) (string, error) {
	tpl, ok := c.templates[id]
	if !ok {
		return "", fmt.Errorf("unknown query template: %s", id)
	}
	if !w.Valid() {
		return "", fmt.Errorf("invalid window: %d", w)
	}

	values := map[string]any{"days": w.String()}
	for k, v := range c.params[id] {
		values[k] = v
	}
	return tpl.ExecuteString(values), nil
}

// Has 模板是否存在
func (c *Catalog) Has(id ID) bool {
	_, ok := c.templates[id]
	return ok
}

// IDs 按字母序返回所有模板标识
func (c *Catalog) IDs() []ID {
	ids := make([]ID, 0, len(c.templates))
	for id := range c.templates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// VitalsID 根据指标名返回 web vitals 模板标识
func VitalsID(metric string) ID {
	return ID("vitals_" + strings.ToLower(metric))
}
