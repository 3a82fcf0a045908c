package query

const totalPageviewsSQL = `
SELECT count() AS total
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
`

const uniqueVisitorsSQL = `
SELECT count(DISTINCT properties.distinct_id) AS unique_visitors
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
`

// 会话时长限定在 (0, 7200) 秒，过滤掉单页会话和挂机会话
const avgSessionDurationSQL = `
SELECT avg(session_duration) AS avg_duration
FROM (
  SELECT
    properties.$session_id AS session_id,
    dateDiff('second', min(timestamp), max(timestamp)) AS session_duration
  FROM events
  WHERE
    event IN ('$pageview', '$pageleave')
    AND properties.$session_id IS NOT NULL
    AND timestamp >= now() - INTERVAL {{days}} DAY
  GROUP BY session_id
  HAVING session_duration > 0 AND session_duration < 7200
)
`

const pageviewsByDaySQL = `
SELECT
  toDate(timestamp) AS date,
  count() AS pageview_count
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY date
ORDER BY date ASC
`

const topPagesSQL = `
SELECT
  properties.$pathname AS pathname,
  count() AS pageview_count
FROM events
WHERE
  event = '$pageview'
  AND properties.$pathname IS NOT NULL
  AND properties.$pathname != '/'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY pathname
ORDER BY pageview_count DESC
LIMIT 10
`

const visitorsOverTimeSQL = `
SELECT
  toDate(timestamp) AS date,
  count(DISTINCT properties.distinct_id) AS visitors
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY date
ORDER BY date ASC
`

const visitorsByCountrySQL = `
SELECT
  COALESCE(properties.$geoip_country_name, 'Unknown') AS country,
  COALESCE(properties.$geoip_country_code, 'XX') AS country_code,
  count(DISTINCT properties.distinct_id) AS visitors
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY country, country_code
ORDER BY visitors DESC
LIMIT 15
`

const trafficSourcesSQL = `
SELECT
  COALESCE(properties.utm_source, properties.$referring_domain, 'Direct') AS source,
  count(DISTINCT properties.distinct_id) AS visitors
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY source
ORDER BY visitors DESC
LIMIT 10
`

const deviceTypesSQL = `
SELECT
  COALESCE(properties.$device_type, 'Unknown') AS device_type,
  count() AS count
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY device_type
ORDER BY count DESC
`

const browsersSQL = `
SELECT
  COALESCE(properties.$browser, 'Unknown') AS browser,
  count() AS count
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY browser
ORDER BY count DESC
LIMIT 10
`

const operatingSystemsSQL = `
SELECT
  COALESCE(properties.$os, 'Unknown') AS os,
  count() AS count
FROM events
WHERE
  event = '$pageview'
  AND timestamp >= now() - INTERVAL {{days}} DAY
GROUP BY os
ORDER BY count DESC
LIMIT 10
`

// 行形状: [avg, p75, p95, count]
const webVitalsSQL = `
SELECT
  avg(toFloat64OrNull(properties.$web_vitals_{{metric}}_value)) AS avg_value,
  quantile(0.75)(toFloat64OrNull(properties.$web_vitals_{{metric}}_value)) AS p75,
  quantile(0.95)(toFloat64OrNull(properties.$web_vitals_{{metric}}_value)) AS p95,
  count() AS count
FROM events
WHERE
  event = '$web_vitals'
  AND properties.$web_vitals_{{metric}}_value IS NOT NULL
  AND timestamp >= now() - INTERVAL {{days}} DAY
`

// 行形状: [bounced_sessions, total_sessions, bounce_rate]
const bounceRateSQL = `
SELECT
  countIf(pageviews = 1) AS bounced_sessions,
  count() AS total_sessions,
  round(if(count() > 0, countIf(pageviews = 1) * 100.0 / count(), 0), 2) AS bounce_rate
FROM (
  SELECT
    properties.$session_id AS session_id,
    count() AS pageviews
  FROM events
  WHERE
    event = '$pageview'
    AND properties.$session_id IS NOT NULL
    AND timestamp >= now() - INTERVAL {{days}} DAY
  GROUP BY session_id
)
`

const pagesPerSessionSQL = `
SELECT round(avg(pageviews), 2) AS avg_pages_per_session
FROM (
  SELECT
    properties.$session_id AS session_id,
    count() AS pageviews
  FROM events
  WHERE
    event = '$pageview'
    AND properties.$session_id IS NOT NULL
    AND timestamp >= now() - INTERVAL {{days}} DAY
  GROUP BY session_id
)
`

const totalSessionsSQL = `
SELECT count(DISTINCT properties.$session_id) AS total_sessions
FROM events
WHERE
  event = '$pageview'
  AND properties.$session_id IS NOT NULL
  AND timestamp >= now() - INTERVAL {{days}} DAY
`

// 首次访问落在窗口内的为 New，否则为 Returning
const newVsReturningSQL = `
SELECT
  if(first_seen >= now() - INTERVAL {{days}} DAY, 'New', 'Returning') AS visitor_type,
  count() AS visitors
FROM (
  SELECT
    distinct_id,
    min(timestamp) AS first_seen,
    max(timestamp) AS last_seen
  FROM events
  WHERE event = '$pageview'
  GROUP BY distinct_id
  HAVING last_seen >= now() - INTERVAL {{days}} DAY
)
GROUP BY visitor_type
`

func vitals(metric string) Definition {
	return Definition{ID: VitalsID(metric), Source: webVitalsSQL, Params: map[string]string{"metric": metric}}
}

// Definitions 内置查询模板
func Definitions() []Definition {
	return []Definition{
		{ID: TotalPageviews, Source: totalPageviewsSQL},
		{ID: UniqueVisitors, Source: uniqueVisitorsSQL},
		{ID: AvgSessionDuration, Source: avgSessionDurationSQL},
		{ID: PageviewsByDay, Source: pageviewsByDaySQL},
		{ID: TopPages, Source: topPagesSQL},
		{ID: VisitorsOverTime, Source: visitorsOverTimeSQL},
		{ID: VisitorsByCountry, Source: visitorsByCountrySQL},
		{ID: TrafficSources, Source: trafficSourcesSQL},
		{ID: DeviceTypes, Source: deviceTypesSQL},
		{ID: Browsers, Source: browsersSQL},
		{ID: OperatingSystems, Source: operatingSystemsSQL},
		vitals("LCP"),
		vitals("FCP"),
		vitals("CLS"),
		vitals("INP"),
		vitals("TTFB"),
		vitals("FID"),
		{ID: BounceRate, Source: bounceRateSQL},
		{ID: PagesPerSession, Source: pagesPerSessionSQL},
		{ID: TotalSessions, Source: totalSessionsSQL},
		{ID: NewVsReturning, Source: newVsReturningSQL},
	}
}
