package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAllTemplatesForEveryWindow(t *testing.T) {
	catalog := Default()

	for _, id := range catalog.IDs() {
		for _, w := range Windows {
			t.Run(string(id)+"/"+w.String(), func(t *testing.T) {
				q, err := catalog.Render(id, w)
				require.NoError(t, err)

				assert.Contains(t, q, "INTERVAL "+w.String()+" DAY")
				assert.NotContains(t, q, "{{")
				assert.NotContains(t, q, "}}")
			})
		}
	}
}

func render(t *testing.T, id ID, w Window) string {
	t.Helper()
	q, err := Default().Render(id, w)
	require.NoError(t, err)
	return q
}

func TestRenderIsDeterministic(t *testing.T) {
	a := render(t, DeviceTypes, Window7)
	b := render(t, DeviceTypes, Window7)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, render(t, DeviceTypes, Window90))
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	catalog := Default()

	_, err := catalog.Render(DeviceTypes, Window(14))
	assert.Error(t, err)

	_, err = catalog.Render(ID("nope"), Window30)
	assert.Error(t, err)
}

func TestTemplateShapes(t *testing.T) {
	tests := []struct {
		id       ID
		contains []string
	}{
		{PageviewsByDay, []string{"GROUP BY date", "ORDER BY date ASC"}},
		{VisitorsOverTime, []string{"count(DISTINCT properties.distinct_id)", "ORDER BY date ASC"}},
		{TopPages, []string{"ORDER BY pageview_count DESC", "LIMIT 10"}},
		{VisitorsByCountry, []string{"'XX'", "LIMIT 15"}},
		{TrafficSources, []string{"'Direct'", "LIMIT 10"}},
		{Browsers, []string{"$browser", "LIMIT 10"}},
		{OperatingSystems, []string{"$os", "LIMIT 10"}},
		{DeviceTypes, []string{"$device_type", "ORDER BY count DESC"}},
		{AvgSessionDuration, []string{"session_duration < 7200", "'$pageleave'"}},
		{NewVsReturning, []string{"'New'", "'Returning'"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			q := render(t, tt.id, DefaultWindow)
			for _, s := range tt.contains {
				assert.Contains(t, q, s)
			}
		})
	}
}

func TestVitalsTemplates(t *testing.T) {
	catalog := Default()

	for _, metric := range []string{"LCP", "FCP", "CLS", "INP", "TTFB", "FID"} {
		t.Run(metric, func(t *testing.T) {
			id := VitalsID(metric)
			require.True(t, catalog.Has(id))

			q := render(t, id, Window30)
			field := "properties.$web_vitals_" + metric + "_value"
			assert.Contains(t, q, field+" IS NOT NULL")
			assert.Contains(t, q, "quantile(0.75)")
			assert.Contains(t, q, "quantile(0.95)")
			assert.Equal(t, 0, strings.Count(q, "{{metric}}"))
		})
	}
}

func TestVitalsIDMatchesConstants(t *testing.T) {
	assert.Equal(t, VitalsLCP, VitalsID("LCP"))
	assert.Equal(t, VitalsFCP, VitalsID("fcp"))
	assert.Equal(t, VitalsCLS, VitalsID("CLS"))
	assert.Equal(t, VitalsINP, VitalsID("INP"))
	assert.Equal(t, VitalsTTFB, VitalsID("TTFB"))
	assert.Equal(t, VitalsFID, VitalsID("FID"))
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New(
		Definition{ID: "a", Source: "SELECT 1"},
		Definition{ID: "a", Source: "SELECT 2"},
	)
	assert.Error(t, err)
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in      string
		want    Window
		wantErr bool
	}{
		{"", Window30, false},
		{"7", Window7, false},
		{"30", Window30, false},
		{"90", Window90, false},
		{"0", 0, true},
		{"14", 0, true},
		{"-7", 0, true},
		{"abc", 0, true},
		{"07", 0, true},
		{"+7", 0, true},
		{" 7", 0, true},
		{"7.0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, err := ParseWindow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w)
		})
	}
}
