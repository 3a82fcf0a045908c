package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowAccessors(t *testing.T) {
	row := Row{"Desktop", json.Number("80"), 12.5, nil, "7", int64(3)}

	assert.Equal(t, "Desktop", row.String(0))
	assert.Equal(t, "80", row.String(1))
	assert.Equal(t, "", row.String(3))
	assert.Equal(t, "", row.String(42))

	assert.Equal(t, int64(80), row.Int(1))
	assert.Equal(t, 12.5, row.Float(2))
	assert.Equal(t, int64(13), row.Int(2))
	assert.Equal(t, 0.0, row.Float(3))
	assert.Equal(t, int64(7), row.Int(4))
	assert.Equal(t, int64(3), row.Int(5))
	assert.Equal(t, 0.0, row.Float(-1))
}

func TestDecodeQueryResult(t *testing.T) {
	body := `{"results":[["2025-01-01",12],["2025-01-02",null]],"columns":["date","count"],"hasMore":false}`

	result, err := DecodeQueryResult(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	assert.Equal(t, []string{"date", "count"}, result.Columns)
	assert.Equal(t, "2025-01-01", result.First().String(0))
	assert.Equal(t, int64(12), result.First().Int(1))
	assert.Equal(t, int64(0), result.Results[1].Int(1))
}

func TestQueryResultFirstOnEmpty(t *testing.T) {
	var result *QueryResult
	assert.Empty(t, result.First())
	assert.Empty(t, (&QueryResult{}).First())
}

func TestNewQueryPayload(t *testing.T) {
	data, err := json.Marshal(NewQueryPayload("SELECT 1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":{"kind":"HogQLQuery","query":"SELECT 1"}}`, string(data))
}
