package protocol

import (
	"encoding/json"
	"io"
)

// QueryKindHogQL HogQL 查询类型
const QueryKindHogQL = "HogQLQuery"

// QueryPayload 查询请求 payload
type QueryPayload struct {
	Query QueryBody `json:"query"`
}

// QueryBody 查询内容
type QueryBody struct {
	Kind  string `json:"kind"`
	Query string `json:"query"`
}

// NewQueryPayload 创建 HogQL 查询 payload
func NewQueryPayload(hogql string) QueryPayload {
	return QueryPayload{
		Query: QueryBody{
			Kind:  QueryKindHogQL,
			Query: hogql,
		},
	}
}

// QueryResult 查询结果（行的形状由生成它的查询模板决定）
type QueryResult struct {
	Results []Row    `json:"results"`
	Columns []string `json:"columns,omitempty"`
	Types   []any    `json:"types,omitempty"`
	HogQL   string   `json:"hogql,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
}

// First 返回第一行，没有数据时返回空行
func (r *QueryResult) First() Row {
	if r == nil || len(r.Results) == 0 {
		return Row{}
	}
	return r.Results[0]
}

// ErrorResponse 上游错误响应体
type ErrorResponse struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// DecodeQueryResult 解析查询结果，数值保留为 json.Number
func DecodeQueryResult(r io.Reader) (*QueryResult, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var result QueryResult
	if err := dec.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
