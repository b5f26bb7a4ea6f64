package dto

import (
	"carbon-admin-console/internal/auditdiff"
	"carbon-admin-console/internal/jsontree"
	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/model"
)

// LogSearchRequest queries one stream's indices.
type LogSearchRequest struct {
	Kind   model.LogKind
	Filter logquery.Filter
	From   int
	Size   int
}

type LogSearchResponse struct {
	Records    []model.LogRecord `json:"records"`
	TotalCount int64             `json:"totalCount"`
}

// MergedSearchRequest is a search across several streams.
type MergedSearchRequest struct {
	Kinds   []model.LogKind
	Filter  logquery.Filter
	Page    int
	PerPage int
}

type MergedSearchResponse struct {
	Records    []model.LogRecord
	Pagination model.Pagination
}

// ParseResponse explains how a query string is understood.
type ParseResponse struct {
	Query  logquery.ParsedQuery `json:"query"`
	Chips  []logquery.Chip      `json:"chips"`
	Params map[string]string    `json:"params"`
}

type ColumnsRequest struct {
	Columns []string `json:"columns" binding:"required"`
}

type ColumnsResponse struct {
	Kind    model.LogKind `json:"kind"`
	Columns []string      `json:"columns"`
	Default bool          `json:"default"`
}

type DiffRequest struct {
	Old  any    `json:"old"`
	New  any    `json:"new"`
	Mode string `json:"mode"`
}

type DiffResponse struct {
	auditdiff.View
	Text string `json:"text"`
}

type TreeRequest struct {
	Value     any    `json:"value"`
	Search    string `json:"search"`
	ExpandAll bool   `json:"expand_all"`
}

type TreeResponse struct {
	Rows    []jsontree.Row `json:"rows"`
	Matches []string       `json:"matches"`
}
