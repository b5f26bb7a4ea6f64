package service

import (
	"carbon-admin-console/internal/auditdiff"
	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/jsontree"
	"carbon-admin-console/internal/jsonval"
)

// ToolsService renders audit diffs and JSON trees for callers that cannot
// run the viewers themselves.
type ToolsService interface {
	Diff(req dto.DiffRequest) dto.DiffResponse
	Tree(req dto.TreeRequest) dto.TreeResponse
}

type toolsService struct{}

func NewToolsService() ToolsService {
	return toolsService{}
}

func (toolsService) Diff(req dto.DiffRequest) dto.DiffResponse {
	view := auditdiff.Render(auditdiff.ParseMode(req.Mode), req.Old, req.New)
	return dto.DiffResponse{View: view, Text: view.Text()}
}

func (toolsService) Tree(req dto.TreeRequest) dto.TreeResponse {
	v := jsontree.NewViewer(jsonval.ParseLoose(req.Value), nil)
	defer v.Close()
	if req.ExpandAll {
		v.ExpandAll()
	}
	matches := []string{}
	if req.Search != "" {
		if m := v.SetSearch(req.Search); m != nil {
			matches = m
		}
	}
	return dto.TreeResponse{Rows: v.Rows(), Matches: matches}
}
