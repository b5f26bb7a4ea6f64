package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/middleware"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/repository"
	"carbon-admin-console/internal/service"
)

type fakeLogService struct {
	service.LogQueryService
	lastSearch  dto.MergedSearchRequest
	lastRelated string
	records     []model.LogRecord
	err         error
}

func (f *fakeLogService) Search(_ context.Context, req dto.MergedSearchRequest) (*dto.MergedSearchResponse, error) {
	f.lastSearch = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.MergedSearchResponse{Records: f.records, Pagination: model.NewPagination(req.Page, req.PerPage, int64(len(f.records)))}, nil
}

func (f *fakeLogService) Related(_ context.Context, id string) ([]model.LogRecord, error) {
	f.lastRelated = id
	return f.records, nil
}

func (f *fakeLogService) Export(_ context.Context, kinds []model.LogKind, filter logquery.Filter) ([]model.LogRecord, error) {
	f.lastSearch = dto.MergedSearchRequest{Kinds: kinds, Filter: filter}
	return f.records, nil
}

type fakeUsageService struct {
	lastTimeseries dto.LLMUsageTimeseriesRequest
}

func (f *fakeUsageService) GetSummary(context.Context, dto.LLMUsageSummaryRequest) (*dto.LLMUsageSummaryResponse, error) {
	return &dto.LLMUsageSummaryResponse{TotalCalls: 9}, nil
}

func (f *fakeUsageService) GetTimeseries(_ context.Context, req dto.LLMUsageTimeseriesRequest) (*dto.LLMUsageTimeseriesResponse, error) {
	f.lastTimeseries = req
	if req.Metric == "bogus" {
		return nil, fmt.Errorf("%w: metric %q", repository.ErrInvalidQuery, req.Metric)
	}
	return &dto.LLMUsageTimeseriesResponse{Series: []dto.TimeseriesSeries{}}, nil
}

type fakeColumnsService struct {
	userID string
}

func (f *fakeColumnsService) Get(_ context.Context, userID string, kind model.LogKind) (*dto.ColumnsResponse, error) {
	f.userID = userID
	return &dto.ColumnsResponse{Kind: kind, Columns: []string{"timestamp"}, Default: true}, nil
}

func (f *fakeColumnsService) Save(_ context.Context, userID string, kind model.LogKind, cols []string) (*dto.ColumnsResponse, error) {
	f.userID = userID
	return &dto.ColumnsResponse{Kind: kind, Columns: cols}, nil
}

type harness struct {
	router  *gin.Engine
	logs    *fakeLogService
	usage   *fakeUsageService
	columns *fakeColumnsService
}

func newHarness() *harness {
	gin.SetMode(gin.TestMode)
	h := &harness{
		router: gin.New(),
		logs: &fakeLogService{
			LogQueryService: service.NewLogQueryService(nil),
			records:         []model.LogRecord{{Kind: model.KindAudit, Timestamp: "2024-05-01T10:00:00Z", Fields: map[string]any{"action": "update", "user_id": "7"}}},
		},
		usage:   &fakeUsageService{},
		columns: &fakeColumnsService{},
	}
	admin := h.router.Group("/api/v1/admin", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "42")
		c.Next()
	})
	logController := NewLogController(h.logs)
	logController.now = func() time.Time { return time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC) }
	RegisterLogRoutes(admin, logController)
	RegisterLLMUsageRoutes(admin, NewLLMUsageController(h.usage))
	RegisterColumnsRoutes(admin, NewColumnsController(h.columns))
	RegisterToolsRoutes(admin, NewToolsController(service.NewToolsService()))
	return h
}

func (h *harness) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestParseQuery(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/parse?q="+url.QueryEscape("user:7 dur<500"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	params := body["data"].(map[string]any)["params"].(map[string]any)
	assert.Equal(t, "7", params["user_id"])
	assert.Equal(t, "500", params["max_duration"])
}

func TestSearchLogs(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/search?types=audit,error&action=update&min_duration=10&page=2&per_page=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	req := h.logs.lastSearch
	assert.Equal(t, []model.LogKind{model.KindAudit, model.KindError}, req.Kinds)
	assert.Equal(t, "update", req.Filter.Action)
	require.NotNil(t, req.Filter.MinDuration)
	assert.Equal(t, int64(10), *req.Filter.MinDuration)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 5, req.PerPage)

	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(2), body["pagination"].(map[string]any)["current_page"])
}

func TestSearchLogsRawQuery(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/search?query=status%3A500%20method%3Aget%20disk&method=POST", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f := h.logs.lastSearch.Filter
	assert.Equal(t, "500", f.StatusCode)
	assert.Equal(t, "POST", f.Method)
	assert.Equal(t, "disk", f.Text)
}

func TestSearchLogsBadInput(t *testing.T) {
	h := newHarness()
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/logs/search?types=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/logs/search?min_duration=abc", nil).Code)

	h.logs.err = fmt.Errorf("es down")
	w := h.do(http.MethodGet, "/api/v1/admin/logs/search", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to search logs", decode(t, w)["message"])
}

func TestSearchLogsUnsupportedFilter(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/search?query="+url.QueryEscape("host:web-1 timeout"), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "host")

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/logs/search?zone=eu", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/logs/export?format=csv&zone=eu", nil).Code)
}

func TestSearchLogsExactDuration(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/search?query="+url.QueryEscape("dur:500"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	f := h.logs.lastSearch.Filter
	require.NotNil(t, f.MinDuration)
	require.NotNil(t, f.MaxDuration)
	assert.Equal(t, int64(500), *f.MinDuration)
	assert.Equal(t, int64(500), *f.MaxDuration)
}

func TestListKindLogs(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/error-logs?types=audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []model.LogKind{model.KindError}, h.logs.lastSearch.Kinds)
}

func TestRelatedLogs(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/related/req-9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-9", h.logs.lastRelated)
}

func TestExportLogs(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/export?types=audit&columns=timestamp,action", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "logs-20240501-101500.csv")
	assert.Equal(t, "timestamp,action\n2024-05-01T10:00:00Z,update\n", w.Body.String())

	w = h.do(http.MethodGet, "/api/v1/admin/logs/export?format=ndjson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-ndjson", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"action":"update"`)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/logs/export?format=xml", nil).Code)
}

func TestLLMUsage(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/llm-usage/summary?startTime=2024-05-01T00:00:00Z&endTime=2024-05-02T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(9), decode(t, w)["data"].(map[string]any)["totalCalls"])

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/llm-usage/summary", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/llm-usage/summary?startTime=2024-05-02T00:00:00Z&endTime=2024-05-01T00:00:00Z", nil).Code)

	w = h.do(http.MethodGet, "/api/v1/admin/llm-usage/timeseries?startTime=1714521600000&endTime=1714608000000&models=a,b&groupBy=model", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, h.usage.lastTimeseries.Models)
	assert.Equal(t, "model", h.usage.lastTimeseries.GroupBy)

	w = h.do(http.MethodGet, "/api/v1/admin/llm-usage/timeseries?startTime=1714521600000&endTime=1714608000000&metric=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestColumns(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodGet, "/api/v1/admin/logs/columns/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", h.columns.userID)

	w = h.do(http.MethodPut, "/api/v1/admin/logs/columns/error", dto.ColumnsRequest{Columns: []string{"message"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"message"}, decode(t, w)["data"].(map[string]any)["columns"])

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/v1/admin/logs/columns/bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/api/v1/admin/logs/columns/audit", map[string]any{}).Code)
}

func TestTools(t *testing.T) {
	h := newHarness()
	w := h.do(http.MethodPost, "/api/v1/admin/audit/diff", dto.DiffRequest{
		Old:  map[string]any{"role": "user"},
		New:  map[string]any{"role": "admin"},
		Mode: "side-by-side",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "side-by-side", data["mode"])
	assert.Len(t, data["rows"], 1)

	w = h.do(http.MethodPost, "/api/v1/admin/json/tree", dto.TreeRequest{Value: map[string]any{"a": []any{float64(1)}}, ExpandAll: true})
	require.Equal(t, http.StatusOK, w.Code)
	data = decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["rows"], 3)
}
