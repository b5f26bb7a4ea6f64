package controller

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/export"
	"carbon-admin-console/internal/logquery"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/service"
)

// ParamRawQuery carries an unparsed admin query. Explicit backend
// parameters take precedence over what it yields.
const ParamRawQuery = "query"

// nonFilterParams are the search and export parameters that are not filters.
var nonFilterParams = []string{ParamRawQuery, "types", "page", "per_page", "format", "columns"}

type LogController struct {
	logQueryService service.LogQueryService
	now             func() time.Time
}

func NewLogController(logQueryService service.LogQueryService) *LogController {
	return &LogController{
		logQueryService: logQueryService,
		now:             time.Now,
	}
}

func RegisterLogRoutes(admin *gin.RouterGroup, controller *LogController) {
	logs := admin.Group("/logs")
	{
		logs.GET("/parse", controller.ParseQuery)
		logs.GET("/search", controller.SearchLogs)
		logs.GET("/related/:request_id", controller.RelatedLogs)
		logs.GET("/export", controller.ExportLogs)
	}
	admin.GET("/system-logs", controller.ListSystemLogs)
	admin.GET("/audit-logs", controller.ListAuditLogs)
	admin.GET("/error-logs", controller.ListErrorLogs)
	admin.GET("/llm-usage", controller.ListLLMLogs)
}

// ParseQuery godoc
// @Summary      Explain a log query
// @Description  Parses the admin query language and returns the tokens, ranges, free text, display chips and the backend parameters the query maps to.
// @Tags         logs
// @Produce      json
// @Param        q   query     string  false  "Raw query, e.g. status:500 dur>=1000 timeout"
// @Success      200 {object}  model.Response{data=dto.ParseResponse}
// @Security     Bearer
// @Router       /api/v1/admin/logs/parse [get]
func (c *LogController) ParseQuery(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, model.NewResponse("", c.logQueryService.Parse(ctx.Query("q"))))
}

// searchValues merges the parameters produced by the raw query under the
// explicitly supplied ones.
func searchValues(ctx *gin.Context) url.Values {
	values := ctx.Request.URL.Query()
	raw := values.Get(ParamRawQuery)
	if raw == "" {
		return values
	}
	merged := logquery.BuildQueryParams(logquery.Parse(raw))
	for k, v := range values {
		if k != ParamRawQuery && len(v) > 0 && v[0] != "" {
			merged[k] = v
		}
	}
	return merged
}

func (c *LogController) searchRequest(ctx *gin.Context, kinds []model.LogKind) (dto.MergedSearchRequest, error) {
	if kinds == nil {
		var err error
		kinds, err = model.ParseKinds(ctx.Query("types"))
		if err != nil {
			return dto.MergedSearchRequest{}, err
		}
	}
	values := searchValues(ctx)
	if unknown := logquery.UnsupportedParams(values, nonFilterParams...); len(unknown) > 0 {
		return dto.MergedSearchRequest{}, fmt.Errorf("unsupported filter: %s", strings.Join(unknown, ", "))
	}
	filter, err := logquery.ParamsToFilter(values)
	if err != nil {
		return dto.MergedSearchRequest{}, err
	}
	return dto.MergedSearchRequest{
		Kinds:   kinds,
		Filter:  filter,
		Page:    intQuery(ctx, "page", 1),
		PerPage: intQuery(ctx, "per_page", service.DefaultPerPage),
	}, nil
}

// SearchLogs godoc
// @Summary      Search logs across streams
// @Description  Searches the requested streams, merges the hits newest first and returns one page. At most 1000 merged records are reachable. Parameters that are not filters listed here are rejected with 400.
// @Tags         logs
// @Produce      json
// @Param        query         query     string  false  "Raw admin query; explicit parameters below override it"
// @Param        types         query     string  false  "Comma-separated streams (system,audit,error,llm); empty means all"
// @Param        request_id    query     string  false  "Request id"
// @Param        user_id       query     string  false  "User id"
// @Param        status_code   query     string  false  "HTTP status code"
// @Param        path          query     string  false  "Request path"
// @Param        method        query     string  false  "HTTP method"
// @Param        action        query     string  false  "Audit action"
// @Param        status        query     string  false  "Audit status"
// @Param        error_type    query     string  false  "Error type"
// @Param        duration_ms   query     int     false  "Exact duration in ms"
// @Param        min_duration  query     int     false  "Minimum duration in ms, inclusive; a strict dur>N in query arrives as N"
// @Param        max_duration  query     int     false  "Maximum duration in ms, inclusive; a strict dur<N in query arrives as N"
// @Param        q             query     string  false  "Free text"
// @Param        page          query     int     false  "Page number (default: 1)" minimum(1)
// @Param        per_page      query     int     false  "Records per page (default: 50, max: 200)" minimum(1) maximum(200)
// @Success      200  {object}  model.Response{data=[]model.LogRecord}
// @Failure      400  {object}  model.Response
// @Failure      401  {object}  model.Response
// @Failure      500  {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/logs/search [get]
func (c *LogController) SearchLogs(ctx *gin.Context) {
	c.search(ctx, nil)
}

func (c *LogController) search(ctx *gin.Context, kinds []model.LogKind) {
	req, err := c.searchRequest(ctx, kinds)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}
	result, err := c.logQueryService.Search(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err, "Failed to search logs")
		return
	}
	ctx.JSON(http.StatusOK, model.NewPagedResponse(result.Records, result.Pagination))
}

// ListSystemLogs godoc
// @Summary      List system logs
// @Tags         logs
// @Produce      json
// @Param        page      query  int  false  "Page number"
// @Param        per_page  query  int  false  "Records per page"
// @Success      200  {object}  model.Response{data=[]model.LogRecord}
// @Security     Bearer
// @Router       /api/v1/admin/system-logs [get]
func (c *LogController) ListSystemLogs(ctx *gin.Context) {
	c.search(ctx, []model.LogKind{model.KindSystem})
}

// ListAuditLogs godoc
// @Summary      List audit logs
// @Tags         logs
// @Produce      json
// @Param        page      query  int  false  "Page number"
// @Param        per_page  query  int  false  "Records per page"
// @Success      200  {object}  model.Response{data=[]model.LogRecord}
// @Security     Bearer
// @Router       /api/v1/admin/audit-logs [get]
func (c *LogController) ListAuditLogs(ctx *gin.Context) {
	c.search(ctx, []model.LogKind{model.KindAudit})
}

// ListErrorLogs godoc
// @Summary      List error logs
// @Tags         logs
// @Produce      json
// @Param        page      query  int  false  "Page number"
// @Param        per_page  query  int  false  "Records per page"
// @Success      200  {object}  model.Response{data=[]model.LogRecord}
// @Security     Bearer
// @Router       /api/v1/admin/error-logs [get]
func (c *LogController) ListErrorLogs(ctx *gin.Context) {
	c.search(ctx, []model.LogKind{model.KindError})
}

// ListLLMLogs godoc
// @Summary      List LLM call logs
// @Tags         logs
// @Produce      json
// @Param        page      query  int  false  "Page number"
// @Param        per_page  query  int  false  "Records per page"
// @Success      200  {object}  model.Response{data=[]model.LogRecord}
// @Security     Bearer
// @Router       /api/v1/admin/llm-usage [get]
func (c *LogController) ListLLMLogs(ctx *gin.Context) {
	c.search(ctx, []model.LogKind{model.KindLLM})
}

// RelatedLogs godoc
// @Summary      Logs of one request
// @Description  Returns every record of every stream carrying the request id, newest first.
// @Tags         logs
// @Produce      json
// @Param        request_id  path      string  true  "Request id"
// @Success      200  {object}  model.Response{data=[]model.LogRecord}
// @Failure      400  {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/logs/related/{request_id} [get]
func (c *LogController) RelatedLogs(ctx *gin.Context) {
	records, err := c.logQueryService.Related(ctx.Request.Context(), ctx.Param("request_id"))
	if err != nil {
		respondError(ctx, err, "Failed to load related logs")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("", records))
}

// ExportLogs godoc
// @Summary      Export logs
// @Description  Downloads up to 1000 merged records as CSV or NDJSON. Accepts the same filters as search.
// @Tags         logs
// @Produce      text/csv
// @Produce      application/x-ndjson
// @Param        format   query  string  false  "csv (default) or ndjson" Enums(csv, ndjson)
// @Param        columns  query  string  false  "Comma-separated CSV columns; defaults to the streams' default columns"
// @Param        types    query  string  false  "Comma-separated streams"
// @Param        query    query  string  false  "Raw admin query"
// @Success      200
// @Failure      400  {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/logs/export [get]
func (c *LogController) ExportLogs(ctx *gin.Context) {
	format, err := export.ParseFormat(ctx.Query("format"))
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}
	req, err := c.searchRequest(ctx, nil)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}
	records, err := c.logQueryService.Export(ctx.Request.Context(), req.Kinds, req.Filter)
	if err != nil {
		respondError(ctx, err, "Failed to export logs")
		return
	}
	columns := splitQuery(ctx.Query("columns"))
	if len(columns) == 0 {
		columns = export.ColumnsForKinds(req.Kinds)
	}

	ctx.Header("Content-Type", format.ContentType())
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(c.now())))
	ctx.Status(http.StatusOK)
	if err := export.Write(ctx.Writer, format, records, columns); err != nil {
		log.Error().Err(err).Msg("Failed writing export")
	}
}
