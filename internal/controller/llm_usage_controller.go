package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/service"
	"carbon-admin-console/internal/util"
)

type LLMUsageController struct {
	usageService service.LLMUsageService
}

func NewLLMUsageController(usageService service.LLMUsageService) *LLMUsageController {
	return &LLMUsageController{
		usageService: usageService,
	}
}

func RegisterLLMUsageRoutes(admin *gin.RouterGroup, controller *LLMUsageController) {
	usage := admin.Group("/llm-usage")
	{
		usage.GET("/summary", controller.GetSummary)
		usage.GET("/timeseries", controller.GetTimeseries)
	}
}

// GetSummary godoc
// @Summary      LLM usage summary
// @Description  Call count, failures, tokens, cost and average latency of LLM calls in a time range.
// @Tags         llm-usage
// @Produce      json
// @Param        startTime  query     string  true   "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true   "End time (ISO 8601 or epoch ms)"
// @Param        models     query     string  false  "Comma-separated model names"
// @Success      200        {object}  model.Response{data=dto.LLMUsageSummaryResponse}
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/admin/llm-usage/summary [get]
func (c *LLMUsageController) GetSummary(ctx *gin.Context) {
	startTime, endTime, models, err := parseBaseQueryParams(ctx)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	result, err := c.usageService.GetSummary(ctx.Request.Context(), dto.LLMUsageSummaryRequest{
		StartTime: startTime,
		EndTime:   endTime,
		Models:    models,
	})
	if err != nil {
		respondError(ctx, err, "Failed to get llm usage summary")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("", result))
}

// GetTimeseries godoc
// @Summary      LLM usage timeseries
// @Description  Buckets one usage metric over an interval, optionally split by a dimension.
// @Tags         llm-usage
// @Produce      json
// @Param        startTime  query     string  true   "Start time (ISO 8601 or epoch ms)"
// @Param        endTime    query     string  true   "End time (ISO 8601 or epoch ms)"
// @Param        models     query     string  false  "Comma-separated model names"
// @Param        metric     query     string  false  "Aggregate (default: calls)" Enums(calls, tokens, cost, duration)
// @Param        interval   query     string  false  "Bucket width (default: 1 hour)" Enums(1 minute, 5 minute, 10 minute, 30 minute, 1 hour, 1 day)
// @Param        groupBy    query     string  false  "Dimension to split by (default: total)" Enums(total, model, provider, feature, user_id)
// @Success      200        {object}  model.Response{data=dto.LLMUsageTimeseriesResponse}
// @Failure      400        {object}  model.Response "Invalid query parameters"
// @Failure      500        {object}  model.Response "Internal server error"
// @Security     Bearer
// @Router       /api/v1/admin/llm-usage/timeseries [get]
func (c *LLMUsageController) GetTimeseries(ctx *gin.Context) {
	startTime, endTime, models, err := parseBaseQueryParams(ctx)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	result, err := c.usageService.GetTimeseries(ctx.Request.Context(), dto.LLMUsageTimeseriesRequest{
		StartTime: startTime,
		EndTime:   endTime,
		Models:    models,
		Metric:    ctx.Query("metric"),
		Interval:  ctx.Query("interval"),
		GroupBy:   ctx.DefaultQuery("groupBy", "total"),
	})
	if err != nil {
		respondError(ctx, err, "Failed to get llm usage timeseries")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("", result))
}

func parseBaseQueryParams(ctx *gin.Context) (time.Time, time.Time, []string, error) {
	startTimeStr := ctx.Query("startTime")
	endTimeStr := ctx.Query("endTime")

	if startTimeStr == "" || endTimeStr == "" {
		return time.Time{}, time.Time{}, nil, errors.New("startTime and endTime are required query parameters")
	}

	startTime, errStart := util.ParseTimeFlexible(startTimeStr)
	endTime, errEnd := util.ParseTimeFlexible(endTimeStr)
	if errStart != nil || errEnd != nil {
		return time.Time{}, time.Time{}, nil, errors.New("invalid startTime or endTime format. Use ISO 8601 or epoch milliseconds")
	}
	if endTime.Before(startTime) {
		return time.Time{}, time.Time{}, nil, errors.New("endTime cannot be before startTime")
	}
	return startTime, endTime, splitQuery(ctx.Query("models")), nil
}
