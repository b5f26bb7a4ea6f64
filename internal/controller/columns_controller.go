package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/middleware"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/service"
)

type ColumnsController struct {
	columnsService service.ColumnsService
}

func NewColumnsController(columnsService service.ColumnsService) *ColumnsController {
	return &ColumnsController{columnsService: columnsService}
}

func RegisterColumnsRoutes(admin *gin.RouterGroup, controller *ColumnsController) {
	admin.GET("/logs/columns/:kind", controller.GetColumns)
	admin.PUT("/logs/columns/:kind", controller.SaveColumns)
}

// GetColumns godoc
// @Summary      Visible columns of a stream
// @Description  Returns the caller's saved column selection, or the stream defaults.
// @Tags         columns
// @Produce      json
// @Param        kind  path      string  true  "Stream" Enums(system, audit, error, llm)
// @Success      200   {object}  model.Response{data=dto.ColumnsResponse}
// @Failure      400   {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/logs/columns/{kind} [get]
func (c *ColumnsController) GetColumns(ctx *gin.Context) {
	kind, err := model.ParseKind(ctx.Param("kind"))
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}
	result, err := c.columnsService.Get(ctx.Request.Context(), ctx.GetString(middleware.ContextUserID), kind)
	if err != nil {
		respondError(ctx, err, "Failed to load columns")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("", result))
}

// SaveColumns godoc
// @Summary      Save visible columns
// @Description  Stores the caller's column selection for a stream. An empty list resets to the defaults.
// @Tags         columns
// @Accept       json
// @Produce      json
// @Param        kind     path      string              true  "Stream" Enums(system, audit, error, llm)
// @Param        request  body      dto.ColumnsRequest  true  "Columns in display order"
// @Success      200      {object}  model.Response{data=dto.ColumnsResponse}
// @Failure      400      {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/logs/columns/{kind} [put]
func (c *ColumnsController) SaveColumns(ctx *gin.Context) {
	kind, err := model.ParseKind(ctx.Param("kind"))
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}
	var req dto.ColumnsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}
	result, err := c.columnsService.Save(ctx.Request.Context(), ctx.GetString(middleware.ContextUserID), kind, req.Columns)
	if err != nil {
		respondError(ctx, err, "Failed to save columns")
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("Columns saved", result))
}
