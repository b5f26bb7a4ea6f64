package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carbon-admin-console/internal/dto"
	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/service"
)

type ToolsController struct {
	toolsService service.ToolsService
}

func NewToolsController(toolsService service.ToolsService) *ToolsController {
	return &ToolsController{toolsService: toolsService}
}

func RegisterToolsRoutes(admin *gin.RouterGroup, controller *ToolsController) {
	admin.POST("/audit/diff", controller.Diff)
	admin.POST("/json/tree", controller.Tree)
}

// Diff godoc
// @Summary      Diff two audit values
// @Description  Compares old and new values (objects, arrays, scalars or JSON strings) and renders the changes inline, side by side or as two trees.
// @Tags         tools
// @Accept       json
// @Produce      json
// @Param        request  body      dto.DiffRequest  true  "Values and mode (inline, side-by-side, tree)"
// @Success      200      {object}  model.Response{data=dto.DiffResponse}
// @Failure      400      {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/audit/diff [post]
func (c *ToolsController) Diff(ctx *gin.Context) {
	var req dto.DiffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("", c.toolsService.Diff(req)))
}

// Tree godoc
// @Summary      Render a JSON tree
// @Description  Returns the visible rows of a JSON value with the root expanded, everything expanded, or the ancestors of search matches expanded.
// @Tags         tools
// @Accept       json
// @Produce      json
// @Param        request  body      dto.TreeRequest  true  "Value and view options"
// @Success      200      {object}  model.Response{data=dto.TreeResponse}
// @Failure      400      {object}  model.Response
// @Security     Bearer
// @Router       /api/v1/admin/json/tree [post]
func (c *ToolsController) Tree(ctx *gin.Context) {
	var req dto.TreeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}
	ctx.JSON(http.StatusOK, model.NewResponse("", c.toolsService.Tree(req)))
}
