package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"carbon-admin-console/internal/model"
	"carbon-admin-console/internal/repository"
	"carbon-admin-console/internal/service"
)

// respondError maps validation errors to 400 and everything else to 500
// with a generic message.
func respondError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, service.ErrInvalidRequest) || errors.Is(err, repository.ErrInvalidQuery) {
		ctx.JSON(http.StatusBadRequest, model.NewErrorResponse(err.Error()))
		return
	}
	log.Error().Err(err).Str("path", ctx.FullPath()).Msg(message)
	ctx.JSON(http.StatusInternalServerError, model.NewErrorResponse(message))
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, model.NewErrorResponse(message))
}

func intQuery(ctx *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(ctx.Query(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func splitQuery(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
