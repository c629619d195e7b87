package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pulse-api/internal/middleware"
	"github.com/jwalitptl/pulse-api/internal/model"
	apperrors "github.com/jwalitptl/pulse-api/pkg/errors"
	"github.com/jwalitptl/pulse-api/pkg/httputil"
)

// ParseID reads a positive integer path parameter.
func ParseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

// Actor returns the authenticated caller, responding 401 when there is none.
func Actor(c *gin.Context) (*model.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		httputil.AbortWithError(c, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return actor, true
}

// BindJSON decodes and validates the request body, responding 400 on failure.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return false
	}
	return true
}
