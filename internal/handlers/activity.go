package handlers

import (
	"net/http"

	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/estudio-tools/workflow-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	activityService *services.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

// ListActivity returns the activity entries visible under the caller's scope.
// Reports are limited to supervisors, gerentes and admins.
func (h *ActivityHandler) ListActivity(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}
	if !actor.CanSeeReports() {
		apierrors.Forbidden(c, "Reports are not available for this role")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListActivityInput{
		Scope:    services.ResolveScope(actor, nil),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if v, ok := queryUint64(c, "user_id"); ok {
		input.UserID = &v
	}
	if a := c.Query("action"); a != "" {
		input.Action = &a
	}

	entries, total, err := h.activityService.List(input)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"activity": entries,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}
