package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/estudio-tools/workflow-api/internal/dto"
	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/estudio-tools/workflow-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// ProcessHandler coordinates process lifecycle HTTP handlers.
type ProcessHandler struct {
	processService *services.ProcessService
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processService *services.ProcessService) *ProcessHandler {
	return &ProcessHandler{
		processService: processService,
	}
}

// ListProcesses returns the processes visible under the caller's scope.
func (h *ProcessHandler) ListProcesses(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	var status *models.ProcessStatus
	if s := c.Query("status"); s != "" {
		ps := models.ProcessStatus(s)
		status = &ps
	}

	processes, total, err := h.processService.List(services.ResolveScope(actor, nil), status, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch processes")
		return
	}

	out := make([]dto.ProcessDTO, len(processes))
	for i, p := range processes {
		out[i] = dto.ToProcessDTO(p)
	}
	c.JSON(http.StatusOK, dto.ProcessListResponse{
		Processes:  out,
		Page:       params.Page,
		PageSize:   params.Limit,
		TotalCount: total,
	})
}

// CreateProcess creates a new process from a process type.
func (h *ProcessHandler) CreateProcess(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProcessRequest struct {
		ProcessTypeID uint64    `json:"process_type_id" binding:"required"`
		Name          string    `json:"name" binding:"required"`
		Description   string    `json:"description"`
		DueDate       time.Time `json:"due_date" binding:"required"`
	}

	var req CreateProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	process, err := h.processService.Create(services.CreateProcessInput{
		ProcessTypeID: req.ProcessTypeID,
		Name:          req.Name,
		Description:   req.Description,
		DueDate:       req.DueDate,
		Actor:         actor,
	})
	if err != nil {
		respondProcessError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProcessDTO(*process))
}

// GetProcess returns a process with its member tasks.
func (h *ProcessHandler) GetProcess(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid process ID")
		return
	}

	process, err := h.processService.Get(id, services.ResolveScope(actor, nil))
	if err != nil {
		respondProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProcessDTO(*process))
}

// CompleteProcess manually completes a process. With open member tasks the
// caller must pass force, otherwise the request is rejected with the count.
func (h *ProcessHandler) CompleteProcess(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid process ID")
		return
	}

	type CompleteRequest struct {
		Force bool `json:"force"`
	}
	var req CompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	process, err := h.processService.Complete(services.CompleteInput{
		ProcessID: id,
		Actor:     actor,
		Force:     req.Force,
	})
	if err != nil {
		respondProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProcessDTO(*process))
}

// TransferProcess moves a process to another area.
func (h *ProcessHandler) TransferProcess(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid process ID")
		return
	}

	type TransferRequest struct {
		ToAreaID uint64 `json:"to_area_id" binding:"required"`
		Comment  string `json:"comment"`
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	process, err := h.processService.Transfer(services.TransferInput{
		ProcessID: id,
		ToAreaID:  req.ToAreaID,
		Actor:     actor,
		Comment:   req.Comment,
	})
	if err != nil {
		respondProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProcessDTO(*process))
}

// CancelProcess cancels a process and annuls its member tasks.
func (h *ProcessHandler) CancelProcess(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid process ID")
		return
	}

	process, err := h.processService.Cancel(id, actor)
	if err != nil {
		respondProcessError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProcessDTO(*process))
}

// ListTransfers returns a process's transfer history.
func (h *ProcessHandler) ListTransfers(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	id, ok := paramUint64(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid process ID")
		return
	}

	transfers, err := h.processService.ListTransfers(id, services.ResolveScope(actor, nil))
	if err != nil {
		respondProcessError(c, err)
		return
	}

	out := make([]dto.ProcessTransferDTO, len(transfers))
	for i, t := range transfers {
		out[i] = dto.ToProcessTransferDTO(t)
	}
	c.JSON(http.StatusOK, gin.H{"transfers": out})
}

func respondProcessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProcessNotFound),
		errors.Is(err, services.ErrProcessTypeNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProcessPermission),
		errors.Is(err, services.ErrAreaNotAllowed):
		apierrors.RespondWithError(c, http.StatusForbidden,
			apierrors.NewAPIError(apierrors.ErrCodePermissionDenied, err.Error()))
	case errors.Is(err, services.ErrProcessPendingTasks):
		apierrors.RespondWithError(c, http.StatusConflict,
			apierrors.NewAPIError(apierrors.ErrCodeProcessHasPending, err.Error()))
	case errors.Is(err, services.ErrProcessNotActive),
		errors.Is(err, services.ErrSameAreaTransfer):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
