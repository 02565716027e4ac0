package handlers

import (
	"net/http"

	"github.com/estudio-tools/workflow-api/internal/dto"
	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/middleware"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/services"
	"github.com/gin-gonic/gin"
)

// UserHandler coordinates user administration HTTP handlers.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// CreateUser registers a new user. Admin only.
func (h *UserHandler) CreateUser(c *gin.Context) {
	type CreateUserRequest struct {
		Username string      `json:"username" binding:"required,min=3,max=80"`
		Email    string      `json:"email" binding:"required,email"`
		Password string      `json:"password" binding:"required"`
		FullName string      `json:"full_name" binding:"required"`
		Role     models.Role `json:"role"`
		IsAdmin  bool        `json:"is_admin"`
		AreaIDs  []uint64    `json:"area_ids"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.authService.CreateUser(services.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		IsAdmin:  req.IsAdmin,
		AreaIDs:  req.AreaIDs,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// ListUsers returns the users visible under the caller's scope.
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := middleware.GetCurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	users, err := h.authService.ListUsers(services.ResolveScope(actor, nil))
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	out := make([]dto.UserDTO, len(users))
	for i, u := range users {
		out[i] = dto.ToUserDTO(u)
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}
