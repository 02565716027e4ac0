package middleware

import (
	"github.com/estudio-tools/workflow-api/internal/constants"
	"github.com/estudio-tools/workflow-api/internal/database"
	apierrors "github.com/estudio-tools/workflow-api/internal/errors"
	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth checks the session and loads the current user (with their area
// memberships) into the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)

		if userID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		id, ok := toUint64(userID)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().Preload("Areas").First(&user, id).Error; err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, id)
		c.Set(constants.ContextKeyUser, &user)
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin users. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok || !user.IsAdmin {
			apierrors.Forbidden(c, "Administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

// GetCurrentUser retrieves the loaded user model from context
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint:
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}
