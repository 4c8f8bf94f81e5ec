package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/models"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
	"github.com/noah-isme/exam-records-api/pkg/response"
)

// RequireTeacher rejects anonymous requests, pointing the client back at the login view.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).Authenticated() {
			response.ErrorWithRedirect(c, appErrors.Clone(appErrors.ErrUnauthenticated, "you must log in first"), models.ViewLogin)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireEO limits a route to examination officers. Other teachers are sent back to their dashboard.
func RequireEO() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !actor.Authenticated() {
			response.ErrorWithRedirect(c, appErrors.Clone(appErrors.ErrUnauthenticated, "you must log in first"), models.ViewLogin)
			c.Abort()
			return
		}
		if !actor.IsEO() {
			response.ErrorWithRedirect(c, appErrors.Clone(appErrors.ErrAccessDenied, "access denied, EO only"), models.ViewTeacherDashboard)
			c.Abort()
			return
		}
		c.Next()
	}
}
