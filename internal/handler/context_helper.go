package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/models"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
	"github.com/noah-isme/exam-records-api/pkg/response"
)

// respondError writes err, naming the view a browser client should fall back to.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appErrors.ErrUnauthenticated):
		response.ErrorWithRedirect(c, err, models.ViewLogin)
	case errors.Is(err, appErrors.ErrAccessDenied):
		response.ErrorWithRedirect(c, err, models.ViewTeacherDashboard)
	default:
		response.Error(c, err)
	}
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid id")
	}
	return id, nil
}
