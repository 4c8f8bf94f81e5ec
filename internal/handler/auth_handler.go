package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/exam-records-api/internal/middleware"
	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/service"
	"github.com/noah-isme/exam-records-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

// CookieConfig describes the session cookie issued on login.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	metrics *service.MetricsService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, metrics *service.MetricsService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, metrics: metrics, cookie: cookie}
}

// Login godoc
// @Summary Authenticate teacher
// @Description Authenticate a teacher by name and password and start a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	h.metrics.RecordLogin(service.OutcomeLabel(err))
	if err != nil {
		response.ErrorWithRedirect(c, err, models.ViewLogin)
		return
	}

	if h.cookie.Name != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookie.Name, res.Token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
	}
	response.JSON(c, http.StatusOK, res, nil, map[string]interface{}{
		"redirect": res.Redirect,
		"message":  "Welcome, " + res.Teacher.Name + "!",
	})
}

// Logout godoc
// @Summary End the current session
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	if h.cookie.Name != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	}
	response.JSON(c, http.StatusOK, gin.H{"logged_out": true}, nil, map[string]interface{}{
		"redirect": models.ViewLogin,
		"message":  "Logged out successfully.",
	})
}

// Me godoc
// @Summary Current teacher
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	response.JSON(c, http.StatusOK, actor.Teacher.Info(), nil, map[string]interface{}{
		"redirect": service.LandingView(actor.Teacher),
	})
}
