// Package httpapi exposes the authentication facade over HTTP. Transport
// hardening (TLS, network policy) belongs to the deployment environment;
// the handlers assume an already-trusted channel.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wisespend/authcore/internal/auth"
	"github.com/wisespend/authcore/internal/common"
)

// Handler wires HTTP routes to the authentication facade.
type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/logout", h.logout)
		api.GET("/session", h.session)
		api.POST("/activity", h.activity)
		api.GET("/status", h.status)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.GET("/debug/logs", h.logs)
		api.DELETE("/debug/logs", h.clearLogs)
	}
}

type registerRequest struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.svc.Register(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, summary)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context()); err != nil {
		writeAuthError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) {
	active := h.svc.CheckSession(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"active": active})
}

func (h *Handler) activity(c *gin.Context) {
	h.svc.Touch(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.SystemStatus(c.Request.Context()))
}

func (h *Handler) logs(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Logs())
}

func (h *Handler) clearLogs(c *gin.Context) {
	h.svc.ClearLogs()
	c.Status(http.StatusNoContent)
}

// writeAuthError maps the facade's structured error onto an HTTP status and
// a JSON body with enough detail for UI feedback.
func writeAuthError(c *gin.Context, err error) {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"error": authErr.Message}
	if len(authErr.FailedRules) > 0 {
		body["failed_rules"] = authErr.FailedRules
	}
	if authErr.RemainingAttempts > 0 {
		body["remaining_attempts"] = authErr.RemainingAttempts
	}
	if authErr.RemainingLockout > 0 {
		body["remaining_lockout_minutes"] = authErr.RemainingLockoutMinutes()
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, common.ErrUserExists):
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, body)
	case errors.Is(err, common.ErrAccountLocked):
		c.JSON(http.StatusLocked, body)
	case errors.Is(err, common.ErrDerivationFailed):
		c.JSON(http.StatusServiceUnavailable, body)
	case errors.Is(err, common.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, body)
	default:
		c.JSON(http.StatusInternalServerError, body)
	}
}
