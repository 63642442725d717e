package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

// Handler handles authentication endpoints
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers auth routes. Login and refresh are public; /me
// requires the principal middleware.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authed gin.HandlerFunc) {
	group := router.Group("/auth")
	{
		group.POST("/login", h.login)
		group.POST("/refresh", h.refresh)
		group.POST("/logout", authed, h.logout)
		group.GET("/me", authed, h.me)
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, creds, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(apperrors.StatusCode(err), gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authToken":    pair.AuthToken,
		"refreshToken": pair.RefreshToken,
		"account": gin.H{
			"id":        creds.ID.Hex(),
			"name":      creds.Name,
			"email":     creds.Email,
			"userLevel": creds.RoleLevel,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// logout is acknowledgement only. Tokens are stateless and short-lived, so
// the client discards its pair; the event is logged for the audit trail.
func (h *Handler) logout(c *gin.Context) {
	principal := PrincipalFrom(c)
	h.logger.Info("account logged out", zap.String("account_id", principal.AccountID.Hex()))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	principal := PrincipalFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"accountId": principal.AccountID.Hex(),
		"roleLevel": principal.RoleLevel,
	})
}
