package accounts

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
)

// Handler handles HTTP requests for account management
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers account management routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	accounts := router.Group("/accounts")
	{
		accounts.POST("/admins", h.createAdmin)
		accounts.GET("/admins", h.listAdmins)
		accounts.POST("/agents", h.createAgent)
		accounts.GET("/agents", h.listAgents)
		accounts.GET("/agents/:id", h.getAgent)
		accounts.PATCH("/agents/:id", h.updateAgent)
		accounts.DELETE("/agents/:id", h.removeAgent)
		accounts.PATCH("/me", h.updateMe)
	}
}

func (h *Handler) createAdmin(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.CreateAdmin(c.Request.Context(), auth.PrincipalFrom(c), req)
	if err != nil {
		h.respondError(c, "failed to create admin", err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (h *Handler) listAdmins(c *gin.Context) {
	admins, err := h.service.ListAdmins(c.Request.Context(), auth.PrincipalFrom(c))
	if err != nil {
		h.respondError(c, "failed to list admins", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

func (h *Handler) createAgent(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.CreateAgent(c.Request.Context(), auth.PrincipalFrom(c), req)
	if err != nil {
		h.respondError(c, "failed to create agent", err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

func (h *Handler) listAgents(c *gin.Context) {
	agents, err := h.service.ListAgents(c.Request.Context(), auth.PrincipalFrom(c))
	if err != nil {
		h.respondError(c, "failed to list agents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *Handler) getAgent(c *gin.Context) {
	id, ok := h.objectIDParam(c)
	if !ok {
		return
	}

	agent, err := h.service.GetAgent(c.Request.Context(), auth.PrincipalFrom(c), id)
	if err != nil {
		h.respondError(c, "failed to fetch agent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    agent.ID,
		"name":  agent.Name,
		"email": agent.Email,
		"phone": agent.Phone,
	})
}

func (h *Handler) updateAgent(c *gin.Context) {
	id, ok := h.objectIDParam(c)
	if !ok {
		return
	}

	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.UpdateAgentDetails(c.Request.Context(), auth.PrincipalFrom(c), id, req)
	if err != nil {
		h.respondError(c, "failed to update agent", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) removeAgent(c *gin.Context) {
	id, ok := h.objectIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DisableAccount(c.Request.Context(), auth.PrincipalFrom(c), id); err != nil {
		h.respondError(c, "failed to remove agent", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *Handler) updateMe(c *gin.Context) {
	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateOwnDetails(c.Request.Context(), auth.PrincipalFrom(c), req); err != nil {
		h.respondError(c, "failed to update details", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) objectIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg})
}
