package tasks

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/auth"
	"fieldverify/verification-portal-backend/internal/forms"
)

// Handler handles HTTP requests for tasks and their form data
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new tasks handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers task routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	tasks := router.Group("/tasks")
	{
		tasks.POST("", h.createTask)
		tasks.GET("/assigned-to-me", h.assignedToMe)
		tasks.GET("/assigned-by-me", h.assignedByMe)
		tasks.GET("/:id", h.getTask)
		tasks.PATCH("/:id", h.updateTask)
		tasks.POST("/:id/assign", h.assignTask)
		tasks.POST("/:id/transfer", h.transferTask)
		tasks.POST("/:id/status", h.updateStatus)
		tasks.GET("/:id/form-data", h.getFormData)
		tasks.POST("/:id/form-data", h.updateFormData)
		tasks.POST("/:id/attachment", h.uploadAttachment)
		tasks.DELETE("/:id/attachment/:name", h.deleteAttachment)
	}
}

func (h *Handler) createTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), auth.PrincipalFrom(c), req)
	if err != nil {
		h.respondError(c, "failed to create task", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": task.ID})
}

func (h *Handler) getTask(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), auth.PrincipalFrom(c), id)
	if err != nil {
		h.respondError(c, "failed to fetch task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *Handler) updateTask(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateTask(c.Request.Context(), auth.PrincipalFrom(c), id, req); err != nil {
		h.respondError(c, "failed to update task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type assignRequest struct {
	AgentID string `json:"agentId" binding:"required"`
}

func (h *Handler) assignTask(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}
	agentID, ok := h.bindAgentID(c)
	if !ok {
		return
	}

	if err := h.service.AssignTask(c.Request.Context(), auth.PrincipalFrom(c), id, agentID); err != nil {
		h.respondError(c, "failed to assign task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

func (h *Handler) transferTask(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}
	agentID, ok := h.bindAgentID(c)
	if !ok {
		return
	}

	if err := h.service.TransferTask(c.Request.Context(), auth.PrincipalFrom(c), id, agentID); err != nil {
		h.respondError(c, "failed to transfer task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "transferred"})
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	if err := h.service.UpdateTaskStatus(c.Request.Context(), auth.PrincipalFrom(c), id, status); err != nil {
		h.respondError(c, "failed to update status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) assignedToMe(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	views, err := h.service.AssignedToMe(c.Request.Context(), auth.PrincipalFrom(c), filter)
	if err != nil {
		h.respondError(c, "failed to list tasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

func (h *Handler) assignedByMe(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	views, err := h.service.AssignedByMe(c.Request.Context(), auth.PrincipalFrom(c), filter)
	if err != nil {
		h.respondError(c, "failed to list tasks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": views})
}

func (h *Handler) getFormData(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	typesParam := c.Query("types")
	if typesParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "types query parameter is required"})
		return
	}
	var kinds []forms.Kind
	for _, raw := range strings.Split(typesParam, ",") {
		kind, err := forms.ParseKind(strings.TrimSpace(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown form type"})
			return
		}
		kinds = append(kinds, kind)
	}

	formInfo, err := h.service.FetchFormData(c.Request.Context(), auth.PrincipalFrom(c), id, kinds)
	if err != nil {
		h.respondError(c, "failed to fetch form data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"formInfo": formInfo})
}

type formDataRequest struct {
	Type string                 `json:"type" binding:"required"`
	Data map[string]interface{} `json:"data" binding:"required"`
}

func (h *Handler) updateFormData(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	var req formDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := forms.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown form type"})
		return
	}

	if err := h.service.UpdateFormData(c.Request.Context(), auth.PrincipalFrom(c), id, kind, req.Data); err != nil {
		h.respondError(c, "failed to update form data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) uploadAttachment(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	name, err := h.service.UploadAttachment(c.Request.Context(), auth.PrincipalFrom(c), id,
		fileHeader.Filename, file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.respondError(c, "failed to upload attachment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (h *Handler) deleteAttachment(c *gin.Context) {
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}
	name := c.Param("name")

	if err := h.service.DeleteAttachment(c.Request.Context(), auth.PrincipalFrom(c), id, name); err != nil {
		h.respondError(c, "failed to delete attachment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) bindAgentID(c *gin.Context) (primitive.ObjectID, bool) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return primitive.NilObjectID, false
	}
	agentID, err := primitive.ObjectIDFromHex(req.AgentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid agent id"})
		return primitive.NilObjectID, false
	}
	return agentID, true
}

func (h *Handler) listFilter(c *gin.Context) (ListFilter, bool) {
	var filter ListFilter
	if raw := c.Query("priority"); raw != "" {
		priority, err := ParsePriority(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority"})
			return filter, false
		}
		filter.Priority = &priority
	}
	if raw := c.Query("status"); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return filter, false
		}
		filter.Status = &status
	}
	if raw := c.Query("start"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date"})
			return filter, false
		}
		filter.DueAfter = &start
	}
	if raw := c.Query("end"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date"})
			return filter, false
		}
		filter.DueBefore = &end
	}
	return filter, true
}

func (h *Handler) objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
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
