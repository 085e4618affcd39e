// Package handler exposes the workflow HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/workflows/service"
	"leadflow_backend/internal/workflows/transport"
	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/validator"
)

// Handler serves workflow instance and task endpoints.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

// New creates a new workflows handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// RegisterRoutes mounts the workflow endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", h.CreateInstance)
	group.GET("/:id", h.GetInstance)
	group.POST("/:id/tasks", h.CreateTask)
	group.GET("/tasks/:taskId", h.GetTask)
	group.POST("/tasks/:taskId/execute", h.ExecuteTask)
}

// CreateInstance starts a workflow.
func (h *Handler) CreateInstance(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}

	var req transport.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	instance, err := h.svc.CreateInstance(c.Request.Context(), tenantID, id.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, instance)
}

// GetInstance returns a workflow instance.
func (h *Handler) GetInstance(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	instanceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	instance, err := h.svc.GetInstance(c.Request.Context(), instanceID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, instance)
}

// CreateTask adds a task to a workflow instance.
func (h *Handler) CreateTask(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	instanceID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req transport.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	task, err := h.svc.CreateTask(c.Request.Context(), tenantID, instanceID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, task)
}

// GetTask returns a workflow task with its latest result.
func (h *Handler) GetTask(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}

	task, err := h.svc.GetTask(c.Request.Context(), taskID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, task)
}

// ExecuteTask runs a task's actions immediately.
func (h *Handler) ExecuteTask(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}
	tenantID, ok := httpkit.MustGetTenantID(c, id)
	if !ok {
		return
	}
	taskID, ok := parseID(c, "taskId")
	if !ok {
		return
	}

	result, err := h.svc.ExecuteTask(c.Request.Context(), taskID, tenantID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ExecuteTaskResponse{TaskID: taskID, Result: result})
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	parsed, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid "+name, nil)
		return uuid.Nil, false
	}
	return parsed, true
}
