package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/repository"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type AdminHandler struct {
	systemService *app.SystemService
}

type SetUserActiveRequest struct {
	Active bool `json:"active"`
}

type SetUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin user viewer"`
}

func NewAdminHandler(systemService *app.SystemService) *AdminHandler {
	return &AdminHandler{systemService: systemService}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.systemService.Stats(middleware.AccessorFrom(c))
	if err != nil {
		respondServiceError(c, err, "fetch stats failed")
		return
	}
	response.OK(c, stats)
}

func (h *AdminHandler) Services(c *gin.Context) {
	services, err := h.systemService.CheckServices(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "check services failed")
		return
	}
	response.OK(c, services)
}

func (h *AdminHandler) AuditLogs(c *gin.Context) {
	offset, limit := pagination(c)

	filter := repository.AuditFilter{
		UserID:       c.Query("user_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Severity:     c.Query("severity"),
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid since timestamp")
			return
		}
		filter.Since = t
	}
	if until := c.Query("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid until timestamp")
			return
		}
		filter.Until = t
	}

	logs, total, err := h.systemService.AuditLogs(middleware.AccessorFrom(c), filter, offset, limit)
	if err != nil {
		respondServiceError(c, err, "list audit logs failed")
		return
	}
	response.OK(c, response.Page{Items: logs, Total: total, Offset: offset, Limit: limit})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset, limit := pagination(c)
	users, total, err := h.systemService.ListUsers(middleware.AccessorFrom(c), offset, limit)
	if err != nil {
		respondServiceError(c, err, "list users failed")
		return
	}
	response.OK(c, response.Page{Items: users, Total: total, Offset: offset, Limit: limit})
}

func (h *AdminHandler) SetUserActive(c *gin.Context) {
	var req SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.systemService.SetUserActive(middleware.AccessorFrom(c), c.Param("id"), req.Active)
	if err != nil {
		respondServiceError(c, err, "update user failed")
		return
	}
	response.OK(c, user)
}

func (h *AdminHandler) SetUserRole(c *gin.Context) {
	var req SetUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.systemService.SetUserRole(middleware.AccessorFrom(c), c.Param("id"), req.Role)
	if err != nil {
		respondServiceError(c, err, "update user role failed")
		return
	}
	response.OK(c, user)
}
