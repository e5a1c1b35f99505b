package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/model"
	"ragstack/internal/transport/http/middleware"
	"ragstack/internal/transport/http/response"
)

type ConnectorHandler struct {
	connectorService *app.ConnectorService
	systemService    *app.SystemService
}

type CreateConnectorRequest struct {
	Name     string                  `json:"name" binding:"required,min=1,max=255"`
	Type     string                  `json:"type" binding:"required"`
	Config   model.ConnectorConfig   `json:"config"`
	Settings *model.SyncSettings     `json:"sync_settings"`
	Filters  *model.ConnectorFilters `json:"filters"`
}

type UpdateConnectorRequest struct {
	Name     *string                 `json:"name" binding:"omitempty,min=1,max=255"`
	Config   *model.ConnectorConfig  `json:"config"`
	Settings *model.SyncSettings     `json:"sync_settings"`
	Filters  *model.ConnectorFilters `json:"filters"`
	Status   *string                 `json:"status" binding:"omitempty,oneof=active inactive"`
}

func NewConnectorHandler(connectorService *app.ConnectorService, systemService *app.SystemService) *ConnectorHandler {
	return &ConnectorHandler{connectorService: connectorService, systemService: systemService}
}

func (h *ConnectorHandler) Create(c *gin.Context) {
	var req CreateConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	connector, err := h.connectorService.Create(middleware.AccessorFrom(c), app.CreateConnectorInput{
		Name:     req.Name,
		Type:     req.Type,
		Config:   req.Config,
		Settings: req.Settings,
		Filters:  req.Filters,
	})
	if err != nil {
		respondServiceError(c, err, "create connector failed")
		return
	}
	response.OK(c, connector)
}

func (h *ConnectorHandler) Get(c *gin.Context) {
	connector, err := h.connectorService.Get(middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "fetch connector failed")
		return
	}
	response.OK(c, connector)
}

func (h *ConnectorHandler) List(c *gin.Context) {
	offset, limit := pagination(c)
	connectors, total, err := h.connectorService.List(
		middleware.AccessorFrom(c),
		c.Query("type"),
		c.Query("status"),
		offset, limit,
	)
	if err != nil {
		respondServiceError(c, err, "list connectors failed")
		return
	}
	response.OK(c, response.Page{Items: connectors, Total: total, Offset: offset, Limit: limit})
}

func (h *ConnectorHandler) Update(c *gin.Context) {
	var req UpdateConnectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	connector, err := h.connectorService.Update(middleware.AccessorFrom(c), c.Param("id"), app.UpdateConnectorInput{
		Name:     req.Name,
		Config:   req.Config,
		Settings: req.Settings,
		Filters:  req.Filters,
		Status:   req.Status,
	})
	if err != nil {
		respondServiceError(c, err, "update connector failed")
		return
	}
	response.OK(c, connector)
}

func (h *ConnectorHandler) Delete(c *gin.Context) {
	if err := h.connectorService.Delete(middleware.AccessorFrom(c), c.Param("id")); err != nil {
		respondServiceError(c, err, "delete connector failed")
		return
	}
	response.OK(c, nil)
}

func (h *ConnectorHandler) Sync(c *gin.Context) {
	connector, err := h.connectorService.TriggerSync(c.Request.Context(), middleware.AccessorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "trigger sync failed")
		return
	}
	response.OK(c, connector)
}

// Logs returns the audit trail of a connector (creation, updates, syncs).
func (h *ConnectorHandler) Logs(c *gin.Context) {
	accessor := middleware.AccessorFrom(c)
	if _, err := h.connectorService.Get(accessor, c.Param("id")); err != nil {
		respondServiceError(c, err, "fetch connector failed")
		return
	}

	offset, limit := pagination(c)
	logs, total, err := h.systemService.ResourceAuditLogs(accessor, "connectors", c.Param("id"), offset, limit)
	if err != nil {
		respondServiceError(c, err, "list connector logs failed")
		return
	}
	response.OK(c, response.Page{Items: logs, Total: total, Offset: offset, Limit: limit})
}

func (h *ConnectorHandler) Types(c *gin.Context) {
	response.OK(c, h.connectorService.Types())
}
