package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ragstack/internal/model"
	"ragstack/internal/repository"
)

// Audit records every mutating request as an audit log entry after the
// handler runs. Reads are not audited.
func Audit(auditRepo *repository.AuditRepository, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}

		status := c.Writer.Status()
		severity := "info"
		if status >= 500 {
			severity = "error"
		} else if status >= 400 {
			severity = "warning"
		}

		entry := &model.AuditLog{
			UserID:       c.GetString(ContextUserIDKey),
			Action:       actionFor(c.Request.Method, c.FullPath()),
			ResourceType: resourceTypeFor(c.FullPath()),
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			TenantID:     c.GetString(ContextTenantIDKey),
			Severity:     severity,
			Success:      status < 400,
		}
		if err := auditRepo.Create(entry); err != nil {
			logger.Error("write audit log failed", zap.Error(err))
		}
	}
}

func actionFor(method, path string) string {
	verb := map[string]string{
		http.MethodPost:   "create",
		http.MethodPut:    "update",
		http.MethodPatch:  "update",
		http.MethodDelete: "delete",
	}[method]
	return verb + ":" + path
}

// resourceTypeFor takes the first path segment after the API prefix.
func resourceTypeFor(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/v1/")
	if i := strings.Index(trimmed, "/"); i > 0 {
		return trimmed[:i]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
