// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/models"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

const (
	redacted        = "[REDACTED]"
	maxAuditBody    = 64 << 10
	auditSkipHealth = "/health"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// AuditLogMiddleware records every mutating request after it has been
// handled. Password fields never reach the audit table.
func AuditLogMiddleware(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for reads and health checks
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions ||
			c.Request.URL.Path == auditSkipHealth {
			c.Next()
			return
		}

		multipartBody := strings.HasPrefix(c.ContentType(), "multipart/")

		// Read request body; multipart uploads are summarised from the parsed form instead
		var requestBody []byte
		if c.Request.Body != nil && !multipartBody {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		var values map[string]interface{}
		if multipartBody {
			values = multipartValues(c.Request)
		} else if len(requestBody) > 0 && len(requestBody) <= maxAuditBody {
			if err := json.Unmarshal(requestBody, &values); err != nil {
				values = nil
			}
		}

		auditLog := &models.AuditLog{
			Action:       method + " " + c.Request.URL.Path,
			ResourceType: extractResourceType(c.Request.URL.Path),
			StatusCode:   c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			NewValues:    models.JSONB(redact(values)),
		}

		if userID, ok := utils.GetUserIDFromContext(c); ok {
			auditLog.UserID = &userID
		}

		// Extract resource ID from URL if present
		if resourceID := extractResourceID(c.Request.URL.Path); resourceID != "" {
			if parsed, err := uuid.Parse(resourceID); err == nil {
				auditLog.ResourceID = &parsed
			}
		}

		if err := recorder.Record(c.Request.Context(), auditLog); err != nil {
			logrus.WithError(err).WithField("action", auditLog.Action).Error("Failed to create audit log")
		}
	}
}

// RequestLogger writes one structured line per request. The query string is
// left out because the websocket route carries its token there.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}
		if userID, exists := c.Get("user_id"); exists {
			fields["user_id"] = userID
			fields["username"] = utils.GetUsernameFromContext(c)
		}

		entry := logrus.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request processed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}

func multipartValues(r *http.Request) map[string]interface{} {
	if r.MultipartForm == nil {
		return nil
	}

	values := make(map[string]interface{})
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	for key, files := range r.MultipartForm.File {
		if len(files) > 0 {
			values[key] = files[0].Filename
		}
	}
	return values
}

// redact masks password-like keys at any depth.
func redact(values map[string]interface{}) map[string]interface{} {
	for key, value := range values {
		if strings.Contains(strings.ToLower(key), "password") {
			values[key] = redacted
			continue
		}
		if nested, ok := value.(map[string]interface{}); ok {
			values[key] = redact(nested)
		}
	}
	return values
}

func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return parts[1]
	}
	if len(parts) >= 1 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func extractResourceID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, part := range parts {
		if _, err := uuid.Parse(part); err == nil {
			return part
		}
	}
	return ""
}
