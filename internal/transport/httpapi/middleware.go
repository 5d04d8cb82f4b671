package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/dating-app/internal/auth"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/utils/pagination"
)

const headerRequestID = "X-Request-ID"

// RequestLogger returns a Gin middleware that:
//  1. Generates or reads a request ID from X-Request-ID header.
//  2. Creates a child logger with request metadata and injects it into context.
//  3. Sets the X-Request-ID response header.
//  4. Logs the completed request with status, latency, and actor info.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := base.With(
			logger.FieldRequestID, reqID,
			logger.FieldMethod, c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			logger.FieldClientIP, c.ClientIP(),
		)

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), child))

		c.Next()

		attrs := []any{
			logger.FieldStatus, c.Writer.Status(),
			logger.FieldLatency, time.Since(start).Milliseconds(),
		}
		if id, ok := c.Get(auth.UserIDKey); ok {
			attrs = append(attrs, logger.FieldUserID, id)
		}
		if name, ok := c.Get(auth.UsernameKey); ok {
			attrs = append(attrs, logger.FieldUsername, name)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "err", c.Errors.Last().Err)
		}

		child.Info("request completed", attrs...)
	}
}

// TouchLastActive stamps the caller's last activity once an authenticated
// request has been handled.
func TouchLastActive(users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		id := auth.GetUserID(c)
		if id == 0 {
			return
		}
		ctx := c.Request.Context()
		if err := users.TouchLastActive(ctx, id, time.Now().UTC()); err != nil {
			logger.Ctx(ctx, nil).Warn("last active update failed", logger.FieldUserID, id, "err", err)
		}
	}
}

// exposePagination lets browsers read the page header on cross-origin calls.
func exposePagination() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Expose-Headers", pagination.HeaderName)
		c.Next()
	}
}
