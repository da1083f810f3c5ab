package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// identityHeader carries the authenticated user id, set by the auth gateway
// in front of this service. The service itself performs no authentication.
const identityHeader = "X-User-ID"

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now()

		rqID := uuid.NewString()
		c.Set("rqID", rqID)

		slog.Info(
			"start request",
			slog.String("rqID", rqID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)

		defer func() {
			slog.Info(
				"request finished",
				slog.String("rqID", rqID),
				slog.Int("status", c.Writer.Status()),
				slog.String("request duration", fmt.Sprintf("%.2fs", time.Since(now).Seconds())),
			)
		}()

		c.Next()
	}
}

// Identity rejects requests without the gateway-provided user id and makes
// it available to handlers.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(identityHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + identityHeader + " header"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}
