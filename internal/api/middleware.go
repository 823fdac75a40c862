package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Context keys set by the middleware.
const (
	loggerKey    = "logger"
	sessionIDKey = "session_id"
)

// Headers read or written by the middleware.
const (
	RequestIDHeader    = "X-Request-ID"
	SessionTokenHeader = "X-Session-Token"
)

// RequestLogger tags each request with a request ID and logs it on completion.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(loggerKey, log.WithField("request_id", requestID))

		c.Next()

		entry := loggerFrom(c).WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request handled")
	}
}

// RequireSession rejects requests without a valid session token and
// stores the session ID in the context.
func (k *KitchenAPI) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "session token required"))
			return
		}

		id, err := k.tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", err.Error()))
			return
		}

		c.Set(sessionIDKey, id)
		c.Set(loggerKey, loggerFrom(c).WithField("session", id))
		c.Next()
	}
}

// sessionToken reads the token from the session header, a bearer
// Authorization header, or the token query parameter used by websockets.
func sessionToken(c *gin.Context) string {
	if token := c.GetHeader(SessionTokenHeader); token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Query("token")
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

func loggerFrom(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if log, ok := v.(logrus.FieldLogger); ok {
			return log
		}
	}
	return logrus.StandardLogger()
}
