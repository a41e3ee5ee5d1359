// Package middleware provides the cross-cutting HTTP middleware: request
// identification, structured request logging and metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id to clients and upstream proxies.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key for the request id.
const requestIDKey = "request_id"

// RequestID assigns every request a unique id, honoring one supplied by the
// caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
