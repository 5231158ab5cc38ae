package server

import (
	"fmt"
	"net/http"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/session"
	"auction-marketplace/utils"

	"github.com/gin-gonic/gin"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's when present
func RequestIDMiddleware(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = utils.GenerateID()
	}
	c.Set(requestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"request_id": c.GetString(requestIDKey),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"user_id":    session.UserID(c),
		"latency":    time.Since(start).String(),
	})
}

// Authenticate resolves a bearer token into a session identity. Requests
// without an Authorization header pass through anonymously; a bad token is
// rejected.
func Authenticate(parser *session.Parser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token, ok := session.BearerToken(header)
		if !ok {
			err := fmt.Errorf("malformed authorization header: %w", biddingerrors.ErrUnauthenticated)
			utils.JSONAbort(c, http.StatusUnauthorized, err, "authentication required")
			return
		}
		id, err := parser.Parse(token)
		if err != nil {
			utils.Warn("Authenticate: rejected token", map[string]any{
				"request_id": c.GetString(requestIDKey),
				"error":      err.Error(),
			})
			utils.JSONAbort(c, http.StatusUnauthorized, err, "authentication required")
			return
		}

		session.Set(c, id)
		c.Next()
	}
}

// RequireUser rejects requests without a session
func RequireUser(c *gin.Context) {
	if _, ok := session.FromContext(c); !ok {
		utils.JSONAbort(c, http.StatusUnauthorized, biddingerrors.ErrUnauthenticated, "authentication required")
		return
	}
	c.Next()
}
