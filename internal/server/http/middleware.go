package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/credauth/internal/common"
	"github.com/dmitrijs2005/credauth/internal/logging"
	"github.com/dmitrijs2005/credauth/internal/server/auth"
	"github.com/dmitrijs2005/credauth/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const claimsKey = "claims"

// Observer receives per-request measurements.
type Observer interface {
	ObserveHTTP(method, route string, status int, elapsed time.Duration)
}

// RequestID reuses an incoming X-Request-ID or mints one, echoes it and
// stores it in the request context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog logs each request and reports it to obs (may be nil).
func AccessLog(l logging.Logger, obs Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		l.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
		)
		if obs != nil {
			obs.ObserveHTTP(c.Request.Method, route, status, elapsed)
		}
	}
}

// RequireRole admits only bearers of a valid token whose role is role.
func RequireRole(v TokenVerifier, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			respondError(c, http.StatusUnauthorized, codeUnauth, msgUnauth)
			c.Abort()
			return
		}

		claims, err := v.Verify(token)
		if err != nil || claims.Role != role.String() {
			respondError(c, http.StatusUnauthorized, codeUnauth, msgUnauth)
			c.Abort()
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(*auth.Claims)
	if claims == nil {
		return &auth.Claims{}
	}
	return claims
}
