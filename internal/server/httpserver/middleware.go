package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
)

// TokenVerifier turns a bearer token into an Identity. Invalid tokens
// yield auth.Anonymous().
type TokenVerifier interface {
	Verify(token string) auth.Identity
}

// authenticate stores the caller's Identity in the request context. A nil
// verifier means password auth is off: presenting a token is then a 401,
// while requests without one stay anonymous.
func authenticate(verifier TokenVerifier, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))

		id := auth.Anonymous()
		if ok {
			if verifier == nil {
				logger.Warn(c.Request.Context(), "bearer token presented but token verification is not configured")
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			id = verify(c, verifier, token, logger)
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func verify(c *gin.Context, verifier TokenVerifier, token string, logger logging.Logger) (id auth.Identity) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(c.Request.Context(), "token verification panicked", "panic", r)
			id = auth.Anonymous()
		}
	}()

	id = verifier.Verify(token)
	if !id.IsAuthenticated() {
		logger.Debug(c.Request.Context(), "bearer token rejected")
	}
	return id
}

// bearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	if len(header) < len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(common.BearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// correlationID echoes X-Correlation-Id back to the caller.
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.GetHeader(common.CorrelationIDHeaderName); v != "" {
			c.Header(common.CorrelationIDHeaderName, v)
		}
		c.Next()
	}
}

func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"request_id", requestid.Get(c),
		}
		if v := c.GetHeader(common.CorrelationIDHeaderName); v != "" {
			args = append(args, "correlation_id", v)
		}
		logger.Info(c.Request.Context(), "http request", args...)
	}
}
