package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/anycrm/backend/internal/infrastructure/auth"
	"github.com/anycrm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth context keys
const (
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
	AuthSubjectKey = "auth_subject"

	// SubjectAPIToken marks requests authenticated with the static API token.
	SubjectAPIToken = "api-token"
)

// APITokenSource provides the currently configured API token. An empty
// token means API token authentication is disabled.
type APITokenSource interface {
	APIToken(ctx context.Context) (string, error)
}

// AuthConfig holds configuration for the authentication middleware.
type AuthConfig struct {
	// Tokens resolves the static API token for bearer comparison
	Tokens APITokenSource
	// Sessions validates admin session tokens issued at login
	Sessions *auth.JWTService
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// AllowQueryToken accepts the token via the "token" query parameter.
	// EventSource clients cannot set request headers.
	AllowQueryToken bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultAuthConfig returns the default authentication configuration.
func DefaultAuthConfig(tokens APITokenSource, sessions *auth.JWTService) AuthConfig {
	return AuthConfig{
		Tokens:   tokens,
		Sessions: sessions,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/auth/login",
		},
		SkipPathPrefixes: []string{
			"/webhook/",
		},
		AllowQueryToken: true,
	}
}

// Auth creates bearer token authentication middleware. A request passes
// when its token matches the configured API token or is a valid admin
// session token.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token := extractToken(c, cfg.AllowQueryToken)
		if token == "" {
			rejectUnauthenticated(c, cfg, "Missing bearer token")
			return
		}

		if apiToken := lookupAPIToken(c, cfg); apiToken != "" {
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) == 1 {
				c.Set(AuthSubjectKey, SubjectAPIToken)
				c.Next()
				return
			}
		}

		if cfg.Sessions != nil {
			claims, err := cfg.Sessions.ValidateToken(token)
			if err == nil {
				c.Set(AuthSubjectKey, claims.Subject)
				c.Next()
				return
			}
		}

		rejectUnauthenticated(c, cfg, "Invalid or expired token")
	}
}

// extractToken pulls the bearer token from the Authorization header, or
// from the token query parameter when allowed.
func extractToken(c *gin.Context, allowQuery bool) string {
	authHeader := c.GetHeader(AuthHeaderKey)
	if strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}
	if allowQuery {
		return c.Query("token")
	}
	return ""
}

// lookupAPIToken resolves the configured API token. Resolution failures
// fall through to session validation instead of failing the request.
func lookupAPIToken(c *gin.Context, cfg AuthConfig) string {
	if cfg.Tokens == nil {
		return ""
	}
	apiToken, err := cfg.Tokens.APIToken(c.Request.Context())
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("Failed to resolve API token", zap.Error(err))
		}
		return ""
	}
	return apiToken
}

func rejectUnauthenticated(c *gin.Context, cfg AuthConfig, message string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Authentication failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("message", message),
		)
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, message))
}
