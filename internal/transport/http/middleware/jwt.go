package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"ragstack/internal/app"
	"ragstack/internal/cache"
	"ragstack/internal/pkg/jwtutil"
	"ragstack/internal/transport/http/response"
)

const (
	ContextClaimsKey   = "claims"
	ContextUserIDKey   = "user_id"
	ContextRoleKey     = "role"
	ContextTenantIDKey = "tenant_id"
)

// AuthJWT verifies the bearer token, rejects revoked tokens and stores the
// claims in the request context.
func AuthJWT(secret string, blacklist *cache.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.TokenID)
		if err != nil {
			response.Error(c, 500, response.CodeInternalServer, "token verification failed")
			c.Abort()
			return
		}
		if revoked {
			response.Error(c, 401, response.CodeUnauthorized, "token revoked")
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Set(ContextTenantIDKey, claims.TenantID)
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		if !allowed[role] {
			response.Error(c, 403, response.CodeForbidden, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AccessorFrom builds the service-layer accessor from the verified claims.
func AccessorFrom(c *gin.Context) app.Accessor {
	return app.Accessor{
		UserID:   c.GetString(ContextUserIDKey),
		Role:     c.GetString(ContextRoleKey),
		TenantID: c.GetString(ContextTenantIDKey),
	}
}

// ClaimsFrom returns the parsed token claims, nil outside AuthJWT routes.
func ClaimsFrom(c *gin.Context) *jwtutil.Claims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwtutil.Claims)
	return claims
}
