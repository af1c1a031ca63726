package httpapi

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/schemaforge/schemaforge/internal/apperr"
	"github.com/schemaforge/schemaforge/internal/security"
	"github.com/schemaforge/schemaforge/internal/util"
)

// principalKey is the gin context key holding the authenticated Principal.
const principalKey = "principal"

// Principal identifies the requester for the duration of one request.
type Principal struct {
	ID    uint64
	Email string
	Role  string
}

// authenticate resolves the Principal from the request's bearer token.
func authenticate(c *gin.Context, secret string) (Principal, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return Principal{}, apperr.Unauthenticatedf("authentication required")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	claims, errParse := security.ParseToken(secret, raw)
	if errParse != nil {
		log.WithField("token", util.MaskToken(raw)).Debug("token rejected")
		if errors.Is(errParse, security.ErrExpiredToken) {
			return Principal{}, apperr.Unauthenticatedf("token expired")
		}
		return Principal{}, apperr.Unauthenticatedf("invalid token")
	}
	return Principal{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}

// AuthMiddleware enforces a valid bearer token and stores the Principal in
// the gin context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := authenticate(c, secret)
		if err != nil {
			abortError(c, err)
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal extracts the Principal placed by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}

// RequireRole aborts with 403 unless the Principal holds one of the roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			abortError(c, apperr.Unauthenticatedf("authentication required"))
			return
		}
		if _, granted := allowed[principal.Role]; !granted {
			abortError(c, apperr.Forbiddenf("insufficient role"))
			return
		}
		c.Next()
	}
}

// RequestLogger logs each request with method, path, and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}).Debug("request handled")
	}
}
