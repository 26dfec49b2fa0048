package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/service"
	"go.uber.org/zap"
)

const (
	authorizationHeader  = "Authorization"
	bearerPrefix         = "Bearer "
	userClaimsContextKey = "userClaims"
)

func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			log.Debug("Authorization header is missing")
			_ = c.Error(fmt.Errorf("%w: authorization header required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			log.Debug("Authorization header format is invalid")
			_ = c.Error(fmt.Errorf("%w: invalid authorization header format", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
		if tokenString == "" {
			log.Debug("Token is missing after Bearer prefix")
			_ = c.Error(fmt.Errorf("%w: token missing", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			log.Warn("Token validation failed", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		log.Debug("Access token validated", zap.String("subject", claims.Subject))
		c.Set(userClaimsContextKey, claims)

		c.Next()
	}
}

func GetUserClaims(c *gin.Context) *service.Claims {
	value, exists := c.Get(userClaimsContextKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RequireRole rejects requests whose token does not carry the given role.
// Must run after AuthMiddleware.
func RequireRole(role string, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RequireRole")
	return func(c *gin.Context) {
		claims := GetUserClaims(c)
		if claims == nil {
			_ = c.Error(fmt.Errorf("%w: no claims in context", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		if claims.Role != role {
			log.Debug("Role check failed", zap.String("required", role), zap.String("actual", claims.Role))
			_ = c.Error(fmt.Errorf("%w: requires role %s", ierr.ErrForbidden, role))
			c.Abort()
			return
		}

		c.Next()
	}
}
