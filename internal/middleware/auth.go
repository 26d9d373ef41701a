// File: internal/middleware/auth.go
package middleware

import (
	"strings"

	"postboard_backend/internal/common"
	"postboard_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// AuthorizationHeader is the header name for the authorization token.
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens.
	AuthorizationTypeBearer = "Bearer"
	// UserIDKey is the context key for the authenticated user's ID.
	UserIDKey = "userID"
	// UserEmailKey is the context key for the authenticated user's email.
	UserEmailKey = "userEmail"
	// UserRoleKey is the context key for the authenticated user's role.
	UserRoleKey = "userRole"
	// UserClaimsKey stores the whole claims object.
	UserClaimsKey = "userClaims"
)

// AuthMiddleware creates a Gin middleware for session token authentication.
// A token that has been signed out (its jti blocklisted) is rejected even if
// it is otherwise still valid.
func AuthMiddleware(tokenService shared.TokenService, blocklist shared.TokenBlocklistService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
			logger.Debug("Authorization header format invalid", zap.String("header", authHeader))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		claims, err := tokenService.ValidateToken(parts[1])
		if err != nil {
			logger.Warn("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired session token."))
			return
		}

		if claims.ID != "" {
			blocked, err := blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Error("Blocklist lookup failed", zap.Error(err), zap.String("jti", claims.ID))
				common.RespondWithError(c, common.ErrInternalServer)
				return
			}
			if blocked {
				logger.Debug("Rejected signed-out session token", zap.String("jti", claims.ID))
				common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Session has been signed out."))
				return
			}
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UserClaimsKey, claims)

		c.Next()
	}
}

// GetUserIDFromContext retrieves the user ID from the Gin context.
// Returns uuid.Nil if not found.
func GetUserIDFromContext(c *gin.Context) uuid.UUID {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil
	}
	userID, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return userID
}

// GetUserRoleFromContext retrieves the user role from the Gin context.
func GetUserRoleFromContext(c *gin.Context) string {
	val, exists := c.Get(UserRoleKey)
	if !exists {
		return ""
	}
	role, ok := val.(string)
	if !ok {
		return ""
	}
	return role
}

// GetUserClaimsFromContext retrieves the full claims object from the Gin context.
func GetUserClaimsFromContext(c *gin.Context) *shared.Claims {
	val, exists := c.Get(UserClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := val.(*shared.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RoleAuthMiddleware checks that the authenticated user has one of the
// allowed roles. Must run after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
