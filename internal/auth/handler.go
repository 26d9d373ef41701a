// File: internal/auth/handler.go
package auth

import (
	"errors"

	"postboard_backend/internal/common"
	"postboard_backend/internal/firebase"
	"postboard_backend/internal/middleware"
	"postboard_backend/internal/shared"
	"postboard_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	userService     shared.Service
	tokenService    shared.TokenService
	firebaseService firebase.Service
	blocklist       shared.TokenBlocklistService
	logger          *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(
	userService shared.Service,
	tokenService shared.TokenService,
	firebaseService firebase.Service,
	blocklist shared.TokenBlocklistService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userService:     userService,
		tokenService:    tokenService,
		firebaseService: firebaseService,
		blocklist:       blocklist,
		logger:          logger,
	}
}

// RegisterRoutes sets up the routes for authentication and account operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/signin", h.signin)
		authGroup.POST("/signout", authMW, h.signout)
		authGroup.GET("/me", authMW, h.me)
		authGroup.PUT("/profile", authMW, h.updateProfile)
		authGroup.GET("/users", authMW, adminMW, h.listUsers)
		authGroup.PUT("/users/role", authMW, adminMW, h.updateUserRole)
	}
}

func (h *Handler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Signup: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	createdUser, err := h.userService.Register(c.Request.Context(), shared.SignupRequest{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        req.Role,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	accessToken, expiresAt, err := h.tokenService.GenerateAccessToken(createdUser)
	if err != nil {
		h.logger.Error("Failed to generate access token after signup",
			zap.Error(err), zap.String("userID", createdUser.ID.String()))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not generate access token."))
		return
	}

	response := gin.H{
		"user": user.ToUserResponse(createdUser),
		"token": shared.TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt,
		},
	}
	common.RespondCreated(c, "Account created successfully.", response)
}

func (h *Handler) signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Signin: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	firebaseToken, err := h.firebaseService.VerifyIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn("Signin: ID token verification failed", zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired ID token."))
		return
	}

	signedInUser, wasCreated, err := h.userService.GetOrCreateUserFromFirebaseClaims(c.Request.Context(), firebaseToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if wasCreated {
		h.logger.Info("Provisioned local profile during signin",
			zap.String("uid", signedInUser.FirebaseUID))
	}

	accessToken, expiresAt, err := h.tokenService.GenerateAccessToken(signedInUser)
	if err != nil {
		h.logger.Error("Failed to generate access token during signin",
			zap.Error(err), zap.String("userID", signedInUser.ID.String()))
		common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not generate access token."))
		return
	}

	response := gin.H{
		"user": user.ToUserResponse(signedInUser),
		"token": shared.TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt,
		},
	}
	common.RespondOK(c, "Signed in successfully.", response)
}

// signout blocklists the presented session token and revokes the identity
// provider's refresh tokens so the client's ID token cannot be re-exchanged.
func (h *Handler) signout(c *gin.Context) {
	claims := middleware.GetUserClaimsFromContext(c)
	if claims == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := h.blocklist.AddToBlocklist(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.logger.Error("Failed to blocklist session token", zap.Error(err), zap.String("jti", claims.ID))
			common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not sign out."))
			return
		}
	}

	u, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err == nil {
		if err := h.firebaseService.RevokeRefreshTokens(c.Request.Context(), u.FirebaseUID); err != nil {
			// Best effort: the session token itself is already dead.
			h.logger.Warn("Failed to revoke identity provider refresh tokens",
				zap.Error(err), zap.String("uid", u.FirebaseUID))
		}
	}

	common.RespondOK(c, "Signed out successfully.", nil)
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	u, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully.", user.ToUserResponse(u))
}

func (h *Handler) updateProfile(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update profile: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	updatedUser, err := h.userService.UpdateProfile(c.Request.Context(), userID, shared.ProfileUpdate{
		DisplayName: req.DisplayName,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", user.ToUserResponse(updatedUser))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	responses := make([]user.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, user.ToUserResponse(&users[i]))
	}
	common.RespondOK(c, "Users retrieved successfully.", responses)
}

func (h *Handler) updateUserRole(c *gin.Context) {
	actorID := middleware.GetUserIDFromContext(c)

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update role: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	if err := h.userService.UpdateUserRole(c.Request.Context(), actorID, req.UID, req.Role); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User role updated successfully.", nil)
}
