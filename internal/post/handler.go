// File: internal/post/handler.go
package post

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
	"postboard_backend/internal/middleware"
)

// Handler struct holds dependencies for post handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new post handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for feed operations. Everything sits
// behind authentication; pinning additionally requires the admin role.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	posts := router.Group("/posts", authMW)
	{
		posts.GET("", h.list)
		posts.GET("/my-posts", h.myPosts)
		posts.GET("/slug/:slug", h.getBySlug)
		posts.GET("/:id", h.get)
		posts.POST("", h.create)
		posts.PUT("/:id", h.update)
		posts.DELETE("/:id", h.delete)
		posts.PATCH("/:id/pin", adminMW, h.pin)
		posts.POST("/upload", h.upload)
	}
}

// parseListQuery extracts the feed query parameters. Only recognized values
// make it into the query; anything else falls back to server defaults.
func parseListQuery(c *gin.Context) ListQuery {
	page, pageSize := common.GetPaginationParams(c)
	query := ListQuery{
		Page:       page,
		PageSize:   pageSize,
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		AuthorUID:  c.Query("authorId"),
		SearchTerm: c.Query("q"),
	}
	if raw := c.Query("pinned"); raw != "" {
		if pinned, err := strconv.ParseBool(raw); err == nil {
			query.Pinned = &pinned
		}
	}
	return query
}

func (h *Handler) respondWithListing(c *gin.Context, query ListQuery) {
	posts, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Posts retrieved successfully.", PaginatedPostsResponse{
		Items:      ToPostResponses(posts),
		Pagination: pagination,
	})
}

func (h *Handler) list(c *gin.Context) {
	h.respondWithListing(c, parseListQuery(c))
}

// myPosts is the feed restricted to the caller's own posts. Any authorId
// filter in the query string is overridden.
func (h *Handler) myPosts(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	query := parseListQuery(c)
	query.AuthorUID = ""
	query.AuthorID = &userID
	h.respondWithListing(c, query)
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid post ID format."))
		return
	}

	post, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Post retrieved successfully.", ToPostResponse(post))
}

func (h *Handler) getBySlug(c *gin.Context) {
	post, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Post retrieved successfully.", ToPostResponse(post))
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create post: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	post, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Post created successfully.", ToPostResponse(post))
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid post ID format."))
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update post: Invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	post, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Post updated successfully.", ToPostResponse(post))
}

func (h *Handler) delete(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)
	userRole := middleware.GetUserRoleFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid post ID format."))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, userRole, id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Post deleted successfully.", nil)
}

func (h *Handler) pin(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid post ID format."))
		return
	}

	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Pin post: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Field 'pinned' is required."))
		return
	}

	post, err := h.service.SetPinned(c.Request.Context(), id, *req.Pinned)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Post pin state updated successfully.", ToPostResponse(post))
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Multipart field 'image' is required."))
		return
	}

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "posts"
	}

	result, err := h.service.Upload(c.Request.Context(), fileHeader, folder)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Image uploaded successfully.", result)
}
