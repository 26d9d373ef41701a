// File: internal/post/service.go
package post

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
	"postboard_backend/internal/config"
	"postboard_backend/internal/filestorage"
	"postboard_backend/internal/platform/crypto"
	"postboard_backend/internal/shared"
)

// SearchIndexer mirrors feed mutations into a full-text search index and
// answers search queries. A nil indexer means search degrades to SQL
// matching in the repository.
type SearchIndexer interface {
	IndexPost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	// SearchIDs returns the matching post IDs for one page plus the total
	// hit count.
	SearchIDs(ctx context.Context, query ListQuery) ([]uuid.UUID, int64, error)
}

// Service defines the interface for post business logic.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, req CreatePostRequest) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	GetBySlug(ctx context.Context, slugValue string) (*Post, error)
	Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req UpdatePostRequest) (*Post, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error
	SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error)
	List(ctx context.Context, query ListQuery) ([]Post, *common.Pagination, error)
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*UploadResult, error)
}

// ServiceImplementation provides the post business logic.
type ServiceImplementation struct {
	repo        Repository
	userService shared.Service
	fileStorage filestorage.Service
	indexer     SearchIndexer
	cfg         *config.Config
	logger      *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new post service. indexer may be nil.
func NewService(
	repo Repository,
	userService shared.Service,
	fileStorage filestorage.Service,
	indexer SearchIndexer,
	cfg *config.Config,
	logger *zap.Logger,
) *ServiceImplementation {
	return &ServiceImplementation{
		repo:        repo,
		userService: userService,
		fileStorage: fileStorage,
		indexer:     indexer,
		cfg:         cfg,
		logger:      logger,
	}
}

// generateSlug derives a unique URL slug from the title. A short random
// suffix avoids collisions between posts sharing a title.
func (s *ServiceImplementation) generateSlug(title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	if len(base) > 200 {
		base = base[:200]
	}
	suffix, err := crypto.GenerateSecureRandomString(6)
	if err != nil {
		return "", fmt.Errorf("failed to generate slug suffix: %w", err)
	}
	return base + "-" + strings.ToLower(suffix), nil
}

// Create creates a post authored by the given user. Author identity is
// denormalized onto the record at creation time.
func (s *ServiceImplementation) Create(ctx context.Context, authorID uuid.UUID, req CreatePostRequest) (*Post, error) {
	author, err := s.userService.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	authorName := author.Email
	if author.DisplayName != nil && *author.DisplayName != "" {
		authorName = *author.DisplayName
	}

	postSlug, err := s.generateSlug(req.Title)
	if err != nil {
		return nil, err
	}

	post := &Post{
		Title:      req.Title,
		Slug:       postSlug,
		Content:    req.Content,
		AuthorID:   author.ID,
		AuthorUID:  author.FirebaseUID,
		AuthorName: authorName,
		ImageURL:   req.ImageURL,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	s.indexPost(ctx, post)

	s.logger.Info("Post created",
		zap.String("postID", post.ID.String()),
		zap.String("authorUID", post.AuthorUID))
	return post, nil
}

// GetByID retrieves a single post.
func (s *ServiceImplementation) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBySlug retrieves a single post by its slug.
func (s *ServiceImplementation) GetBySlug(ctx context.Context, slugValue string) (*Post, error) {
	return s.repo.FindBySlug(ctx, slugValue)
}

// Update applies a partial update. Only the author may edit a post; admins
// moderate by deleting, not editing.
func (s *ServiceImplementation) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, req UpdatePostRequest) (*Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actorID {
		return nil, common.ErrForbidden.WithDetails("Only the author can edit this post.")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.ImageURL != nil {
		post.ImageURL = req.ImageURL
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}
	s.indexPost(ctx, post)

	return s.repo.FindByID(ctx, id)
}

// Delete removes a post. The author and admins may delete.
func (s *ServiceImplementation) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID && actorRole != common.RoleAdmin {
		return common.ErrForbidden.WithDetails("You do not have permission to delete this post.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.DeletePost(ctx, id); err != nil {
			s.logger.Warn("Failed to remove post from search index",
				zap.Error(err), zap.String("postID", id.String()))
		}
	}

	s.logger.Info("Post deleted",
		zap.String("postID", id.String()),
		zap.String("actorID", actorID.String()),
		zap.String("actorRole", actorRole))
	return nil
}

// SetPinned sets the pinned flag. Re-pinning a pinned post leaves it
// unchanged.
func (s *ServiceImplementation) SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error) {
	post, err := s.repo.SetPinned(ctx, id, pinned)
	if err != nil {
		return nil, err
	}
	s.indexPost(ctx, post)
	return post, nil
}

// List retrieves a page of the feed. Full-text queries prefer the search
// index when one is configured and fall back to SQL matching otherwise.
func (s *ServiceImplementation) List(ctx context.Context, query ListQuery) ([]Post, *common.Pagination, error) {
	if query.SearchTerm != "" && s.indexer != nil {
		posts, pagination, err := s.listViaIndex(ctx, query)
		if err == nil {
			return posts, pagination, nil
		}
		s.logger.Warn("Search index query failed, falling back to SQL matching", zap.Error(err))
	}
	return s.repo.List(ctx, query)
}

func (s *ServiceImplementation) listViaIndex(ctx context.Context, query ListQuery) ([]Post, *common.Pagination, error) {
	ids, totalCount, err := s.indexer.SearchIDs(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	posts, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	// Restore index ordering; the SQL IN clause comes back unordered.
	byID := make(map[uuid.UUID]Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	pagination := common.NewPagination(totalCount, query.Page, query.PageSize)
	return ordered, pagination, nil
}

// Upload validates and stores an image, returning its public URL.
func (s *ServiceImplementation) Upload(ctx context.Context, fileHeader *multipart.FileHeader, folder string) (*UploadResult, error) {
	if !filestorage.ValidFolder(folder) {
		return nil, common.ErrBadRequest.WithDetails(
			fmt.Sprintf("Unknown upload folder %q.", folder))
	}

	relativePath, err := s.fileStorage.SaveUploadedFile(fileHeader, folder)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to store uploaded image", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not store the uploaded image.")
	}

	return &UploadResult{
		URL:      strings.TrimRight(s.cfg.ImagePublicBaseURL, "/") + "/" + relativePath,
		Filename: relativePath[strings.LastIndex(relativePath, "/")+1:],
		Size:     fileHeader.Size,
	}, nil
}

// indexPost mirrors a post into the search index, logging failures instead
// of surfacing them. Feed writes never fail because the index is down.
func (s *ServiceImplementation) indexPost(ctx context.Context, post *Post) {
	if s.indexer == nil || post == nil {
		return
	}
	if err := s.indexer.IndexPost(ctx, post); err != nil {
		s.logger.Warn("Failed to index post for search",
			zap.Error(err), zap.String("postID", post.ID.String()))
	}
}
