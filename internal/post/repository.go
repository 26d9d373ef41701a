// File: internal/post/repository.go
package post

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"postboard_backend/internal/common"
)

// Repository defines the interface for post data operations.
type Repository interface {
	Create(ctx context.Context, post *Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error)
	List(ctx context.Context, query ListQuery) ([]Post, *common.Pagination, error)
	ListAll(ctx context.Context) ([]Post, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM post repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new post.
func (r *gormRepository) Create(ctx context.Context, post *Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return common.ErrConflict.WithDetails("A post with this slug already exists.")
		}
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// FindByID retrieves a post by its ID.
func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	var post Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Post not found.")
		}
		return nil, err
	}
	return &post, nil
}

// FindBySlug retrieves a post by its slug.
func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	var post Post
	err := r.db.WithContext(ctx).First(&post, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Post not found.")
		}
		return nil, err
	}
	return &post, nil
}

// FindByIDs retrieves posts by ID in no particular order. Callers that care
// about ordering reorder the result themselves.
func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

// Update saves the full post record.
func (r *gormRepository) Update(ctx context.Context, post *Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes a post by ID. Ownership checks belong to the service layer;
// the repository only reports whether the row existed.
func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Post not found.")
	}
	return nil
}

// SetPinned updates the pinned flag and returns the fresh record. Setting
// the flag to its current value is a no-op write, so the operation is
// idempotent.
func (r *gormRepository) SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error) {
	result := r.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).Update("pinned", pinned)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// GORM reports zero rows both for a missing record and for an
		// unchanged value, so confirm existence explicitly.
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// sortableColumns maps wire-format sort keys to database columns. Anything
// outside this map falls back to the default ordering.
var sortableColumns = map[string]string{
	"createdAt": "posts.created_at",
	"updatedAt": "posts.updated_at",
	"title":     "posts.title",
}

// List retrieves posts matching the query with pagination. Pinned posts are
// always surfaced first; the requested sort applies within each group.
func (r *gormRepository) List(ctx context.Context, query ListQuery) ([]Post, *common.Pagination, error) {
	var posts []Post
	var totalCount int64

	if query.Page <= 0 {
		query.Page = common.DefaultPage
	}
	if query.PageSize <= 0 {
		query.PageSize = common.DefaultPageSize
	}

	dbQuery := r.db.WithContext(ctx).Model(&Post{})

	if query.AuthorUID != "" {
		dbQuery = dbQuery.Where("posts.author_uid = ?", query.AuthorUID)
	}
	if query.AuthorID != nil {
		dbQuery = dbQuery.Where("posts.author_id = ?", *query.AuthorID)
	}
	if query.Pinned != nil {
		dbQuery = dbQuery.Where("posts.pinned = ?", *query.Pinned)
	}
	if query.SearchTerm != "" {
		searchTerm := "%" + strings.ToLower(query.SearchTerm) + "%"
		dbQuery = dbQuery.Where("LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?", searchTerm, searchTerm)
	}

	if err := dbQuery.Count(&totalCount).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count posts: %w", err)
	}

	sortOrder := "DESC"
	if strings.EqualFold(query.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	dbQuery = dbQuery.Order("posts.pinned DESC")
	if column, ok := sortableColumns[query.SortBy]; ok {
		dbQuery = dbQuery.Order(fmt.Sprintf("%s %s", column, sortOrder))
	} else {
		dbQuery = dbQuery.Order("posts.created_at DESC")
	}

	pagination := common.NewPagination(totalCount, query.Page, query.PageSize)
	dbQuery = dbQuery.
		Offset(common.Offset(pagination.CurrentPage, query.PageSize)).
		Limit(query.PageSize)

	if err := dbQuery.Find(&posts).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, pagination, nil
}

// ListAll retrieves every post, oldest first. Used by the search index
// resync command.
func (r *gormRepository) ListAll(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&posts).Error
	return posts, err
}
