// File: internal/post/model.go
package post

import (
	"time"

	"github.com/google/uuid"

	"postboard_backend/internal/common"
)

// Post represents a content item in the feed.
//
// AuthorUID and AuthorName are denormalized from the author's profile at
// creation time: the wire contract identifies authors by provider uid and
// list responses must not need a join per row.
type Post struct {
	common.BaseModel           // Embeds ID, CreatedAt, UpdatedAt
	Title            string    `gorm:"type:varchar(200);not null"`
	Slug             string    `gorm:"type:varchar(250);not null;uniqueIndex"`
	Content          string    `gorm:"type:text;not null"`
	AuthorID         uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorUID        string    `gorm:"type:varchar(128);not null;index"`
	AuthorName       string    `gorm:"type:varchar(150);not null"`
	ImageURL         *string   `gorm:"type:text"`
	Pinned           bool      `gorm:"not null;default:false"`
}

// TableName specifies the table name for the Post model.
func (Post) TableName() string {
	return "posts"
}

// --- DTOs for API requests ---

// CreatePostRequest defines the structure for creating a post.
type CreatePostRequest struct {
	Title    string  `json:"title" binding:"required,max=200"`
	Content  string  `json:"content" binding:"required"`
	ImageURL *string `json:"imageURL" binding:"omitempty"`
}

// UpdatePostRequest defines the structure for updating a post.
// Absent fields are left untouched.
type UpdatePostRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=200"`
	Content  *string `json:"content" binding:"omitempty"`
	ImageURL *string `json:"imageURL" binding:"omitempty"`
}

// PinRequest defines the structure for the pin toggle. Pinned is a pointer
// so that an absent field is a validation error rather than a silent unpin.
type PinRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

// ListQuery carries the parsed query parameters for a feed listing.
// AuthorUID filters by the wire-format author id; AuthorID is the internal
// filter used by the my-posts view.
type ListQuery struct {
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
	AuthorUID  string
	AuthorID   *uuid.UUID
	Pinned     *bool
	SearchTerm string
}

// --- DTOs for API responses ---

// PostResponse defines the structure for post data sent in API responses.
// Timestamp mirrors CreatedAt; older clients sort by it.
type PostResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	ImageURL   *string   `json:"imageURL,omitempty"`
	Pinned     bool      `json:"pinned"`
	Timestamp  time.Time `json:"timestamp"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PaginatedPostsResponse is the shape of every feed listing.
type PaginatedPostsResponse struct {
	Items []PostResponse `json:"items"`
	*common.Pagination
}

// UploadResult is the outcome of a successful image upload.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// ToPostResponse converts a Post model to its response DTO.
func ToPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:         p.ID.String(),
		Title:      p.Title,
		Slug:       p.Slug,
		Content:    p.Content,
		AuthorID:   p.AuthorUID,
		AuthorName: p.AuthorName,
		ImageURL:   p.ImageURL,
		Pinned:     p.Pinned,
		Timestamp:  p.CreatedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ToPostResponses converts a slice of Post models to response DTOs.
func ToPostResponses(posts []Post) []PostResponse {
	responses := make([]PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, ToPostResponse(&posts[i]))
	}
	return responses
}
