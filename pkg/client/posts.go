// File: pkg/client/posts.go
package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// MaxUploadBytes is the client-side size limit for image uploads, enforced
// before any network call.
const MaxUploadBytes = 5 * 1024 * 1024

var allowedUploadExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ListPostsQuery holds the optional feed query parameters. Only set fields
// are serialized; the backend applies its own defaults for the rest.
type ListPostsQuery struct {
	Page      int
	Limit     int
	SortBy    string // createdAt, updatedAt or title
	SortOrder string // asc or desc
	AuthorID  string
	Pinned    *bool
	Search    string
}

// encode serializes only the fields the caller set.
func (q ListPostsQuery) encode() string {
	values := url.Values{}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sortOrder", q.SortOrder)
	}
	if q.AuthorID != "" {
		values.Set("authorId", q.AuthorID)
	}
	if q.Pinned != nil {
		values.Set("pinned", strconv.FormatBool(*q.Pinned))
	}
	if q.Search != "" {
		values.Set("q", q.Search)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// PostsService exposes typed CRUD, pin and upload operations over the feed.
type PostsService struct {
	client *Client

	// uploadFallback substitutes a local base64 data URL when the real
	// upload fails. Off unless explicitly enabled: callers should normally
	// see upload failures rather than silently keeping images local-only.
	uploadFallback bool
}

// NewPostsService creates a PostsService on top of a Client.
func NewPostsService(c *Client) *PostsService {
	return &PostsService{client: c}
}

// EnableUploadFallback turns on the degraded base64 data-URL fallback for
// failed uploads.
func (s *PostsService) EnableUploadFallback() {
	s.uploadFallback = true
}

// List fetches one page of the feed.
func (s *PostsService) List(ctx context.Context, query ListPostsQuery) (*PaginatedPosts, error) {
	var page PaginatedPosts
	if err := s.client.Get(ctx, "/posts"+query.encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// MyPosts fetches one page of the caller's own posts.
func (s *PostsService) MyPosts(ctx context.Context, query ListPostsQuery) (*PaginatedPosts, error) {
	var page PaginatedPosts
	if err := s.client.Get(ctx, "/posts/my-posts"+query.encode(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single post by ID.
func (s *PostsService) Get(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := s.client.Get(ctx, "/posts/"+url.PathEscape(id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBySlug fetches a single post by its URL slug.
func (s *PostsService) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	var post Post
	if err := s.client.Get(ctx, "/posts/slug/"+url.PathEscape(slug), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Create creates a post.
func (s *PostsService) Create(ctx context.Context, input CreatePostInput) (*Post, error) {
	var post Post
	if err := s.client.Post(ctx, "/posts", input, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Update applies a partial update to one of the caller's posts.
func (s *PostsService) Update(ctx context.Context, id string, input UpdatePostInput) (*Post, error) {
	var post Post
	if err := s.client.Put(ctx, "/posts/"+url.PathEscape(id), input, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post.
func (s *PostsService) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, "/posts/"+url.PathEscape(id), nil)
}

// Pin sets the post's pinned flag. Admin only; the backend enforces it.
func (s *PostsService) Pin(ctx context.Context, id string, pinned bool) (*Post, error) {
	var post Post
	body := map[string]bool{"pinned": pinned}
	if err := s.client.Patch(ctx, "/posts/"+url.PathEscape(id)+"/pin", body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UploadImage validates and uploads an image into the given folder
// ("posts" or "profiles"). Size and type are checked before any network
// call. When the fallback is enabled, a failed upload yields a base64 data
// URL instead of an error.
func (s *PostsService) UploadImage(ctx context.Context, filename string, content []byte, folder string) (*UploadResult, error) {
	if int64(len(content)) > MaxUploadBytes {
		return nil, fmt.Errorf("file %q exceeds the %d byte upload limit", filename, MaxUploadBytes)
	}
	extension := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[extension] {
		return nil, fmt.Errorf("file %q is not an accepted image type", filename)
	}

	var result UploadResult
	err := s.client.UploadFile(ctx, "/posts/upload", filename, content, map[string]string{"folder": folder}, &result)
	if err == nil {
		return &result, nil
	}
	if !s.uploadFallback {
		return nil, err
	}

	mimeType := mime.TypeByExtension(extension)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &UploadResult{
		URL:      "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(content),
		Filename: filename,
		Size:     int64(len(content)),
	}, nil
}
