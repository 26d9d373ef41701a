// File: pkg/client/types.go
package client

import "time"

// User is a profile as returned by the backend.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	DisplayName *string   `json:"displayName,omitempty"`
	ImageURL    *string   `json:"imageURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the profile carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// Token is the backend session token handed out on signup/signin.
type Token struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AuthResponse is the combined payload of signup and signin.
type AuthResponse struct {
	User  User  `json:"user"`
	Token Token `json:"token"`
}

// Post is a content item as returned by the backend. The three date fields
// arrive in RFC 3339 wire format and are parsed during decoding, so views
// always receive real time values.
type Post struct {
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

// Edited reports whether the post has been modified since creation.
func (p *Post) Edited() bool {
	return p.UpdatedAt.After(p.CreatedAt)
}

// PaginatedPosts is one page of the feed.
type PaginatedPosts struct {
	Items           []Post `json:"items"`
	TotalCount      int64  `json:"totalCount"`
	CurrentPage     int    `json:"currentPage"`
	TotalPages      int    `json:"totalPages"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
}

// UploadResult is the outcome of an image upload. URL may be a backend URL
// or, when the fallback is enabled and the upload failed, a base64 data URL.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// CreatePostInput is the body for creating a post.
type CreatePostInput struct {
	Title    string  `json:"title"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageURL,omitempty"`
}

// UpdatePostInput is the body for a partial post update. Nil fields are not
// sent.
type UpdatePostInput struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	ImageURL *string `json:"imageURL,omitempty"`
}

// ProfileUpdate is the body for a partial profile update.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName,omitempty"`
	ImageURL    *string `json:"imageURL,omitempty"`
}
