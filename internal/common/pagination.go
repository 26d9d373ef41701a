// File: internal/common/pagination.go
package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is the derived projection attached to every listing response.
// It is recomputed per query and never persisted.
type Pagination struct {
	TotalCount      int64 `json:"totalCount"`
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

// NewPagination creates a pagination projection. The invariants
// HasNextPage == (CurrentPage < TotalPages) and
// HasPreviousPage == (CurrentPage > 1) hold for every input.
func NewPagination(totalCount int64, page, pageSize int) *Pagination {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))

	return &Pagination{
		TotalCount:      totalCount,
		CurrentPage:     page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// GetPaginationParams extracts page/limit parameters from the Gin context.
// The query keys match the wire contract: "page" and "limit".
func GetPaginationParams(c *gin.Context) (page, pageSize int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	if err != nil || page <= 0 {
		page = DefaultPage
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageSize)))
	if err != nil || pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset calculates the database offset for a page.
func Offset(page, pageSize int) int {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (page - 1) * pageSize
}
