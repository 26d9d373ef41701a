// File: internal/post/esutil/util.go
package esutil

import (
	"encoding/json"
	"errors"
	"fmt"

	"postboard_backend/internal/post"
)

// PostToElasticsearchDoc converts a post.Post to its Elasticsearch document
// representation. Field names must stay in lockstep with the posts index
// mapping.
func PostToElasticsearchDoc(p *post.Post) (string, error) {
	if p == nil {
		return "", errors.New("post cannot be nil")
	}

	doc := map[string]interface{}{
		"title":       p.Title,
		"content":     p.Content,
		"slug":        p.Slug,
		"author_id":   p.AuthorID.String(),
		"author_uid":  p.AuthorUID,
		"author_name": p.AuthorName,
		"pinned":      p.Pinned,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}

	docBytes, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshalling post %s for indexing: %w", p.ID, err)
	}
	return string(docBytes), nil
}
