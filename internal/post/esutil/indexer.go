// File: internal/post/esutil/indexer.go
package esutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
	"postboard_backend/internal/platform/elasticsearch"
	"postboard_backend/internal/post"
)

// ESIndexer mirrors posts into the Elasticsearch posts index and serves
// full-text queries against it.
type ESIndexer struct {
	client *elasticsearch.ESClientWrapper
	logger *zap.Logger
}

var _ post.SearchIndexer = (*ESIndexer)(nil)

// NewESIndexer creates a new indexer. Returns nil when the client is nil so
// the post service falls back to SQL matching.
func NewESIndexer(client *elasticsearch.ESClientWrapper, logger *zap.Logger) post.SearchIndexer {
	if client == nil {
		return nil
	}
	return &ESIndexer{client: client, logger: logger}
}

// IndexPost upserts a post document.
func (i *ESIndexer) IndexPost(ctx context.Context, p *post.Post) error {
	doc, err := PostToElasticsearchDoc(p)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      elasticsearch.PostsIndexName,
		DocumentID: p.ID.String(),
		Body:       strings.NewReader(doc),
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("indexing post %s: %w", p.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing post %s: status %s", p.ID, res.Status())
	}
	return nil
}

// DeletePost removes a post document. A missing document is not an error.
func (i *ESIndexer) DeletePost(ctx context.Context, id uuid.UUID) error {
	req := esapi.DeleteRequest{
		Index:      elasticsearch.PostsIndexName,
		DocumentID: id.String(),
	}
	res, err := req.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("deleting post %s from index: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("deleting post %s from index: status %s", id, res.Status())
	}
	return nil
}

// indexSortFields maps wire-format sort keys to index fields.
var indexSortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title.keyword",
}

// SearchIDs runs a paginated full-text query and returns matching post IDs
// in ranking order plus the total hit count.
func (i *ESIndexer) SearchIDs(ctx context.Context, query post.ListQuery) ([]uuid.UUID, int64, error) {
	if query.Page <= 0 {
		query.Page = common.DefaultPage
	}
	if query.PageSize <= 0 {
		query.PageSize = common.DefaultPageSize
	}

	must := []map[string]interface{}{
		{
			"multi_match": map[string]interface{}{
				"query":  query.SearchTerm,
				"fields": []string{"title^2", "content"},
			},
		},
	}
	var filter []map[string]interface{}
	if query.AuthorUID != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"author_uid": query.AuthorUID},
		})
	}
	if query.AuthorID != nil {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"author_id": query.AuthorID.String()},
		})
	}
	if query.Pinned != nil {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"pinned": *query.Pinned},
		})
	}

	sortOrder := "desc"
	if strings.EqualFold(query.SortOrder, "asc") {
		sortOrder = "asc"
	}
	sort := []map[string]interface{}{
		{"pinned": map[string]interface{}{"order": "desc"}},
	}
	if field, ok := indexSortFields[query.SortBy]; ok {
		sort = append(sort, map[string]interface{}{field: map[string]interface{}{"order": sortOrder}})
	} else {
		sort = append(sort, map[string]interface{}{"_score": map[string]interface{}{"order": "desc"}})
	}

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort":    sort,
		"from":    (query.Page - 1) * query.PageSize,
		"size":    query.PageSize,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, 0, fmt.Errorf("encoding search query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(elasticsearch.PostsIndexName),
		i.client.Search.WithBody(&buf),
		i.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search request failed: status %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			i.logger.Warn("Skipping search hit with non-UUID id", zap.String("id", hit.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids, parsed.Hits.Total.Value, nil
}
