// File: internal/platform/elasticsearch/index.go
package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const PostsIndexName = "posts"

// definePostsMapping returns the JSON string for the posts index mapping.
func definePostsMapping() (string, error) {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"title":       map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"content":     map[string]interface{}{"type": "text"},
				"slug":        map[string]interface{}{"type": "keyword"},
				"author_id":   map[string]interface{}{"type": "keyword"},
				"author_uid":  map[string]interface{}{"type": "keyword"},
				"author_name": map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256}}},
				"pinned":      map[string]interface{}{"type": "boolean"},
				"created_at":  map[string]interface{}{"type": "date"},
				"updated_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
	mappingBytes, err := json.Marshal(mapping)
	if err != nil {
		return "", fmt.Errorf("error marshalling posts mapping to JSON: %w", err)
	}
	return string(mappingBytes), nil
}

// CreatePostsIndexIfNotExists creates the posts index with the defined
// mapping if it does not already exist. A nil client is a no-op.
func CreatePostsIndexIfNotExists(client *ESClientWrapper, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	ctx := context.Background()
	log := logger.Named("elasticsearch_index_setup")

	req := esapi.IndicesExistsRequest{
		Index: []string{PostsIndexName},
	}
	res, err := req.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error checking if posts index exists", zap.Error(err))
		return fmt.Errorf("error checking if posts index exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		log.Info("Posts index already exists", zap.String("index_name", PostsIndexName))
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Error("Unexpected status while checking posts index",
			zap.String("status", res.Status()),
			zap.String("index_name", PostsIndexName),
		)
		return fmt.Errorf("error checking if posts index exists: status %s", res.Status())
	}

	mappingJSON, err := definePostsMapping()
	if err != nil {
		log.Error("Failed to define posts mapping", zap.Error(err))
		return err
	}

	createReq := esapi.IndicesCreateRequest{
		Index: PostsIndexName,
		Body:  strings.NewReader(mappingJSON),
	}
	createRes, err := createReq.Do(ctx, client.Client)
	if err != nil {
		log.Error("Error creating posts index", zap.Error(err), zap.String("index_name", PostsIndexName))
		return fmt.Errorf("error creating posts index %s: %w", PostsIndexName, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err == nil {
			log.Error("Failed to create posts index",
				zap.String("status", createRes.Status()),
				zap.Any("error_details", errorBody),
			)
		}
		return fmt.Errorf("failed to create posts index %s: status %s", PostsIndexName, createRes.Status())
	}

	log.Info("Posts index created successfully", zap.String("index_name", PostsIndexName))
	return nil
}
