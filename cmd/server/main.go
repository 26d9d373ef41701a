// File: cmd/server/main.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"postboard_backend/internal/config"
	"postboard_backend/internal/platform/database"
	platformElasticsearch "postboard_backend/internal/platform/elasticsearch"
	"postboard_backend/internal/platform/logger"
	"postboard_backend/internal/post"
	"postboard_backend/internal/post/esutil"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	syncPostsCmd := flag.NewFlagSet("sync-posts", flag.ExitOnError)
	batchSize := syncPostsCmd.Int("batch-size", 100, "Batch size for syncing posts")
	esRefresh := syncPostsCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "sync-posts" {
		syncPostsCmd.Parse(os.Args[2:])
		runPostSyncCommand(*batchSize, *esRefresh)
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	if server.ESClient != nil {
		if err := platformElasticsearch.CreatePostsIndexIfNotExists(server.ESClient, server.AppLogger); err != nil {
			server.AppLogger.Error("Failed to create Elasticsearch posts index; search stays on SQL matching", zap.Error(err))
		}
	} else {
		server.AppLogger.Info("Elasticsearch client not initialized, skipping index creation.")
	}

	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}

// runPostSyncCommand reindexes every post into Elasticsearch in batches.
// Useful after changing the index mapping or standing up a fresh cluster.
func runPostSyncCommand(batchSize int, esRefresh string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
	}
	db, err := database.NewGORM(cfg)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize database for sync", zap.Error(err))
	}
	defer database.CloseGORMDB(db)

	esClient, err := platformElasticsearch.NewClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("FATAL: Failed to initialize Elasticsearch client for sync", zap.Error(err))
	}
	if esClient == nil {
		appLogger.Fatal("FATAL: ELASTICSEARCH_URL must be set for sync-posts.")
	}

	if err := platformElasticsearch.CreatePostsIndexIfNotExists(esClient, appLogger); err != nil {
		appLogger.Fatal("FATAL: Failed to create/verify Elasticsearch index before sync", zap.Error(err))
	}

	if err := runPostSync(db, esClient, appLogger, batchSize, esRefresh); err != nil {
		appLogger.Fatal("FATAL: Post synchronization failed", zap.Error(err))
	}
	appLogger.Info("Post synchronization completed successfully.")
}

// runPostSync performs the batch synchronization of posts to Elasticsearch.
func runPostSync(db *gorm.DB, esClient *platformElasticsearch.ESClientWrapper, logger *zap.Logger, batchSize int, esRefresh string) error {
	ctx := context.Background()
	repo := post.NewGORMRepository(db)

	posts, err := repo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("loading posts for sync: %w", err)
	}
	logger.Info("Starting post sync", zap.Int("total_posts", len(posts)), zap.Int("batch_size", batchSize))

	totalSynced := 0
	totalFailed := 0

	for start := 0; start < len(posts); start += batchSize {
		end := start + batchSize
		if end > len(posts) {
			end = len(posts)
		}
		batch := posts[start:end]

		var buf bytes.Buffer
		for i := range batch {
			doc, err := esutil.PostToElasticsearchDoc(&batch[i])
			if err != nil {
				logger.Error("Skipping post that failed to serialize",
					zap.String("postID", batch[i].ID.String()), zap.Error(err))
				totalFailed++
				continue
			}
			meta := fmt.Sprintf(`{"index":{"_id":%q}}`, batch[i].ID.String())
			buf.WriteString(meta)
			buf.WriteByte('\n')
			buf.WriteString(doc)
			buf.WriteByte('\n')
		}
		if buf.Len() == 0 {
			continue
		}

		req := esapi.BulkRequest{
			Index:   platformElasticsearch.PostsIndexName,
			Body:    &buf,
			Refresh: esRefresh,
		}
		res, err := req.Do(ctx, esClient.Client)
		if err != nil {
			logger.Error("Bulk request failed", zap.Error(err), zap.Int("batch_start", start))
			totalFailed += len(batch)
			continue
		}

		var bulkResponse struct {
			Errors bool `json:"errors"`
			Items  []struct {
				Index struct {
					ID     string                 `json:"_id"`
					Status int                    `json:"status"`
					Error  map[string]interface{} `json:"error,omitempty"`
				} `json:"index"`
			} `json:"items"`
		}
		if err := json.NewDecoder(res.Body).Decode(&bulkResponse); err != nil {
			res.Body.Close()
			logger.Error("Failed to parse bulk response", zap.Error(err), zap.Int("batch_start", start))
			totalFailed += len(batch)
			continue
		}
		res.Body.Close()

		for _, item := range bulkResponse.Items {
			if item.Index.Error != nil {
				logger.Error("Failed to index post in bulk batch",
					zap.String("postID", item.Index.ID),
					zap.Int("status", item.Index.Status),
					zap.Any("error", item.Index.Error),
				)
				totalFailed++
			} else {
				totalSynced++
			}
		}
	}

	logger.Info("Post sync finished", zap.Int("synced", totalSynced), zap.Int("failed", totalFailed))
	if totalFailed > 0 {
		return fmt.Errorf("%d posts failed to sync", totalFailed)
	}
	return nil
}
