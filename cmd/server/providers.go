// File: cmd/server/providers.go
package main

import (
	"log"

	"postboard_backend/internal/auth"
	"postboard_backend/internal/config"
	"postboard_backend/internal/filestorage"
	"postboard_backend/internal/platform/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideBlocklist(cfg *config.Config) *auth.InMemoryBlocklistService {
	return auth.NewInMemoryBlocklistService(cfg.BlocklistCleanupInterval)
}

func provideFileStorage(cfg *config.Config, logger *zap.Logger) (*filestorage.LocalStorageService, error) {
	return filestorage.NewLocalStorageService(cfg.ImageStoragePath, int64(cfg.MaxUploadSizeMB), logger)
}

func provideCleanup(logger *zap.Logger, db *gorm.DB) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
