// File: internal/platform/database/migrate.go
package database

import (
	"fmt"

	"postboard_backend/internal/post"
	"postboard_backend/internal/user"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every registered model.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&user.User{}, &post.Post{}); err != nil {
		return fmt.Errorf("failed to run auto-migration: %w", err)
	}
	return nil
}
