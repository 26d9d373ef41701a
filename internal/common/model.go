// File: internal/common/model.go
package common

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values are the only two the system knows about.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether s is one of the two recognized roles.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleUser
}

// BaseModel defines common fields for GORM models.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"column:created_at;not null;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:current_timestamp"`
}

// BeforeCreate assigns a UUID primary key when the caller did not. Keeping
// the generation in the application keeps sqlite and postgres behaving the
// same way.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
