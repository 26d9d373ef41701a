// File: internal/user/model.go
package user

import (
	"time"

	"postboard_backend/internal/common"
	"postboard_backend/internal/shared"
)

// User represents the user profile model in the database.
// FirebaseUID is the identity provider's subject id and is what the API
// exposes as "uid"; the internal UUID primary key never leaves the server.
type User struct {
	common.BaseModel         // Embeds ID, CreatedAt, UpdatedAt
	FirebaseUID      string  `gorm:"type:varchar(128);not null;uniqueIndex"`
	Email            string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName      *string `gorm:"type:varchar(150)"`
	ImageURL         *string `gorm:"type:text"`
	Role             string  `gorm:"type:varchar(50);not null;default:'user'"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs for API responses ---

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	DisplayName *string   `json:"displayName,omitempty"`
	ImageURL    *string   `json:"imageURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToUserResponse converts a shared.User to a UserResponse DTO.
func ToUserResponse(u *shared.User) UserResponse {
	return UserResponse{
		UID:         u.FirebaseUID,
		Email:       u.Email,
		Role:        u.Role,
		DisplayName: u.DisplayName,
		ImageURL:    u.ImageURL,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// DBToShared converts a GORM User model to the shared representation.
func DBToShared(u *User) *shared.User {
	return &shared.User{
		ID:          u.ID,
		FirebaseUID: u.FirebaseUID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		ImageURL:    u.ImageURL,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
