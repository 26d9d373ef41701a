package shared

import (
	"context"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User represents a user profile in the system.
type User struct {
	ID          uuid.UUID
	FirebaseUID string
	Email       string
	DisplayName *string
	ImageURL    *string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SignupRequest carries the fields a new account is created from. The Role
// is advisory only; the service may override it (first account ever becomes
// admin regardless).
type SignupRequest struct {
	Email       string
	Password    string
	DisplayName string
	Role        string
}

// ProfileUpdate is a partial self-update of the caller's profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	ImageURL    *string
}

// TokenResponse is the session token handed to clients after signup/signin.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Service defines the interface for user-related business logic.
type Service interface {
	Register(ctx context.Context, req SignupRequest) (*User, error)
	GetOrCreateUserFromFirebaseClaims(ctx context.Context, firebaseToken *firebaseauth.Token) (usr *User, wasCreated bool, err error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserRole(ctx context.Context, actorID uuid.UUID, targetUID string, role string) error
}

// UserDataForToken abstracts the user data needed for token generation.
type UserDataForToken interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() string
}

// TokenService defines the interface for session token operations.
type TokenService interface {
	GenerateAccessToken(userData UserDataForToken) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// TokenBlocklistService tracks signed-out session tokens by their jti.
type TokenBlocklistService interface {
	AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlocklisted(ctx context.Context, jti string) (bool, error)
}

// Claims represents the session token claims structure.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// User implements UserDataForToken.
func (u *User) GetID() uuid.UUID { return u.ID }
func (u *User) GetEmail() string { return u.Email }
func (u *User) GetRole() string  { return u.Role }
