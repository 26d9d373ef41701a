package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
	"postboard_backend/internal/config"
	"postboard_backend/internal/shared"
)

func newTestJWTService(expiry time.Duration) *JWTService {
	cfg := &config.Config{
		JWTSecretKey:         "test-secret-key-must-not-be-short",
		JWTAccessTokenExpiry: expiry,
	}
	return NewJWTService(cfg, zap.NewNop())
}

func testUser() *shared.User {
	return &shared.User{
		ID:    uuid.New(),
		Email: "jwt@example.com",
		Role:  common.RoleAdmin,
	}
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	service := newTestJWTService(15 * time.Minute)
	userData := testUser()

	token, expiresAt, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userData.ID, claims.UserID)
	assert.Equal(t, "jwt@example.com", claims.Email)
	assert.Equal(t, common.RoleAdmin, claims.Role)
	assert.Equal(t, userData.ID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID, "every token carries a jti for blocklisting")
}

func TestValidateToken_UniqueJTIPerToken(t *testing.T) {
	service := newTestJWTService(15 * time.Minute)
	userData := testUser()

	first, _, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)
	second, _, err := service.GenerateAccessToken(userData)
	require.NoError(t, err)

	firstClaims, err := service.ValidateToken(first)
	require.NoError(t, err)
	secondClaims, err := service.ValidateToken(second)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	service := newTestJWTService(-time.Minute)

	token, _, err := service.GenerateAccessToken(testUser())
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	token, _, err := newTestJWTService(15 * time.Minute).GenerateAccessToken(testUser())
	require.NoError(t, err)

	other := NewJWTService(&config.Config{
		JWTSecretKey:         "a-completely-different-secret",
		JWTAccessTokenExpiry: 15 * time.Minute,
	}, zap.NewNop())

	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = other.ValidateToken("not-a-token")
	assert.Error(t, err)
}
