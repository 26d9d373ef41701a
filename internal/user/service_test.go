package user

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
	"postboard_backend/internal/config"
	"postboard_backend/internal/shared"
)

// MockRepository is a mock type for user.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*User, error) {
	args := m.Called(ctx, firebaseUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context) ([]User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockFirebaseService is a mock type for firebase.Service
type MockFirebaseService struct {
	mock.Mock
}

func (m *MockFirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firebaseauth.Token), args.Error(1)
}

func (m *MockFirebaseService) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *MockFirebaseService) DeleteUser(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockFirebaseService) RevokeRefreshTokens(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func newTestService(repo *MockRepository, fb *MockFirebaseService) *ServiceImplementation {
	return NewService(repo, fb, &config.Config{}, zap.NewNop())
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "new@example.com").Return(nil, common.ErrNotFound.WithDetails("no such user"))
	fb.On("CreateUser", ctx, "new@example.com", "secret123", "New User").Return("fb-uid-1", nil)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Run(func(args mock.Arguments) {
		created := args.Get(1).(*User)
		created.ID = uuid.New()
	}).Return(nil)

	result, err := service.Register(ctx, shared.SignupRequest{
		Email:       "New@Example.com",
		Password:    "secret123",
		DisplayName: "New User",
	})

	require.NoError(t, err)
	assert.Equal(t, "fb-uid-1", result.FirebaseUID)
	assert.Equal(t, "new@example.com", result.Email)
	assert.Equal(t, common.RoleUser, result.Role, "missing role defaults to user")
	repo.AssertExpectations(t)
	fb.AssertExpectations(t)
}

func TestRegister_InvalidRoleRejected(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)

	_, err := service.Register(context.Background(), shared.SignupRequest{
		Email:    "a@example.com",
		Password: "secret123",
		Role:     "superadmin",
	})

	assert.ErrorIs(t, err, common.ErrBadRequest)
	fb.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_ExistingEmailConflicts(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "taken@example.com").Return(&User{Email: "taken@example.com"}, nil)

	_, err := service.Register(ctx, shared.SignupRequest{Email: "taken@example.com", Password: "secret123"})

	assert.ErrorIs(t, err, common.ErrConflict)
	fb.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_RollsBackIdentityAccountOnProfileFailure(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "new@example.com").Return(nil, common.ErrNotFound)
	fb.On("CreateUser", ctx, "new@example.com", "secret123", "").Return("fb-uid-1", nil)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(errors.New("db down"))
	fb.On("DeleteUser", ctx, "fb-uid-1").Return(nil)

	_, err := service.Register(ctx, shared.SignupRequest{Email: "new@example.com", Password: "secret123"})

	require.Error(t, err)
	fb.AssertCalled(t, "DeleteUser", ctx, "fb-uid-1")
}

func TestGetOrCreateUserFromFirebaseClaims_ExistingUser(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	existing := &User{FirebaseUID: "fb-uid-1", Email: "a@example.com", Role: common.RoleAdmin}
	repo.On("FindByFirebaseUID", ctx, "fb-uid-1").Return(existing, nil)

	result, wasCreated, err := service.GetOrCreateUserFromFirebaseClaims(ctx, &firebaseauth.Token{UID: "fb-uid-1"})

	require.NoError(t, err)
	assert.False(t, wasCreated)
	assert.Equal(t, common.RoleAdmin, result.Role)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetOrCreateUserFromFirebaseClaims_CreatesLazily(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	repo.On("FindByFirebaseUID", ctx, "fb-uid-2").Return(nil, common.ErrNotFound)
	repo.On("Create", ctx, mock.AnythingOfType("*user.User")).Return(nil)

	token := &firebaseauth.Token{
		UID: "fb-uid-2",
		Claims: map[string]interface{}{
			"email": "Lazy@Example.com",
			"name":  "Lazy User",
		},
	}
	result, wasCreated, err := service.GetOrCreateUserFromFirebaseClaims(ctx, token)

	require.NoError(t, err)
	assert.True(t, wasCreated)
	assert.Equal(t, "lazy@example.com", result.Email)
	require.NotNil(t, result.DisplayName)
	assert.Equal(t, "Lazy User", *result.DisplayName)
	assert.Equal(t, common.RoleUser, result.Role)
}

func TestGetOrCreateUserFromFirebaseClaims_MissingEmailClaim(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	repo.On("FindByFirebaseUID", ctx, "fb-uid-3").Return(nil, common.ErrNotFound)

	_, _, err := service.GetOrCreateUserFromFirebaseClaims(ctx, &firebaseauth.Token{UID: "fb-uid-3"})

	assert.ErrorIs(t, err, common.ErrUnauthorized)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateUserRole_SelfChangeForbidden(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	actorID := uuid.New()
	self := &User{FirebaseUID: "fb-self", Email: "self@example.com", Role: common.RoleAdmin}
	self.ID = actorID
	repo.On("FindByFirebaseUID", ctx, "fb-self").Return(self, nil)

	err := service.UpdateUserRole(ctx, actorID, "fb-self", common.RoleUser)

	assert.ErrorIs(t, err, common.ErrForbidden)
	repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserRole_Success(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)
	ctx := context.Background()

	target := &User{FirebaseUID: "fb-target", Email: "target@example.com", Role: common.RoleUser}
	target.ID = uuid.New()
	repo.On("FindByFirebaseUID", ctx, "fb-target").Return(target, nil)
	repo.On("UpdateRole", ctx, target.ID, common.RoleAdmin).Return(nil)

	err := service.UpdateUserRole(ctx, uuid.New(), "fb-target", common.RoleAdmin)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestUpdateUserRole_InvalidRole(t *testing.T) {
	repo := new(MockRepository)
	fb := new(MockFirebaseService)
	service := newTestService(repo, fb)

	err := service.UpdateUserRole(context.Background(), uuid.New(), "fb-target", "owner")

	assert.ErrorIs(t, err, common.ErrBadRequest)
	repo.AssertNotCalled(t, "FindByFirebaseUID", mock.Anything, mock.Anything)
}
