package post

import (
	"context"
	"errors"
	"mime/multipart"
	"regexp"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"postboard_backend/internal/common"
	"postboard_backend/internal/config"
	"postboard_backend/internal/filestorage"
	"postboard_backend/internal/shared"
)

// MockRepository is a mock type for post.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, post *Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *MockRepository) FindBySlug(ctx context.Context, slug string) (*Post, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *MockRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Post, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Post), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, post *Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) SetPinned(ctx context.Context, id uuid.UUID, pinned bool) (*Post, error) {
	args := m.Called(ctx, id, pinned)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, query ListQuery) ([]Post, *common.Pagination, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Post), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Post), args.Error(1)
}

// MockUserService is a mock type for shared.Service
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req shared.SignupRequest) (*shared.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) GetOrCreateUserFromFirebaseClaims(ctx context.Context, token *firebaseauth.Token) (*shared.User, bool, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*shared.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id uuid.UUID, update shared.ProfileUpdate) (*shared.User, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]shared.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shared.User), args.Error(1)
}

func (m *MockUserService) UpdateUserRole(ctx context.Context, actorID uuid.UUID, targetUID string, role string) error {
	args := m.Called(ctx, actorID, targetUID, role)
	return args.Error(0)
}

// MockFileStorage is a mock type for filestorage.Service
type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) SaveUploadedFile(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	args := m.Called(fileHeader, subDir)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) DeleteFile(relativePath string) error {
	args := m.Called(relativePath)
	return args.Error(0)
}

func (m *MockFileStorage) ListFiles(subDir string) ([]filestorage.StoredFile, error) {
	args := m.Called(subDir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filestorage.StoredFile), args.Error(1)
}

// MockSearchIndexer is a mock type for post.SearchIndexer
type MockSearchIndexer struct {
	mock.Mock
}

func (m *MockSearchIndexer) IndexPost(ctx context.Context, post *Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockSearchIndexer) DeletePost(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSearchIndexer) SearchIDs(ctx context.Context, query ListQuery) ([]uuid.UUID, int64, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]uuid.UUID), args.Get(1).(int64), args.Error(2)
}

func newTestPostService(repo *MockRepository, users *MockUserService, storage *MockFileStorage, indexer SearchIndexer) *ServiceImplementation {
	cfg := &config.Config{ImagePublicBaseURL: "/uploads"}
	return NewService(repo, users, storage, indexer, cfg, zap.NewNop())
}

func sharedUser(displayName string) *shared.User {
	u := &shared.User{
		ID:          uuid.New(),
		FirebaseUID: "fb-" + uuid.NewString()[:8],
		Email:       "author@example.com",
		Role:        common.RoleUser,
	}
	if displayName != "" {
		u.DisplayName = &displayName
	}
	return u
}

func TestCreate_DenormalizesAuthorAndGeneratesSlug(t *testing.T) {
	repo := new(MockRepository)
	users := new(MockUserService)
	service := newTestPostService(repo, users, new(MockFileStorage), nil)
	ctx := context.Background()

	author := sharedUser("Jamie Writer")
	users.On("GetUserByID", ctx, author.ID).Return(author, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*post.Post")).Return(nil)

	created, err := service.Create(ctx, author.ID, CreatePostRequest{
		Title:   "Hello, World! A First Post",
		Content: "body",
	})

	require.NoError(t, err)
	assert.Equal(t, author.ID, created.AuthorID)
	assert.Equal(t, author.FirebaseUID, created.AuthorUID)
	assert.Equal(t, "Jamie Writer", created.AuthorName)
	assert.Regexp(t, regexp.MustCompile(`^hello-world-a-first-post-[a-z0-9_-]+$`), created.Slug)
}

func TestCreate_AuthorNameFallsBackToEmail(t *testing.T) {
	repo := new(MockRepository)
	users := new(MockUserService)
	service := newTestPostService(repo, users, new(MockFileStorage), nil)
	ctx := context.Background()

	author := sharedUser("")
	users.On("GetUserByID", ctx, author.ID).Return(author, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*post.Post")).Return(nil)

	created, err := service.Create(ctx, author.ID, CreatePostRequest{Title: "untitled author", Content: "body"})

	require.NoError(t, err)
	assert.Equal(t, "author@example.com", created.AuthorName)
}

func TestUpdate_OnlyAuthorMayEdit(t *testing.T) {
	repo := new(MockRepository)
	service := newTestPostService(repo, new(MockUserService), new(MockFileStorage), nil)
	ctx := context.Background()

	authorID := uuid.New()
	existing := &Post{Title: "original", Content: "original", AuthorID: authorID}
	existing.ID = uuid.New()
	repo.On("FindByID", ctx, existing.ID).Return(existing, nil)

	// Admins moderate by deleting, never by editing someone else's post.
	_, err := service.Update(ctx, uuid.New(), existing.ID, UpdatePostRequest{})
	assert.ErrorIs(t, err, common.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	newTitle := "revised"
	repo.On("Update", ctx, existing).Return(nil)
	updated, err := service.Update(ctx, authorID, existing.ID, UpdatePostRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "revised", updated.Title)
	assert.Equal(t, "original", updated.Content, "absent fields stay untouched")
}

func TestDelete_AuthorOrAdminOnly(t *testing.T) {
	authorID := uuid.New()
	existing := &Post{Title: "target", AuthorID: authorID}
	existing.ID = uuid.New()
	ctx := context.Background()

	testCases := []struct {
		name       string
		actorID    uuid.UUID
		actorRole  string
		wantDelete bool
	}{
		{"author may delete", authorID, common.RoleUser, true},
		{"admin may delete another's post", uuid.New(), common.RoleAdmin, true},
		{"stranger may not", uuid.New(), common.RoleUser, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockRepository)
			service := newTestPostService(repo, new(MockUserService), new(MockFileStorage), nil)
			repo.On("FindByID", ctx, existing.ID).Return(existing, nil)
			if tc.wantDelete {
				repo.On("Delete", ctx, existing.ID).Return(nil)
			}

			err := service.Delete(ctx, tc.actorID, tc.actorRole, existing.ID)

			if tc.wantDelete {
				require.NoError(t, err)
				repo.AssertCalled(t, "Delete", ctx, existing.ID)
			} else {
				assert.ErrorIs(t, err, common.ErrForbidden)
				repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestSetPinned_MirrorsIntoIndex(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockSearchIndexer)
	service := newTestPostService(repo, new(MockUserService), new(MockFileStorage), indexer)
	ctx := context.Background()

	pinned := &Post{Title: "pinned", Pinned: true}
	pinned.ID = uuid.New()
	repo.On("SetPinned", ctx, pinned.ID, true).Return(pinned, nil)
	indexer.On("IndexPost", ctx, pinned).Return(nil)

	result, err := service.SetPinned(ctx, pinned.ID, true)

	require.NoError(t, err)
	assert.True(t, result.Pinned)
	indexer.AssertExpectations(t)
}

func TestList_SearchPrefersIndexAndRestoresRanking(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockSearchIndexer)
	service := newTestPostService(repo, new(MockUserService), new(MockFileStorage), indexer)
	ctx := context.Background()

	first := Post{Title: "best match"}
	first.ID = uuid.New()
	second := Post{Title: "weaker match"}
	second.ID = uuid.New()

	query := ListQuery{SearchTerm: "match", Page: 1, PageSize: 10}
	indexer.On("SearchIDs", ctx, query).Return([]uuid.UUID{first.ID, second.ID}, int64(2), nil)
	// The database returns rows in whatever order the IN clause produces.
	repo.On("FindByIDs", ctx, []uuid.UUID{first.ID, second.ID}).Return([]Post{second, first}, nil)

	posts, pagination, err := service.List(ctx, query)

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "best match", posts[0].Title)
	assert.Equal(t, int64(2), pagination.TotalCount)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestList_FallsBackToSQLWhenIndexFails(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockSearchIndexer)
	service := newTestPostService(repo, new(MockUserService), new(MockFileStorage), indexer)
	ctx := context.Background()

	query := ListQuery{SearchTerm: "match"}
	indexer.On("SearchIDs", ctx, query).Return(nil, int64(0), errors.New("index unavailable"))
	repo.On("List", ctx, query).Return([]Post{}, common.NewPagination(0, 1, 10), nil)

	_, _, err := service.List(ctx, query)

	require.NoError(t, err)
	repo.AssertCalled(t, "List", ctx, query)
}

func TestList_WithoutSearchTermSkipsIndex(t *testing.T) {
	repo := new(MockRepository)
	indexer := new(MockSearchIndexer)
	service := newTestPostService(repo, new(MockUserService), new(MockFileStorage), indexer)
	ctx := context.Background()

	query := ListQuery{Page: 2}
	repo.On("List", ctx, query).Return([]Post{}, common.NewPagination(0, 2, 10), nil)

	_, _, err := service.List(ctx, query)

	require.NoError(t, err)
	indexer.AssertNotCalled(t, "SearchIDs", mock.Anything, mock.Anything)
}

func TestUpload(t *testing.T) {
	storage := new(MockFileStorage)
	service := newTestPostService(new(MockRepository), new(MockUserService), storage, nil)
	ctx := context.Background()

	header := &multipart.FileHeader{Filename: "photo.jpg", Size: 1234}
	storage.On("SaveUploadedFile", header, filestorage.FolderPosts).Return("posts/abc123.jpg", nil)

	result, err := service.Upload(ctx, header, filestorage.FolderPosts)

	require.NoError(t, err)
	assert.Equal(t, "/uploads/posts/abc123.jpg", result.URL)
	assert.Equal(t, "abc123.jpg", result.Filename)
	assert.Equal(t, int64(1234), result.Size)
}

func TestUpload_RejectsUnknownFolder(t *testing.T) {
	storage := new(MockFileStorage)
	service := newTestPostService(new(MockRepository), new(MockUserService), storage, nil)

	_, err := service.Upload(context.Background(), &multipart.FileHeader{Filename: "photo.jpg"}, "../../etc")

	assert.ErrorIs(t, err, common.ErrBadRequest)
	storage.AssertNotCalled(t, "SaveUploadedFile", mock.Anything, mock.Anything)
}
