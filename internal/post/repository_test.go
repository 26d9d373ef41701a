package post

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"postboard_backend/internal/common"
)

func setupPostRepository(t *testing.T) Repository {
	t.Helper()

	// A named shared-cache database keeps every pooled connection on the
	// same in-memory schema.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory database")
	require.NoError(t, db.AutoMigrate(&Post{}), "failed to migrate posts table")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return NewGORMRepository(db)
}

func seedPost(t *testing.T, repo Repository, title string, createdAt time.Time, pinned bool) *Post {
	t.Helper()

	p := &Post{
		Title:      title,
		Slug:       fmt.Sprintf("%s-%s", title, uuid.NewString()[:6]),
		Content:    "content of " + title,
		AuthorID:   uuid.New(),
		AuthorUID:  "uid-" + title,
		AuthorName: "Author of " + title,
		Pinned:     pinned,
	}
	p.CreatedAt = createdAt
	p.UpdatedAt = createdAt
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func titles(posts []Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestCreateAndFind(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	created := seedPost(t, repo, "hello", time.Now(), false)
	assert.NotEqual(t, uuid.Nil, created.ID, "primary key assigned on insert")

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", byID.Title)

	bySlug, err := repo.FindBySlug(ctx, created.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.FindBySlug(ctx, "no-such-slug")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdate_AdvancesUpdatedAtOnly(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	created := seedPost(t, repo, "editable", time.Now().Add(-time.Hour), false)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	created.Content = "revised content"
	require.NoError(t, repo.Update(ctx, created))

	fresh, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised content", fresh.Content)
	assert.True(t, fresh.UpdatedAt.After(fresh.CreatedAt), "updatedAt must advance past createdAt")
}

func TestList_PinnedAlwaysFirst(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Hour)
	seedPost(t, repo, "old-plain", base, false)
	seedPost(t, repo, "old-pinned", base.Add(time.Hour), true)
	seedPost(t, repo, "new-plain", base.Add(2*time.Hour), false)

	posts, pagination, err := repo.List(ctx, ListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(3), pagination.TotalCount)

	// The pinned post leads even though a newer unpinned one exists.
	assert.Equal(t, []string{"old-pinned", "new-plain", "old-plain"}, titles(posts))

	// Pinned-first holds for ascending sorts too.
	posts, _, err = repo.List(ctx, ListQuery{SortBy: "createdAt", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old-pinned", "old-plain", "new-plain"}, titles(posts))
}

func TestList_SortByTitle(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	now := time.Now()
	seedPost(t, repo, "banana", now, false)
	seedPost(t, repo, "apple", now.Add(time.Minute), false)
	seedPost(t, repo, "cherry", now.Add(2*time.Minute), false)

	posts, _, err := repo.List(ctx, ListQuery{SortBy: "title", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, titles(posts))

	// Unknown sort keys fall back to newest-first.
	posts, _, err = repo.List(ctx, ListQuery{SortBy: "authorName"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "apple", "banana"}, titles(posts))
}

func TestList_Filters(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	now := time.Now()
	mine := seedPost(t, repo, "mine", now, false)
	seedPost(t, repo, "theirs", now.Add(time.Minute), true)

	posts, pagination, err := repo.List(ctx, ListQuery{AuthorUID: mine.AuthorUID})
	require.NoError(t, err)
	require.Equal(t, int64(1), pagination.TotalCount)
	assert.Equal(t, "mine", posts[0].Title)

	posts, _, err = repo.List(ctx, ListQuery{AuthorID: &mine.AuthorID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "mine", posts[0].Title)

	pinned := true
	posts, _, err = repo.List(ctx, ListQuery{Pinned: &pinned})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "theirs", posts[0].Title)
}

func TestList_SearchMatchesTitleAndContentCaseInsensitively(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	now := time.Now()
	seedPost(t, repo, "Gopher News", now, false)
	seedPost(t, repo, "unrelated", now.Add(time.Minute), false)

	posts, _, err := repo.List(ctx, ListQuery{SearchTerm: "gOpHeR"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Gopher News", posts[0].Title)

	// Content matches as well; every seeded body contains its title.
	posts, _, err = repo.List(ctx, ListQuery{SearchTerm: "content of unrelated"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "unrelated", posts[0].Title)
}

func TestList_Pagination(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		seedPost(t, repo, fmt.Sprintf("post-%d", i), base.Add(time.Duration(i)*time.Minute), false)
	}

	posts, pagination, err := repo.List(ctx, ListQuery{Page: 1, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.Equal(t, int64(7), pagination.TotalCount)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.True(t, pagination.HasNextPage)
	assert.False(t, pagination.HasPreviousPage)

	posts, pagination, err = repo.List(ctx, ListQuery{Page: 3, PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.False(t, pagination.HasNextPage)
	assert.True(t, pagination.HasPreviousPage)
}

func TestSetPinned_Idempotent(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	created := seedPost(t, repo, "pin-me", time.Now(), false)

	pinned, err := repo.SetPinned(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	// Pinning an already-pinned post succeeds and changes nothing.
	again, err := repo.SetPinned(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, again.Pinned)

	unpinned, err := repo.SetPinned(ctx, created.ID, false)
	require.NoError(t, err)
	assert.False(t, unpinned.Pinned)

	_, err = repo.SetPinned(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	created := seedPost(t, repo, "doomed", time.Now(), false)
	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err := repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestFindByIDs(t *testing.T) {
	repo := setupPostRepository(t)
	ctx := context.Background()

	a := seedPost(t, repo, "a", time.Now(), false)
	b := seedPost(t, repo, "b", time.Now(), false)
	seedPost(t, repo, "c", time.Now(), false)

	posts, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
}
