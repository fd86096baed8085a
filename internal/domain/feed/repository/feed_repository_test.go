package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestGlobalFeedAppliesVisibilityAndOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeedRepository(db)

	rows := sqlmock.NewRows([]string{"id", "author_id", "author_username", "likes_count", "is_liked", "is_following_author"}).
		AddRow("p2", "alice", "alice", 3, true, true).
		AddRow("p1", "carol", "carol", 0, false, false)

	mock.ExpectQuery(`FROM posts AS p JOIN users u ON u\.id = p\.author_id ` +
		`WHERE \(u\.is_private = FALSE OR p\.author_id = \$\d+ OR EXISTS \( SELECT 1 FROM follows vf .+\)\) ` +
		`ORDER BY p\.created_at DESC, p\.seq ASC LIMIT`).
		WillReturnRows(rows)

	posts, err := repo.GlobalFeed(context.Background(), "bob", 5, 5)

	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].ID)
	assert.Equal(t, int64(3), posts[0].LikesCount)
	assert.True(t, posts[0].IsFollowingAuthor)
	assert.Equal(t, "carol", posts[1].Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostsSkipsVisibilityFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`FROM posts AS p JOIN users u ON u\.id = p\.author_id WHERE p\.author_id = \$\d+ ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, err := repo.UserPosts(context.Background(), "bob", "alice", 0, 10)

	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavedPostsOrderedByBookmark(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeedRepository(db)

	mock.ExpectQuery(`JOIN saved_posts sp ON sp\.post_id = p\.id AND sp\.user_id = \$\d+ ORDER BY sp\.created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))

	posts, err := repo.SavedPosts(context.Background(), "bob", 0, 10)

	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveStoriesFiltersExpiredAndBlocked(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeedRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "author_id", "media_storage_id", "expires_at", "author_username", "is_seen"}).
		AddRow("s1", "alice", "stories/s1", now.Add(time.Hour), "alice", false)

	mock.ExpectQuery(`WHERE s\.expires_at > \$\d+ .+ AND NOT EXISTS \(SELECT 1 FROM blocks b WHERE b\.blocker_id = \$\d+ AND b\.blocked_id = s\.author_id\) ORDER BY s\.created_at DESC`).
		WillReturnRows(rows)

	items, err := repo.ActiveStories(context.Background(), "bob", now)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "stories/s1", items[0].Media.StorageID)
	assert.Equal(t, "alice", items[0].Author.Username)
	assert.False(t, items[0].IsSeen)
	assert.NoError(t, mock.ExpectationsWereMet())
}
