package service

import (
	"context"
	"testing"
	"time"

	"socialgraph/internal/domain/feed/model"
	postModel "socialgraph/internal/domain/post/model"
	storyModel "socialgraph/internal/domain/story/model"
	"socialgraph/pkg/apperr"
	baseModel "socialgraph/pkg/model"
	"socialgraph/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFeedRepository is a mock of FeedRepository
type MockFeedRepository struct {
	mock.Mock
}

func (m *MockFeedRepository) posts(args mock.Arguments) ([]postModel.PostView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]postModel.PostView), args.Error(1)
}

func (m *MockFeedRepository) GlobalFeed(ctx context.Context, viewerID string, offset, limit int) ([]postModel.PostView, error) {
	return m.posts(m.Called(viewerID, offset, limit))
}

func (m *MockFeedRepository) HashtagFeed(ctx context.Context, viewerID, tag string, offset, limit int) ([]postModel.PostView, error) {
	return m.posts(m.Called(viewerID, tag, offset, limit))
}

func (m *MockFeedRepository) TaggedPosts(ctx context.Context, viewerID, userID string, offset, limit int) ([]postModel.PostView, error) {
	return m.posts(m.Called(viewerID, userID, offset, limit))
}

func (m *MockFeedRepository) UserPosts(ctx context.Context, viewerID, authorID string, offset, limit int) ([]postModel.PostView, error) {
	return m.posts(m.Called(viewerID, authorID, offset, limit))
}

func (m *MockFeedRepository) SavedPosts(ctx context.Context, viewerID string, offset, limit int) ([]postModel.PostView, error) {
	return m.posts(m.Called(viewerID, offset, limit))
}

func (m *MockFeedRepository) ActiveStories(ctx context.Context, viewerID string, now time.Time) ([]model.StoryItem, error) {
	args := m.Called(viewerID, now)
	return args.Get(0).([]model.StoryItem), args.Error(1)
}

type stubGate struct {
	allowed bool
}

func (g stubGate) CanViewContent(ctx context.Context, viewerID, authorID string) (bool, error) {
	return g.allowed, nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(gate ContentGate) (FeedService, *MockFeedRepository) {
	repo := new(MockFeedRepository)
	return NewFeedService(Deps{Repo: repo, Gate: gate, Now: func() time.Time { return fixedNow }}), repo
}

func views(ids ...string) []postModel.PostView {
	out := make([]postModel.PostView, 0, len(ids))
	for _, id := range ids {
		v := postModel.PostView{}
		v.ID = id
		out = append(out, v)
	}
	return out
}

func TestGlobalFeedPagination(t *testing.T) {
	svc, repo := newTestService(stubGate{})
	repo.On("GlobalFeed", "bob", 5, 5).Return(views("p6", "p7", "p8", "p9", "p10"), nil)

	page, err := svc.GlobalFeed(context.Background(), "bob", utils.ParsePagination("2", "5"))

	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.Limit)
	assert.Len(t, page.Posts, 5)
}

func TestGlobalFeedDefaultsOnGarbage(t *testing.T) {
	svc, repo := newTestService(stubGate{})
	repo.On("GlobalFeed", "bob", 0, 10).Return(nil, nil)

	page, err := svc.GlobalFeed(context.Background(), "bob", utils.ParsePagination("abc", "-3"))

	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.Limit)
	assert.NotNil(t, page.Posts)
}

func TestUserPostsRequiresEntitlement(t *testing.T) {
	svc, repo := newTestService(stubGate{allowed: false})

	_, err := svc.UserPosts(context.Background(), "bob", "alice", utils.Pagination{})

	assert.True(t, apperr.Is(err, apperr.ErrForbidden))
	repo.AssertNotCalled(t, "UserPosts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSavedPostsAlwaysMarkedSaved(t *testing.T) {
	svc, repo := newTestService(stubGate{})
	repo.On("SavedPosts", "bob", 0, 10).Return(views("p1", "p2"), nil)

	page, err := svc.SavedPosts(context.Background(), "bob", utils.Pagination{})

	require.NoError(t, err)
	for _, p := range page.Posts {
		assert.True(t, p.IsSaved)
	}
}

func TestHashtagFeedNormalizesTag(t *testing.T) {
	svc, repo := newTestService(stubGate{})
	repo.On("HashtagFeed", "bob", "travel", 0, 10).Return(views("p1"), nil)

	_, err := svc.HashtagFeed(context.Background(), "bob", "#Travel", utils.Pagination{})
	require.NoError(t, err)

	_, err = svc.HashtagFeed(context.Background(), "bob", "#", utils.Pagination{})
	assert.True(t, apperr.Is(err, apperr.ErrValidation))
}

func storyItem(id, authorID string, createdAt time.Time, seen bool) model.StoryItem {
	item := model.StoryItem{
		Story:  storyModel.Story{AuthorID: authorID, ExpiresAt: createdAt.Add(24 * time.Hour)},
		IsSeen: seen,
	}
	item.ID = id
	item.CreatedAt = createdAt
	item.Media = baseModel.MediaItem{StorageID: "stories/" + id}
	return item
}

func TestGroupStoriesOrdering(t *testing.T) {
	items := []model.StoryItem{
		storyItem("a2", "alice", fixedNow.Add(-1*time.Hour), true),
		storyItem("b2", "bob", fixedNow.Add(-2*time.Hour), true),
		storyItem("c1", "carol", fixedNow.Add(-3*time.Hour), false),
		storyItem("a1", "alice", fixedNow.Add(-4*time.Hour), true),
		storyItem("b1", "bob", fixedNow.Add(-5*time.Hour), false),
	}

	groups := GroupStories(items)

	require.Len(t, groups, 3)
	// bob 与 carol 有未看故事，按最新故事时间排序；alice 全部已看排在最后
	assert.Equal(t, "bob", groups[0].AuthorID)
	assert.Equal(t, "carol", groups[1].AuthorID)
	assert.Equal(t, "alice", groups[2].AuthorID)

	assert.True(t, groups[0].HasUnseen)
	assert.False(t, groups[2].HasUnseen)
	require.Len(t, groups[0].Stories, 2)
	assert.Equal(t, "b2", groups[0].Stories[0].ID)
	assert.Equal(t, fixedNow.Add(-2*time.Hour), groups[0].LatestAt)
}

func TestStoryFeedUsesCurrentTime(t *testing.T) {
	svc, repo := newTestService(stubGate{})
	repo.On("ActiveStories", "bob", fixedNow).Return([]model.StoryItem{}, nil)

	groups, err := svc.StoryFeed(context.Background(), "bob")

	require.NoError(t, err)
	assert.Empty(t, groups)
	repo.AssertExpectations(t)
}
