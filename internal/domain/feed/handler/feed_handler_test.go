package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialgraph/internal/domain/feed/model"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockFeedService struct {
	mock.Mock
}

func (m *MockFeedService) page(args mock.Arguments) (*model.FeedPage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FeedPage), args.Error(1)
}

func (m *MockFeedService) GlobalFeed(ctx context.Context, viewerID string, page utils.Pagination) (*model.FeedPage, error) {
	return m.page(m.Called(viewerID, page))
}

func (m *MockFeedService) HashtagFeed(ctx context.Context, viewerID, tag string, page utils.Pagination) (*model.FeedPage, error) {
	return m.page(m.Called(viewerID, tag, page))
}

func (m *MockFeedService) TaggedPosts(ctx context.Context, viewerID, userID string, page utils.Pagination) (*model.FeedPage, error) {
	return m.page(m.Called(viewerID, userID, page))
}

func (m *MockFeedService) UserPosts(ctx context.Context, viewerID, authorID string, page utils.Pagination) (*model.FeedPage, error) {
	return m.page(m.Called(viewerID, authorID, page))
}

func (m *MockFeedService) SavedPosts(ctx context.Context, viewerID string, page utils.Pagination) (*model.FeedPage, error) {
	return m.page(m.Called(viewerID, page))
}

func (m *MockFeedService) StoryFeed(ctx context.Context, viewerID string) ([]model.StoryGroup, error) {
	args := m.Called(viewerID)
	return args.Get(0).([]model.StoryGroup), args.Error(1)
}

func newRouter(s *MockFeedService) *gin.Engine {
	h := NewFeedHandler(s)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "bob")
		c.Next()
	})
	r.GET("/feed", h.GlobalFeed)
	r.GET("/users/:id/posts", h.UserPosts)
	r.GET("/hashtags/:tag/posts", h.HashtagFeed)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGlobalFeedParsesPagination(t *testing.T) {
	s := new(MockFeedService)
	s.On("GlobalFeed", "bob", utils.Pagination{Page: 2, Limit: 5}).
		Return(&model.FeedPage{Page: 2, Limit: 5}, nil)

	w := get(newRouter(s), "/feed?page=2&limit=5")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool           `json:"success"`
		Data    model.FeedPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Data.Page)
	s.AssertExpectations(t)
}

func TestUserPostsPrivateAccount(t *testing.T) {
	s := new(MockFeedService)
	s.On("UserPosts", "bob", "alice", mock.Anything).Return(nil, apperr.Forbidden("this account is private"))

	w := get(newRouter(s), "/users/alice/posts")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHashtagFeedPassesTag(t *testing.T) {
	s := new(MockFeedService)
	s.On("HashtagFeed", "bob", "travel", mock.Anything).Return(&model.FeedPage{Page: 1, Limit: 10}, nil)

	w := get(newRouter(s), "/hashtags/travel/posts")

	assert.Equal(t, http.StatusOK, w.Code)
	s.AssertExpectations(t)
}
