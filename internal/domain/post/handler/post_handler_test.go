package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"socialgraph/internal/domain/post/model"
	"socialgraph/internal/domain/post/service"
	"socialgraph/internal/pkg/uploader"
	"socialgraph/pkg/apperr"
	baseModel "socialgraph/pkg/model"
	"socialgraph/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) post(args mock.Arguments) (*model.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostService) CreatePost(ctx context.Context, authorID string, in service.CreatePostInput) (*model.Post, error) {
	return m.post(m.Called(authorID, in))
}

func (m *MockPostService) EnsureAuthor(ctx context.Context, actorID, postID string) error {
	return m.Called(actorID, postID).Error(0)
}

func (m *MockPostService) UpdatePost(ctx context.Context, actorID, postID string, in service.UpdatePostInput) (*model.Post, error) {
	return m.post(m.Called(actorID, postID, in))
}

func (m *MockPostService) GetPost(ctx context.Context, viewerID, postID string) (*model.PostView, error) {
	args := m.Called(viewerID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PostView), args.Error(1)
}

func (m *MockPostService) DeletePost(ctx context.Context, actorID, postID string) error {
	return m.Called(actorID, postID).Error(0)
}

func (m *MockPostService) AddComment(ctx context.Context, authorID, postID, text, parentID string) (*model.Comment, error) {
	args := m.Called(authorID, postID, text, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockPostService) DeleteComment(ctx context.Context, actorID, commentID string) (int64, error) {
	args := m.Called(actorID, commentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostService) GetComments(ctx context.Context, viewerID, postID string) ([]*model.CommentView, error) {
	args := m.Called(viewerID, postID)
	return args.Get(0).([]*model.CommentView), args.Error(1)
}

func (m *MockPostService) ToggleLike(ctx context.Context, userID, targetID, targetType string) (*service.LikeResult, error) {
	args := m.Called(userID, targetID, targetType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LikeResult), args.Error(1)
}

func (m *MockPostService) ToggleSave(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostService) ListHashtags(ctx context.Context, keyword string, page utils.Pagination) ([]model.HashtagStat, error) {
	args := m.Called(keyword, page)
	return args.Get(0).([]model.HashtagStat), args.Error(1)
}

type MockMediaStorage struct {
	mock.Mock
}

func (m *MockMediaStorage) Upload(ctx context.Context, file uploader.File, folder string) (baseModel.MediaItem, error) {
	args := m.Called(file.Name, folder)
	return args.Get(0).(baseModel.MediaItem), args.Error(1)
}

func (m *MockMediaStorage) Release(ctx context.Context, storageID string, kind baseModel.MediaKind) error {
	return m.Called(storageID, kind).Error(0)
}

type recordingReleaser struct {
	items []baseModel.MediaItem
}

func (r *recordingReleaser) Release(items ...baseModel.MediaItem) {
	r.items = append(r.items, items...)
}

func newRouter(s *MockPostService, storage *MockMediaStorage, releaser *recordingReleaser, userID string) *gin.Engine {
	h := NewPostHandler(s, storage, releaser)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	r.PUT("/posts/:id", h.UpdatePost)
	return r
}

func multipartUpdate(t *testing.T, path string, files ...string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("caption", "edited"))
	for _, name := range files {
		part, err := w.CreateFormFile("media", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("content-of-" + name))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPut, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpdatePostByNonAuthorUploadsNothing(t *testing.T) {
	s := new(MockPostService)
	storage := new(MockMediaStorage)
	releaser := &recordingReleaser{}
	s.On("EnsureAuthor", "mallory", "p1").Return(apperr.Forbidden("only the author can edit this post"))

	w := httptest.NewRecorder()
	newRouter(s, storage, releaser, "mallory").ServeHTTP(w, multipartUpdate(t, "/posts/p1", "a.jpg", "b.jpg"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	s.AssertNotCalled(t, "UpdatePost", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, releaser.items)
}

func TestUpdatePostMissingPostUploadsNothing(t *testing.T) {
	s := new(MockPostService)
	storage := new(MockMediaStorage)
	s.On("EnsureAuthor", "alice", "nope").Return(apperr.NotFound("post not found"))

	w := httptest.NewRecorder()
	newRouter(s, storage, &recordingReleaser{}, "alice").ServeHTTP(w, multipartUpdate(t, "/posts/nope", "a.jpg"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUpdatePostByAuthorAppendsUploads(t *testing.T) {
	s := new(MockPostService)
	storage := new(MockMediaStorage)
	releaser := &recordingReleaser{}
	item := baseModel.MediaItem{URL: "https://cdn/posts/a.jpg", StorageID: "posts/a.jpg", Kind: baseModel.MediaImage}

	s.On("EnsureAuthor", "alice", "p1").Return(nil)
	storage.On("Upload", "a.jpg", mediaFolder).Return(item, nil).Once()
	s.On("UpdatePost", "alice", "p1", mock.MatchedBy(func(in service.UpdatePostInput) bool {
		return in.Caption != nil && *in.Caption == "edited" &&
			in.Replace == nil && len(in.Add) == 1 && in.Add[0] == item
	})).Return(&model.Post{AuthorID: "alice", Caption: "edited"}, nil)

	w := httptest.NewRecorder()
	newRouter(s, storage, releaser, "alice").ServeHTTP(w, multipartUpdate(t, "/posts/p1", "a.jpg"))

	assert.Equal(t, http.StatusOK, w.Code)
	storage.AssertExpectations(t)
	assert.Empty(t, releaser.items)
}

func TestUpdatePostRejectedAfterUploadReleasesFiles(t *testing.T) {
	s := new(MockPostService)
	storage := new(MockMediaStorage)
	releaser := &recordingReleaser{}
	item := baseModel.MediaItem{URL: "https://cdn/posts/a.jpg", StorageID: "posts/a.jpg", Kind: baseModel.MediaImage}

	s.On("EnsureAuthor", "alice", "p1").Return(nil)
	storage.On("Upload", "a.jpg", mediaFolder).Return(item, nil)
	s.On("UpdatePost", "alice", "p1", mock.Anything).Return(nil, apperr.Forbidden("only the author can edit this post"))

	w := httptest.NewRecorder()
	newRouter(s, storage, releaser, "alice").ServeHTTP(w, multipartUpdate(t, "/posts/p1", "a.jpg"))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []baseModel.MediaItem{item}, releaser.items)
}
