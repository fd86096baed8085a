package service

import (
	"context"
	"errors"
	"testing"
	"time"

	followModel "socialgraph/internal/domain/follow/model"
	"socialgraph/internal/domain/user/model"
	"socialgraph/internal/pkg/config"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/cache"
	baseModel "socialgraph/pkg/model"
	"socialgraph/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockUserRepository is a mock of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	if user.ID == "" {
		user.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) TogglePrivacy(ctx context.Context, id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockFollowStatusResolver is a mock of FollowStatusResolver
type MockFollowStatusResolver struct {
	mock.Mock
}

func (m *MockFollowStatusResolver) GetFollowStatus(ctx context.Context, viewerID, targetID string) (followModel.FollowStatus, error) {
	args := m.Called(viewerID, targetID)
	return args.Get(0).(followModel.FollowStatus), args.Error(1)
}

// MockIdentityProvider is a mock of identity.Provider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Delete(ctx context.Context, userID string) error {
	return m.Called(userID).Error(0)
}

func (m *MockIdentityProvider) IsRevoked(ctx context.Context, userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

type recordingReleaser struct {
	items []baseModel.MediaItem
}

func (r *recordingReleaser) Release(items ...baseModel.MediaItem) {
	for _, item := range items {
		if !item.IsZero() {
			r.items = append(r.items, item)
		}
	}
}

type fixture struct {
	repo     *MockUserRepository
	follows  *MockFollowStatusResolver
	identity *MockIdentityProvider
	releaser *recordingReleaser
	cache    cache.CacheService
	service  UserService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockUserRepository),
		follows:  new(MockFollowStatusResolver),
		identity: new(MockIdentityProvider),
		releaser: &recordingReleaser{},
		cache:    cache.NewMemoryCache(),
	}
	f.service = NewUserService(Deps{
		Repo:       f.repo,
		Follows:    f.follows,
		Identity:   f.identity,
		Releaser:   f.releaser,
		Cache:      f.cache,
		ProfileTTL: time.Minute,
	})
	return f
}

func createTestUser(id, username string) *model.User {
	u := &model.User{
		Username: username,
		Name:     "Test User",
		Email:    username + "@example.com",
	}
	u.ID = id
	return u
}

func init() {
	config.GlobalConfig.JWT.Secret = "user-service-test-secret-0123456789"
	config.GlobalConfig.JWT.Expire = 1
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success normalizes username and hashes password", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", mock.AnythingOfType("*model.User")).Return(nil)

		user, token, err := f.service.Register(ctx, RegisterInput{
			Username: "  Alice ",
			Name:     "Alice",
			Email:    "Alice@Example.com",
			Password: "secret1",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.True(t, utils.CheckPassword(user.PasswordHash, "secret1"))
		f.repo.AssertExpectations(t)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.service.Register(ctx, RegisterInput{Username: "bob"})
		assert.True(t, apperr.Is(err, apperr.ErrValidation))
		f.repo.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("invalid username", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.service.Register(ctx, RegisterInput{Username: "b!", Name: "B", Email: "b@x.io", Password: "secret1"})
		assert.True(t, apperr.Is(err, apperr.ErrValidation))
	})

	t.Run("short password", func(t *testing.T) {
		f := newFixture()
		_, _, err := f.service.Register(ctx, RegisterInput{Username: "bob", Name: "B", Email: "b@x.io", Password: "123"})
		assert.True(t, apperr.Is(err, apperr.ErrValidation))
	})

	t.Run("duplicate username", func(t *testing.T) {
		f := newFixture()
		f.repo.On("Create", mock.AnythingOfType("*model.User")).
			Return(apperr.Conflict(apperr.ErrAlreadyExists, "username or email already taken"))

		_, _, err := f.service.Register(ctx, RegisterInput{Username: "bob", Name: "B", Email: "b@x.io", Password: "secret1"})
		assert.True(t, apperr.Is(err, apperr.ErrAlreadyExists))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		f := newFixture()
		user := createTestUser("u1", "alice")
		user.PasswordHash = hash
		f.repo.On("GetByUsername", "alice").Return(user, nil)

		got, token, err := f.service.Login(ctx, "Alice", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.ID)

		claims, err := utils.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, "u1", claims.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture()
		user := createTestUser("u1", "alice")
		user.PasswordHash = hash
		f.repo.On("GetByUsername", "alice").Return(user, nil)

		_, _, err := f.service.Login(ctx, "alice", "nope")
		assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, _, err := f.service.Login(ctx, "ghost", "secret1")
		assert.True(t, apperr.Is(err, apperr.ErrUnauthorized))
	})
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("reads through cache", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByUsername", "bob").Return(createTestUser("u2", "bob"), nil).Once()
		f.follows.On("GetFollowStatus", "u1", "u2").Return(followModel.FollowStatusPending, nil)

		first, err := f.service.GetProfile(ctx, "u1", "bob")
		require.NoError(t, err)
		assert.Equal(t, followModel.FollowStatusPending, first.FollowStatus)

		second, err := f.service.GetProfile(ctx, "u1", "BOB")
		require.NoError(t, err)
		assert.Equal(t, "u2", second.ID)
		f.repo.AssertNumberOfCalls(t, "GetByUsername", 1)
	})

	t.Run("own profile", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByUsername", "alice").Return(createTestUser("u1", "alice"), nil)

		profile, err := f.service.GetProfile(ctx, "u1", "alice")
		require.NoError(t, err)
		assert.Equal(t, followModel.FollowStatusSelf, profile.FollowStatus)
		f.follows.AssertNotCalled(t, "GetFollowStatus", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.service.GetProfile(ctx, "u1", "ghost")
		assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("replacing avatar releases the old one", func(t *testing.T) {
		f := newFixture()
		user := createTestUser("u1", "alice")
		user.Avatar = baseModel.MediaItem{StorageID: "avatars/old.jpg", Kind: baseModel.MediaImage}
		f.repo.On("GetByID", "u1").Return(user, nil)
		f.repo.On("UpdateProfile", user).Return(nil)

		bio := "<b>hello</b> world"
		newAvatar := baseModel.MediaItem{StorageID: "avatars/new.jpg", Kind: baseModel.MediaImage}
		updated, err := f.service.UpdateProfile(ctx, "u1", UpdateProfileInput{Bio: &bio, Avatar: &newAvatar})

		require.NoError(t, err)
		assert.Equal(t, "hello world", updated.Bio)
		assert.Equal(t, "avatars/new.jpg", updated.Avatar.StorageID)
		require.Len(t, f.releaser.items, 1)
		assert.Equal(t, "avatars/old.jpg", f.releaser.items[0].StorageID)
	})

	t.Run("failed update releases nothing", func(t *testing.T) {
		f := newFixture()
		user := createTestUser("u1", "alice")
		user.Avatar = baseModel.MediaItem{StorageID: "avatars/old.jpg"}
		f.repo.On("GetByID", "u1").Return(user, nil)
		f.repo.On("UpdateProfile", user).Return(errors.New("db down"))

		newAvatar := baseModel.MediaItem{StorageID: "avatars/new.jpg"}
		_, err := f.service.UpdateProfile(ctx, "u1", UpdateProfileInput{Avatar: &newAvatar})
		assert.Error(t, err)
		assert.Empty(t, f.releaser.items)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", "u1").Return(createTestUser("u1", "alice"), nil)

		blank := "   "
		_, err := f.service.UpdateProfile(ctx, "u1", UpdateProfileInput{Name: &blank})
		assert.True(t, apperr.Is(err, apperr.ErrValidation))
		f.repo.AssertNotCalled(t, "UpdateProfile", mock.Anything)
	})
}

func TestTogglePrivacyInvalidatesProfileCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.cache.Set(ctx, profileCacheKey("alice"), createTestUser("u1", "alice"), time.Minute))

	f.repo.On("GetByID", "u1").Return(createTestUser("u1", "alice"), nil)
	f.repo.On("TogglePrivacy", "u1").Return(true, nil)

	isPrivate, err := f.service.TogglePrivacy(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, isPrivate)

	ok, _ := f.cache.Exists(ctx, profileCacheKey("alice"))
	assert.False(t, ok)
}

func TestDeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("releases avatar, revokes identity, deletes record", func(t *testing.T) {
		f := newFixture()
		user := createTestUser("u1", "alice")
		user.Avatar = baseModel.MediaItem{StorageID: "avatars/a.jpg"}
		f.repo.On("GetByID", "u1").Return(user, nil)
		f.identity.On("Delete", "u1").Return(nil)
		f.repo.On("Delete", "u1").Return(nil)

		require.NoError(t, f.service.DeleteAccount(ctx, "u1"))
		assert.Len(t, f.releaser.items, 1)
		f.identity.AssertExpectations(t)
		f.repo.AssertExpectations(t)
	})

	t.Run("identity failure keeps the record", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", "u1").Return(createTestUser("u1", "alice"), nil)
		f.identity.On("Delete", "u1").Return(errors.New("redis down"))

		err := f.service.DeleteAccount(ctx, "u1")
		assert.True(t, apperr.Is(err, apperr.ErrExternal))
		f.repo.AssertNotCalled(t, "Delete", mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", "ghost").Return(nil, gorm.ErrRecordNotFound)

		err := f.service.DeleteAccount(ctx, "ghost")
		assert.True(t, apperr.Is(err, apperr.ErrNotFound))
		f.identity.AssertNotCalled(t, "Delete", mock.Anything)
	})
}
