package service

import (
	"context"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	followModel "socialgraph/internal/domain/follow/model"
	"socialgraph/internal/domain/user/model"
	"socialgraph/internal/domain/user/repository"
	"socialgraph/internal/pkg/identity"
	"socialgraph/internal/pkg/worker"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/cache"
	"socialgraph/pkg/database"
	"socialgraph/pkg/metrics"
	baseModel "socialgraph/pkg/model"
	"socialgraph/pkg/utils"

	"go.uber.org/zap"
)

const (
	maxBioLength      = 160
	minPasswordLength = 6
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9._]{3,30}$`)

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

// UpdateProfileInput 资料更新，nil 字段保持不变
type UpdateProfileInput struct {
	Name   *string
	Bio    *string
	Avatar *baseModel.MediaItem
}

// Profile 他人视角的用户主页
type Profile struct {
	*model.User
	FollowStatus followModel.FollowStatus `json:"followStatus"`
}

// FollowStatusResolver 查询观察者与目标用户的关系
type FollowStatusResolver interface {
	GetFollowStatus(ctx context.Context, viewerID, targetID string) (followModel.FollowStatus, error)
}

// UserService 用户服务接口
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	GetMe(ctx context.Context, userID string) (*model.User, error)
	GetProfile(ctx context.Context, viewerID, username string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error)
	TogglePrivacy(ctx context.Context, userID string) (bool, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// userService 实现
type userService struct {
	repo     repository.UserRepository
	follows  FollowStatusResolver
	identity identity.Provider
	releaser worker.MediaReleaser
	profiles *ProfileCache
	log      *zap.Logger
	metrics  *metrics.Collector
}

// Deps 用户服务依赖
type Deps struct {
	Repo       repository.UserRepository
	Follows    FollowStatusResolver
	Identity   identity.Provider
	Releaser   worker.MediaReleaser
	Cache      cache.CacheService
	ProfileTTL time.Duration
	Log        *zap.Logger
	Metrics    *metrics.Collector
}

// NewUserService 创建用户服务
func NewUserService(d Deps) UserService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &userService{
		repo:     d.Repo,
		follows:  d.Follows,
		identity: d.Identity,
		releaser: d.Releaser,
		profiles: NewProfileCache(d.Repo, d.Cache, d.ProfileTTL, d.Log, d.Metrics),
		log:      d.Log,
		metrics:  d.Metrics,
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register 注册
func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	username := normalizeUsername(in.Username)
	name := utils.Sanitize(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" || name == "" || email == "" || in.Password == "" {
		return nil, "", apperr.Validation("username, name, email and password are required")
	}
	if !usernamePattern.MatchString(username) {
		return nil, "", apperr.Validation("username must be 3-30 characters of letters, digits, '.' or '_'")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", apperr.Validation("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, "", apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Internal("hash password", err)
	}

	user := &model.User{
		Username:     username,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, _, err := utils.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("generate token", err)
	}
	return user, token, nil
}

// Login 用户名密码登录
func (s *userService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, "", apperr.Unauthorized("invalid username or password")
		}
		return nil, "", err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, "", apperr.Unauthorized("invalid username or password")
	}

	token, _, err := utils.GenerateToken(user.ID)
	if err != nil {
		return nil, "", apperr.Internal("generate token", err)
	}
	return user, token, nil
}

// GetMe 获取当前用户
func (s *userService) GetMe(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, database.Translate(err, "user not found")
	}
	return user, nil
}

// GetProfile 按用户名查看主页，用户记录走读穿缓存，关系状态实时查询
func (s *userService) GetProfile(ctx context.Context, viewerID, username string) (*Profile, error) {
	user, err := s.lookupProfile(ctx, normalizeUsername(username))
	if err != nil {
		return nil, err
	}

	status := followModel.FollowStatusSelf
	if user.ID != viewerID {
		status, err = s.follows.GetFollowStatus(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}
	return &Profile{User: user, FollowStatus: status}, nil
}

func (s *userService) lookupProfile(ctx context.Context, username string) (*model.User, error) {
	return s.profiles.Lookup(ctx, username)
}

func (s *userService) invalidateProfile(ctx context.Context, username string) {
	s.profiles.Invalidate(ctx, username)
}

// UpdateProfile 更新资料，被替换的旧头像在更新成功后释放
func (s *userService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, database.Translate(err, "user not found")
	}

	if in.Name != nil {
		name := utils.Sanitize(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		user.Name = name
	}
	if in.Bio != nil {
		bio := utils.Sanitize(*in.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, apperr.Validation(fmt.Sprintf("bio must be at most %d characters", maxBioLength))
		}
		user.Bio = bio
	}

	var oldAvatar baseModel.MediaItem
	if in.Avatar != nil && in.Avatar.StorageID != user.Avatar.StorageID {
		oldAvatar = user.Avatar
		user.Avatar = *in.Avatar
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	if !oldAvatar.IsZero() {
		s.releaser.Release(oldAvatar)
	}
	s.invalidateProfile(ctx, user.Username)
	return user, nil
}

// TogglePrivacy 切换私密账号
func (s *userService) TogglePrivacy(ctx context.Context, userID string) (bool, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, database.Translate(err, "user not found")
	}

	isPrivate, err := s.repo.TogglePrivacy(ctx, userID)
	if err != nil {
		return false, database.Translate(err, "user not found")
	}

	s.invalidateProfile(ctx, user.Username)
	return isPrivate, nil
}

// DeleteAccount 注销账号
// 顺序：释放头像 -> 撤销认证身份（失败则中止，保留用户记录）-> 删除用户记录
// 帖子、评论、关注边不随之删除
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return database.Translate(err, "user not found")
	}

	s.releaser.Release(user.Avatar)

	if err := s.identity.Delete(ctx, userID); err != nil {
		s.log.Error("identity removal failed", zap.String("user_id", userID), zap.Error(err))
		return apperr.External("failed to remove authentication identity", err)
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return database.Translate(err, "user not found")
	}

	s.invalidateProfile(ctx, user.Username)
	s.log.Info("account deleted", zap.String("user_id", userID))
	return nil
}
