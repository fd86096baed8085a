package service

import (
	"context"

	"socialgraph/internal/domain/follow/model"
	"socialgraph/internal/domain/follow/repository"
	userModel "socialgraph/internal/domain/user/model"
	"socialgraph/internal/pkg/push"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/database"
	"socialgraph/pkg/metrics"
	"socialgraph/pkg/utils"

	"go.uber.org/zap"
)

// UserReader 关注服务只需要按 ID 读取用户
type UserReader interface {
	GetByID(ctx context.Context, id string) (*userModel.User, error)
}

// ProfileInvalidator 关注计数变化后失效双方的主页缓存
type ProfileInvalidator interface {
	InvalidateUsers(ctx context.Context, userIDs ...string)
}

// FollowService 关注状态机
type FollowService interface {
	RequestFollow(ctx context.Context, followerID, targetID string) (*model.Follow, error)
	AcceptRequest(ctx context.Context, targetID, followerID string) error
	RejectRequest(ctx context.Context, targetID, followerID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
	Block(ctx context.Context, blockerID, targetID string) error
	Unblock(ctx context.Context, blockerID, targetID string) error

	GetFollowStatus(ctx context.Context, viewerID, targetID string) (model.FollowStatus, error)
	ListFollowers(ctx context.Context, userID string, page utils.Pagination) ([]userModel.ViewerEntry, error)
	ListFollowing(ctx context.Context, userID string, page utils.Pagination) ([]userModel.ViewerEntry, error)
	ListRequests(ctx context.Context, userID string, page utils.Pagination) ([]userModel.ViewerEntry, error)

	CanViewContent(ctx context.Context, viewerID, authorID string) (bool, error)
	FilterAcceptedFollowing(ctx context.Context, followerID string, candidates []string) ([]string, error)
}

// Deps 关注服务依赖
type Deps struct {
	Repo     repository.FollowRepository
	Users    UserReader
	Notifier push.Notifier
	Profiles ProfileInvalidator
	Log      *zap.Logger
	Metrics  *metrics.Collector
}

type followService struct {
	repo     repository.FollowRepository
	users    UserReader
	notifier push.Notifier
	profiles ProfileInvalidator
	log      *zap.Logger
	metrics  *metrics.Collector
}

// NewFollowService 创建关注服务
func NewFollowService(d Deps) FollowService {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = push.NoopNotifier{}
	}
	return &followService{
		repo:     d.Repo,
		users:    d.Users,
		notifier: d.Notifier,
		profiles: d.Profiles,
		log:      d.Log.Named("follow"),
		metrics:  d.Metrics,
	}
}

func (s *followService) getUser(ctx context.Context, id string) (*userModel.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, database.Translate(err, "user not found")
	}
	return user, nil
}

func (s *followService) invalidateProfiles(ctx context.Context, userIDs ...string) {
	if s.profiles != nil {
		s.profiles.InvalidateUsers(ctx, userIDs...)
	}
}

// notify 推送失败只记录日志
func (s *followService) notify(ctx context.Context, accountID, title, body string, ext map[string]string) {
	if err := s.notifier.NotifyAccount(ctx, accountID, title, body, ext); err != nil {
		s.log.Warn("follow notification failed", zap.String("account", accountID), zap.Error(err))
	}
}

// RequestFollow 发起关注：公开账号直接 accepted，私密账号进入 pending
func (s *followService) RequestFollow(ctx context.Context, followerID, targetID string) (*model.Follow, error) {
	if followerID == targetID {
		return nil, apperr.Conflict(apperr.ErrSelfFollow, "")
	}

	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	blocked, err := s.repo.IsBlockedEither(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, apperr.Conflict(apperr.ErrBlocked, "")
	}

	existing, err := s.repo.GetEdge(ctx, followerID, targetID)
	if err != nil && !database.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(apperr.ErrAlreadyExists, "follow relationship already exists")
	}

	edge := &model.Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
		Status:      model.StatusAccepted,
	}
	if target.IsPrivate {
		edge.Status = model.StatusPending
	}

	if err := s.repo.CreateEdge(ctx, edge); err != nil {
		return nil, err
	}

	ext := map[string]string{"userId": followerID}
	if edge.IsAccepted() {
		s.invalidateProfiles(ctx, followerID, targetID)
		ext["type"] = "follow"
		s.notify(ctx, targetID, "New follower", "Someone started following you", ext)
		s.metrics.RecordFollowTransition("followed")
	} else {
		ext["type"] = "follow_request"
		s.notify(ctx, targetID, "New follow request", "Someone requested to follow you", ext)
		s.metrics.RecordFollowTransition("requested")
	}

	s.log.Info("follow created",
		zap.String("follower_id", followerID),
		zap.String("following_id", targetID),
		zap.String("status", edge.Status))
	return edge, nil
}

// AcceptRequest target 接受 follower 的关注申请
func (s *followService) AcceptRequest(ctx context.Context, targetID, followerID string) error {
	if err := s.repo.AcceptEdge(ctx, followerID, targetID); err != nil {
		return err
	}
	s.invalidateProfiles(ctx, followerID, targetID)
	s.notify(ctx, followerID, "Follow request accepted", "Your follow request was accepted",
		map[string]string{"type": "follow_accepted", "userId": targetID})
	s.metrics.RecordFollowTransition("accepted")
	return nil
}

// RejectRequest 拒绝关注申请
func (s *followService) RejectRequest(ctx context.Context, targetID, followerID string) error {
	if err := s.repo.DeletePendingEdge(ctx, followerID, targetID); err != nil {
		return err
	}
	s.metrics.RecordFollowTransition("rejected")
	return nil
}

// Unfollow 取消关注或撤回申请
func (s *followService) Unfollow(ctx context.Context, followerID, targetID string) error {
	edge, err := s.repo.DeleteEdge(ctx, followerID, targetID)
	if err != nil {
		return err
	}
	if edge.IsAccepted() {
		s.invalidateProfiles(ctx, followerID, targetID)
		s.metrics.RecordFollowTransition("unfollowed")
	} else {
		s.metrics.RecordFollowTransition("cancelled")
	}
	return nil
}

// Block 拉黑：双向关注边一并移除，只写入拉黑方的记录
func (s *followService) Block(ctx context.Context, blockerID, targetID string) error {
	if blockerID == targetID {
		return apperr.Validation("you cannot block yourself")
	}
	if _, err := s.getUser(ctx, targetID); err != nil {
		return err
	}
	if err := s.repo.Block(ctx, blockerID, targetID); err != nil {
		return err
	}
	s.invalidateProfiles(ctx, blockerID, targetID)
	s.metrics.RecordFollowTransition("blocked")
	s.log.Info("user blocked", zap.String("blocker_id", blockerID), zap.String("blocked_id", targetID))
	return nil
}

func (s *followService) Unblock(ctx context.Context, blockerID, targetID string) error {
	if err := s.repo.Unblock(ctx, blockerID, targetID); err != nil {
		return err
	}
	s.metrics.RecordFollowTransition("unblocked")
	return nil
}

// GetFollowStatus viewer 视角下与 target 的关系
func (s *followService) GetFollowStatus(ctx context.Context, viewerID, targetID string) (model.FollowStatus, error) {
	if viewerID == targetID {
		return model.FollowStatusSelf, nil
	}
	edge, err := s.repo.GetEdge(ctx, viewerID, targetID)
	if err != nil {
		if database.IsNotFound(err) {
			return model.FollowStatusNone, nil
		}
		return "", err
	}
	return model.StatusOf(edge), nil
}

func (s *followService) ListFollowers(ctx context.Context, userID string, page utils.Pagination) ([]userModel.ViewerEntry, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	offset, limit := page.GetPageOffset()
	return s.repo.ListFollowers(ctx, userID, offset, limit)
}

func (s *followService) ListFollowing(ctx context.Context, userID string, page utils.Pagination) ([]userModel.ViewerEntry, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, err
	}
	offset, limit := page.GetPageOffset()
	return s.repo.ListFollowing(ctx, userID, offset, limit)
}

// ListRequests 等待 userID 审批的申请
func (s *followService) ListRequests(ctx context.Context, userID string, page utils.Pagination) ([]userModel.ViewerEntry, error) {
	offset, limit := page.GetPageOffset()
	return s.repo.ListRequests(ctx, userID, offset, limit)
}

// CanViewContent 作者本人、公开账号或 accepted 关注者可以查看内容
func (s *followService) CanViewContent(ctx context.Context, viewerID, authorID string) (bool, error) {
	if viewerID == authorID {
		return true, nil
	}
	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return false, err
	}
	if !author.IsPrivate {
		return true, nil
	}
	edge, err := s.repo.GetEdge(ctx, viewerID, authorID)
	if err != nil {
		if database.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return edge.IsAccepted(), nil
}

func (s *followService) FilterAcceptedFollowing(ctx context.Context, followerID string, candidates []string) ([]string, error) {
	return s.repo.FilterAcceptedFollowing(ctx, followerID, candidates)
}
