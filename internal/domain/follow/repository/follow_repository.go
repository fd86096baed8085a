package repository

import (
	"context"

	"socialgraph/internal/domain/follow/model"
	userModel "socialgraph/internal/domain/user/model"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository 关注关系仓库
// 修改关注边的方法各自在一个事务内同时维护双方计数器
type FollowRepository interface {
	GetEdge(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	CreateEdge(ctx context.Context, edge *model.Follow) error
	AcceptEdge(ctx context.Context, followerID, followingID string) error
	DeleteEdge(ctx context.Context, followerID, followingID string) (*model.Follow, error)
	DeletePendingEdge(ctx context.Context, followerID, followingID string) error

	Block(ctx context.Context, blockerID, targetID string) error
	Unblock(ctx context.Context, blockerID, targetID string) error
	IsBlockedEither(ctx context.Context, a, b string) (bool, error)

	ListFollowers(ctx context.Context, userID string, offset, limit int) ([]userModel.ViewerEntry, error)
	ListFollowing(ctx context.Context, userID string, offset, limit int) ([]userModel.ViewerEntry, error)
	ListRequests(ctx context.Context, userID string, offset, limit int) ([]userModel.ViewerEntry, error)
	FilterAcceptedFollowing(ctx context.Context, followerID string, candidates []string) ([]string, error)
}

type followRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// adjustCounters 同步调整 follower 的 following_count 与 following 的 followers_count
func adjustCounters(tx *gorm.DB, followerID, followingID string, delta int) error {
	if err := tx.Model(&userModel.User{}).Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&userModel.User{}).Where("id = ?", followingID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error
}

// lockPair 按 id 顺序锁住两个用户行，建立关注与拉黑在同一对用户上串行执行
func lockPair(tx *gorm.DB, a, b string) error {
	var ids []string
	return tx.Model(&userModel.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", []string{a, b}).
		Order("id").
		Pluck("id", &ids).Error
}

func blockedEither(tx *gorm.DB, a, b string) (bool, error) {
	var count int64
	err := tx.Model(&userModel.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepository) GetEdge(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	var edge model.Follow
	err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&edge).Error
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// CreateEdge 插入关注边；accepted 时同一事务内双方计数 +1
// 持有双方行锁后再次检查拉黑，并发重复插入由唯一索引拦截，返回 Conflict(AlreadyExists)
func (r *followRepository) CreateEdge(ctx context.Context, edge *model.Follow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, edge.FollowerID, edge.FollowingID); err != nil {
			return err
		}
		blocked, err := blockedEither(tx, edge.FollowerID, edge.FollowingID)
		if err != nil {
			return err
		}
		if blocked {
			return apperr.Conflict(apperr.ErrBlocked, "")
		}

		if err := tx.Create(edge).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return apperr.Conflict(apperr.ErrAlreadyExists, "follow relationship already exists")
			}
			return err
		}
		if edge.IsAccepted() {
			return adjustCounters(tx, edge.FollowerID, edge.FollowingID, 1)
		}
		return nil
	})
}

// AcceptEdge pending -> accepted，条件更新保证只有一次生效
func (r *followRepository) AcceptEdge(ctx context.Context, followerID, followingID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Follow{}).
			Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, model.StatusPending).
			Update("status", model.StatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("follow request not found")
		}
		return adjustCounters(tx, followerID, followingID, 1)
	})
}

// DeleteEdge 删除任意状态的关注边，被删除的是 accepted 边时双方计数 -1
func (r *followRepository) DeleteEdge(ctx context.Context, followerID, followingID string) (*model.Follow, error) {
	var edge model.Follow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			First(&edge).Error; err != nil {
			return database.Translate(err, "follow relationship not found")
		}
		if err := tx.Delete(&model.Follow{}, "id = ?", edge.ID).Error; err != nil {
			return err
		}
		if edge.IsAccepted() {
			return adjustCounters(tx, followerID, followingID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// DeletePendingEdge 拒绝关注申请，pending 边不影响计数
func (r *followRepository) DeletePendingEdge(ctx context.Context, followerID, followingID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ? AND status = ?", followerID, followingID, model.StatusPending).
		Delete(&model.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("follow request not found")
	}
	return nil
}

// Block 删除双向关注边（accepted 边同步扣减计数）并写入拉黑记录，单一事务
func (r *followRepository) Block(ctx context.Context, blockerID, targetID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPair(tx, blockerID, targetID); err != nil {
			return err
		}

		var edges []model.Follow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("(follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?)",
				blockerID, targetID, targetID, blockerID).
			Find(&edges).Error; err != nil {
			return err
		}

		for _, edge := range edges {
			if err := tx.Delete(&model.Follow{}, "id = ?", edge.ID).Error; err != nil {
				return err
			}
			if edge.IsAccepted() {
				if err := adjustCounters(tx, edge.FollowerID, edge.FollowingID, -1); err != nil {
					return err
				}
			}
		}

		block := &userModel.Block{BlockerID: blockerID, BlockedID: targetID}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(block).Error
	})
}

func (r *followRepository) Unblock(ctx context.Context, blockerID, targetID string) error {
	res := r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, targetID).
		Delete(&userModel.Block{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("block not found")
	}
	return nil
}

// IsBlockedEither 任一方拉黑了另一方
func (r *followRepository) IsBlockedEither(ctx context.Context, a, b string) (bool, error) {
	return blockedEither(r.db.WithContext(ctx), a, b)
}

// listUsers 通过关注边关联出对端用户，最新的关系在前
func (r *followRepository) listUsers(ctx context.Context, joinOn, where string, userID, status string, offset, limit int) ([]userModel.ViewerEntry, error) {
	var users []userModel.ViewerEntry
	err := r.db.WithContext(ctx).
		Table("follows AS f").
		Select("u.id, u.username, u.name, u.avatar_url, u.avatar_storage_id, u.avatar_kind, u.is_private").
		Joins("JOIN users u ON "+joinOn).
		Where(where+" AND f.status = ?", userID, status).
		Order("f.created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&users).Error
	return users, err
}

func (r *followRepository) ListFollowers(ctx context.Context, userID string, offset, limit int) ([]userModel.ViewerEntry, error) {
	return r.listUsers(ctx, "u.id = f.follower_id", "f.following_id = ?", userID, model.StatusAccepted, offset, limit)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID string, offset, limit int) ([]userModel.ViewerEntry, error) {
	return r.listUsers(ctx, "u.id = f.following_id", "f.follower_id = ?", userID, model.StatusAccepted, offset, limit)
}

// ListRequests 待 userID 审批的关注申请
func (r *followRepository) ListRequests(ctx context.Context, userID string, offset, limit int) ([]userModel.ViewerEntry, error) {
	return r.listUsers(ctx, "u.id = f.follower_id", "f.following_id = ?", userID, model.StatusPending, offset, limit)
}

// FilterAcceptedFollowing 返回 candidates 中 followerID 已 accepted 关注的用户
func (r *followRepository) FilterAcceptedFollowing(ctx context.Context, followerID string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id IN ? AND status = ?", followerID, candidates, model.StatusAccepted).
		Pluck("following_id", &ids).Error
	return ids, err
}
