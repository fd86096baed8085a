package model

import (
	baseModel "socialgraph/pkg/model"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
)

// Follow 有向关注边，(FollowerID, FollowingID) 唯一
// (A,B) 与 (B,A) 是两条独立的边
type Follow struct {
	baseModel.BaseModel
	FollowerID  string `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair" json:"followerId"`
	FollowingID string `gorm:"type:uuid;not null;uniqueIndex:idx_follow_pair;index:idx_follow_target_status,priority:1" json:"followingId"`
	Status      string `gorm:"size:16;not null;index:idx_follow_target_status,priority:2" json:"status"`
}

// IsAccepted 是否已生效
func (f *Follow) IsAccepted() bool {
	return f.Status == StatusAccepted
}

// FollowStatus 观察者视角下与目标用户的关系
type FollowStatus string

const (
	FollowStatusSelf      FollowStatus = "self"
	FollowStatusNone      FollowStatus = "none"
	FollowStatusPending   FollowStatus = "pending"
	FollowStatusFollowing FollowStatus = "following"
)

// StatusOf 根据关注边推导关系
func StatusOf(edge *Follow) FollowStatus {
	switch {
	case edge == nil:
		return FollowStatusNone
	case edge.IsAccepted():
		return FollowStatusFollowing
	default:
		return FollowStatusPending
	}
}
