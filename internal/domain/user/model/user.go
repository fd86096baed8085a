package model

import (
	baseModel "socialgraph/pkg/model"
)

// User 用户模型
// FollowersCount / FollowingCount 是 accepted 关注边的冗余计数，只能在修改关注边的同一事务里变更
type User struct {
	baseModel.BaseModel
	Username       string              `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Name           string              `gorm:"size:50;not null" json:"name"`
	Email          string              `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash   string              `gorm:"not null" json:"-"` // 密码不返回给前端
	Bio            string              `gorm:"size:160" json:"bio"`
	Avatar         baseModel.MediaItem `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
	IsPrivate      bool                `gorm:"not null;default:false" json:"isPrivate"`
	FollowersCount int64               `gorm:"not null;default:0" json:"followersCount"`
	FollowingCount int64               `gorm:"not null;default:0" json:"followingCount"`
}

// Block 拉黑记录，单向：只表示 Blocker 拉黑了 Blocked
type Block struct {
	baseModel.BaseModel
	BlockerID string `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair" json:"blockerId"`
	BlockedID string `gorm:"type:uuid;not null;uniqueIndex:idx_block_pair;index" json:"blockedId"`
}

// Summary 内容上附带的作者信息
type Summary struct {
	Username  string              `json:"username"`
	Name      string              `json:"name"`
	Avatar    baseModel.MediaItem `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
	IsPrivate bool                `json:"isPrivate"`
}

// Summary 返回用户的作者信息
func (u *User) Summary() Summary {
	return Summary{
		Username:  u.Username,
		Name:      u.Name,
		Avatar:    u.Avatar,
		IsPrivate: u.IsPrivate,
	}
}

// ViewerEntry 关注列表/访客列表中的用户
type ViewerEntry struct {
	ID string `json:"id"`
	Summary
}
