package model

import (
	"time"

	userModel "socialgraph/internal/domain/user/model"
	baseModel "socialgraph/pkg/model"
)

// Story 限时动态，ExpiresAt 之后不再出现在任何读取结果中
type Story struct {
	baseModel.BaseModel
	AuthorID  string              `gorm:"type:uuid;not null;index" json:"authorId"`
	Media     baseModel.MediaItem `gorm:"embedded;embeddedPrefix:media_" json:"media"`
	ExpiresAt time.Time           `gorm:"not null;index" json:"expiresAt"`
}

// IsExpired 是否已过期
func (s *Story) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StoryView 观看记录，每个观众只记一次
type StoryView struct {
	baseModel.BaseModel
	StoryID  string `gorm:"type:uuid;not null;uniqueIndex:idx_story_viewer" json:"storyId"`
	ViewerID string `gorm:"type:uuid;not null;uniqueIndex:idx_story_viewer" json:"viewerId"`
}

// ViewerList 故事的观众列表
type ViewerList struct {
	Viewers []userModel.ViewerEntry `json:"viewers"`
	Count   int                     `json:"count"`
}
