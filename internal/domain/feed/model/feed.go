package model

import (
	"time"

	postModel "socialgraph/internal/domain/post/model"
	storyModel "socialgraph/internal/domain/story/model"
	userModel "socialgraph/internal/domain/user/model"
)

// FeedPage 一页帖子
type FeedPage struct {
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Posts []postModel.PostView `json:"posts"`
}

// StoryItem 带作者信息和是否已看的故事
type StoryItem struct {
	storyModel.Story
	Author userModel.Summary `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	IsSeen bool              `json:"isSeen"`
}

// StoryGroup 同一作者的未过期故事，最新在前
type StoryGroup struct {
	AuthorID  string            `json:"authorId"`
	Author    userModel.Summary `json:"author"`
	HasUnseen bool              `json:"hasUnseen"`
	LatestAt  time.Time         `json:"latestAt"`
	Stories   []StoryItem       `json:"stories"`
}
