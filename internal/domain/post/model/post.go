package model

import (
	userModel "socialgraph/internal/domain/user/model"
	baseModel "socialgraph/pkg/model"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// 点赞对象类型
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// Post 帖子
// TaggedUsers 必须是作者发帖时已 accepted 关注的用户
type Post struct {
	baseModel.BaseModel
	AuthorID      string                                   `gorm:"type:uuid;not null;index" json:"authorId"`
	Caption       string                                   `gorm:"type:text" json:"caption"`
	Media         datatypes.JSONSlice[baseModel.MediaItem] `gorm:"type:jsonb;not null" json:"media"`
	TaggedUsers   pq.StringArray                           `gorm:"type:text[]" json:"taggedUsers"`
	Hashtags      pq.StringArray                           `gorm:"type:text[]" json:"hashtags"`
	CommentsCount int64                                    `gorm:"not null;default:0" json:"commentsCount"`
	// Seq 插入顺序，created_at 相同时保证排序稳定
	Seq int64 `gorm:"->;type:bigserial" json:"-"`
}

// Comment 评论，ParentID 为空表示根评论
type Comment struct {
	baseModel.BaseModel
	PostID   string  `gorm:"type:uuid;not null;index" json:"postId"`
	AuthorID string  `gorm:"type:uuid;not null" json:"authorId"`
	Text     string  `gorm:"type:text;not null" json:"text"`
	ParentID *string `gorm:"type:uuid;index" json:"parentId"`
}

// IsReply 是否为回复
func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}

// Like 点赞记录，点赞数始终由记录条数统计
type Like struct {
	baseModel.BaseModel
	UserID     string `gorm:"type:uuid;not null;uniqueIndex:idx_like_target" json:"userId"`
	TargetID   string `gorm:"type:uuid;not null;uniqueIndex:idx_like_target;index" json:"targetId"`
	TargetType string `gorm:"size:16;not null;uniqueIndex:idx_like_target" json:"targetType"`
}

// SavedPost 收藏
type SavedPost struct {
	baseModel.BaseModel
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_saved_pair" json:"userId"`
	PostID string `gorm:"type:uuid;not null;uniqueIndex:idx_saved_pair;index" json:"postId"`
}

// PostView 带观察者状态的帖子
type PostView struct {
	Post
	Author            userModel.Summary `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	LikesCount        int64             `json:"likesCount"`
	IsLiked           bool              `json:"isLiked"`
	IsSaved           bool              `json:"isSaved"`
	IsFollowingAuthor bool              `json:"isFollowingAuthor"`
}

// CommentView 带作者和点赞状态的评论
type CommentView struct {
	Comment
	Author     userModel.Summary `gorm:"embedded;embeddedPrefix:author_" json:"author"`
	LikesCount int64             `json:"likesCount"`
	IsLiked    bool              `json:"isLiked"`
	Replies    []*CommentView    `gorm:"-" json:"replies"`
}

// HashtagStat 话题使用次数
type HashtagStat struct {
	Tag   string `json:"tag"`
	Posts int64  `json:"posts"`
}
