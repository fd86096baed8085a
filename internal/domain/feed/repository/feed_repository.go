package repository

import (
	"context"
	"database/sql"
	"time"

	"socialgraph/internal/domain/feed/model"
	postModel "socialgraph/internal/domain/post/model"
	postRepo "socialgraph/internal/domain/post/repository"

	"gorm.io/gorm"
)

// visibleClause 作者公开、作者本人或观察者已 accepted 关注作者
const visibleClause = `(u.is_private = FALSE OR p.author_id = @viewer OR EXISTS (
	SELECT 1 FROM follows vf WHERE vf.follower_id = @viewer AND vf.following_id = p.author_id AND vf.status = 'accepted'))`

// newestFirst created_at 相同时按插入顺序
const newestFirst = "p.created_at DESC, p.seq ASC"

const activeStoriesSQL = `SELECT s.*,
	u.username AS author_username, u.name AS author_name,
	u.avatar_url AS author_avatar_url, u.avatar_storage_id AS author_avatar_storage_id, u.avatar_kind AS author_avatar_kind,
	u.is_private AS author_is_private,
	EXISTS (SELECT 1 FROM story_views sv WHERE sv.story_id = s.id AND sv.viewer_id = @viewer) AS is_seen
FROM stories s
JOIN users u ON u.id = s.author_id
WHERE s.expires_at > @now
	AND (s.author_id = @viewer OR EXISTS (
		SELECT 1 FROM follows f WHERE f.follower_id = @viewer AND f.following_id = s.author_id AND f.status = 'accepted'))
	AND NOT EXISTS (SELECT 1 FROM blocks b WHERE b.blocker_id = @viewer AND b.blocked_id = s.author_id)
ORDER BY s.created_at DESC`

// FeedRepository 每种 feed 一条查询完成过滤、关联与标注
type FeedRepository interface {
	GlobalFeed(ctx context.Context, viewerID string, offset, limit int) ([]postModel.PostView, error)
	HashtagFeed(ctx context.Context, viewerID, tag string, offset, limit int) ([]postModel.PostView, error)
	TaggedPosts(ctx context.Context, viewerID, userID string, offset, limit int) ([]postModel.PostView, error)
	UserPosts(ctx context.Context, viewerID, authorID string, offset, limit int) ([]postModel.PostView, error)
	SavedPosts(ctx context.Context, viewerID string, offset, limit int) ([]postModel.PostView, error)
	ActiveStories(ctx context.Context, viewerID string, now time.Time) ([]model.StoryItem, error)
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func (r *feedRepository) visiblePosts(ctx context.Context, viewerID string) *gorm.DB {
	return postRepo.PostViews(r.db.WithContext(ctx), viewerID).
		Where(visibleClause, sql.Named("viewer", viewerID))
}

func page(query *gorm.DB, order string, offset, limit int) ([]postModel.PostView, error) {
	var posts []postModel.PostView
	err := query.Order(order).Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *feedRepository) GlobalFeed(ctx context.Context, viewerID string, offset, limit int) ([]postModel.PostView, error) {
	return page(r.visiblePosts(ctx, viewerID), newestFirst, offset, limit)
}

func (r *feedRepository) HashtagFeed(ctx context.Context, viewerID, tag string, offset, limit int) ([]postModel.PostView, error) {
	query := r.visiblePosts(ctx, viewerID).Where("? = ANY(p.hashtags)", tag)
	return page(query, newestFirst, offset, limit)
}

// TaggedPosts userID 被 @ 的帖子，按作者可见性过滤
func (r *feedRepository) TaggedPosts(ctx context.Context, viewerID, userID string, offset, limit int) ([]postModel.PostView, error) {
	query := r.visiblePosts(ctx, viewerID).Where("? = ANY(p.tagged_users)", userID)
	return page(query, newestFirst, offset, limit)
}

// UserPosts 不做可见性过滤，调用方负责校验
func (r *feedRepository) UserPosts(ctx context.Context, viewerID, authorID string, offset, limit int) ([]postModel.PostView, error) {
	query := postRepo.PostViews(r.db.WithContext(ctx), viewerID).Where("p.author_id = ?", authorID)
	return page(query, newestFirst, offset, limit)
}

// SavedPosts 最近收藏的在前
func (r *feedRepository) SavedPosts(ctx context.Context, viewerID string, offset, limit int) ([]postModel.PostView, error) {
	query := postRepo.PostViews(r.db.WithContext(ctx), viewerID).
		Joins("JOIN saved_posts sp ON sp.post_id = p.id AND sp.user_id = ?", viewerID)
	return page(query, "sp.created_at DESC", offset, limit)
}

func (r *feedRepository) ActiveStories(ctx context.Context, viewerID string, now time.Time) ([]model.StoryItem, error) {
	var items []model.StoryItem
	err := r.db.WithContext(ctx).
		Raw(activeStoriesSQL, map[string]interface{}{"viewer": viewerID, "now": now}).
		Scan(&items).Error
	return items, err
}
