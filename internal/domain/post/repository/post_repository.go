package repository

import (
	"context"
	"database/sql"

	"socialgraph/internal/domain/post/model"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postViewColumns 帖子 + 作者信息 + 观察者状态，@viewer 为观察者 ID
const postViewColumns = `p.*,
	u.username AS author_username, u.name AS author_name,
	u.avatar_url AS author_avatar_url, u.avatar_storage_id AS author_avatar_storage_id, u.avatar_kind AS author_avatar_kind,
	u.is_private AS author_is_private,
	(SELECT COUNT(*) FROM likes l WHERE l.target_id = p.id AND l.target_type = 'post') AS likes_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.target_id = p.id AND l.target_type = 'post' AND l.user_id = @viewer) AS is_liked,
	EXISTS (SELECT 1 FROM saved_posts s WHERE s.post_id = p.id AND s.user_id = @viewer) AS is_saved,
	EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = @viewer AND f.following_id = p.author_id AND f.status = 'accepted') AS is_following_author`

const commentViewColumns = `c.*,
	u.username AS author_username, u.name AS author_name,
	u.avatar_url AS author_avatar_url, u.avatar_storage_id AS author_avatar_storage_id, u.avatar_kind AS author_avatar_kind,
	u.is_private AS author_is_private,
	(SELECT COUNT(*) FROM likes l WHERE l.target_id = c.id AND l.target_type = 'comment') AS likes_count,
	EXISTS (SELECT 1 FROM likes l WHERE l.target_id = c.id AND l.target_type = 'comment' AND l.user_id = @viewer) AS is_liked`

// PostViews 返回以 posts AS p 为主表、关联作者并带观察者标注的查询，feed 在此基础上追加过滤和排序
// 作者已注销的帖子因内连接 users 而不出现
func PostViews(db *gorm.DB, viewerID string) *gorm.DB {
	return db.Table("posts AS p").
		Select(postViewColumns, sql.Named("viewer", viewerID)).
		Joins("JOIN users u ON u.id = p.author_id")
}

// PostRepository 帖子、评论、点赞、收藏
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	GetView(ctx context.Context, viewerID, id string) (*model.PostView, error)
	Edit(ctx context.Context, id string, fn func(post *model.Post) error) (*model.Post, error)
	DeleteCascade(ctx context.Context, id string) error

	CreateComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, viewerID, postID string) ([]model.CommentView, error)
	DeleteCommentCascade(ctx context.Context, id string) (int64, error)

	ToggleLike(ctx context.Context, userID, targetID, targetType string) (bool, int64, error)
	ToggleSave(ctx context.Context, userID, postID string) (bool, error)

	ListHashtags(ctx context.Context, keyword string, offset, limit int) ([]model.HashtagStat, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// --- Post ---

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetView(ctx context.Context, viewerID, id string) (*model.PostView, error) {
	var view model.PostView
	err := PostViews(r.db.WithContext(ctx), viewerID).
		Where("p.id = ?", id).
		Take(&view).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Edit 在行锁内读取帖子交给 fn 修改，只写回文案和媒体
// fn 返回错误时事务回滚
func (r *postRepository) Edit(ctx context.Context, id string, fn func(post *model.Post) error) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&post).Error; err != nil {
			return database.Translate(err, "post not found")
		}
		if err := fn(&post); err != nil {
			return err
		}
		return tx.Model(&post).Select("caption", "media").Updates(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// DeleteCascade 同一事务删除评论（含回复）、点赞、收藏和帖子本身
// 媒体释放由调用方在事务提交后进行
func (r *postRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := tx.Model(&model.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("target_type = ? AND target_id IN (?)", model.TargetComment, commentIDs).
			Delete(&model.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", model.TargetPost, id).
			Delete(&model.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&model.SavedPost{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", id).Delete(&model.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("post not found")
		}
		return nil
	})
}

// --- Comment ---

// CreateComment 插入评论并在同一事务内 comments_count + 1
func (r *postRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("post not found")
		}
		return nil
	})
}

func (r *postRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListComments 帖子的全部评论，最新在前
func (r *postRepository) ListComments(ctx context.Context, viewerID, postID string) ([]model.CommentView, error) {
	var comments []model.CommentView
	err := r.db.WithContext(ctx).
		Table("comments AS c").
		Select(commentViewColumns, sql.Named("viewer", viewerID)).
		Joins("JOIN users u ON u.id = c.author_id").
		Where("c.post_id = ?", postID).
		Order("c.created_at DESC").
		Find(&comments).Error
	return comments, err
}

// DeleteCommentCascade 删除评论及其直接回复，返回删除条数
// comments_count 按实际删除条数扣减
func (r *postRepository) DeleteCommentCascade(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment model.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&comment).Error; err != nil {
			return database.Translate(err, "comment not found")
		}

		var replyIDs []string
		if err := tx.Model(&model.Comment{}).Where("parent_id = ?", id).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		ids := append([]string{id}, replyIDs...)

		if err := tx.Where("target_type = ? AND target_id IN ?", model.TargetComment, ids).
			Delete(&model.Like{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		return tx.Model(&model.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count - ?", removed)).Error
	})
	return removed, err
}

// --- Like / Save ---

// ToggleLike 已点赞则取消，否则点赞；返回新状态和切换后的点赞数
// 并发插入撞上唯一索引时按已点赞处理
func (r *postRepository) ToggleLike(ctx context.Context, userID, targetID, targetType string) (bool, int64, error) {
	var (
		liked bool
		count int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, targetType).
			Delete(&model.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := &model.Like{UserID: userID, TargetID: targetID, TargetType: targetType}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
				return err
			}
			liked = true
		}
		return tx.Model(&model.Like{}).
			Where("target_id = ? AND target_type = ?", targetID, targetType).
			Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// ToggleSave 已收藏则取消，否则收藏
func (r *postRepository) ToggleSave(ctx context.Context, userID, postID string) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&model.SavedPost{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	saved := &model.SavedPost{UserID: userID, PostID: postID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(saved).Error; err != nil {
		return false, err
	}
	return true, nil
}

// --- Hashtag ---

// ListHashtags 按使用次数排序的话题
func (r *postRepository) ListHashtags(ctx context.Context, keyword string, offset, limit int) ([]model.HashtagStat, error) {
	var stats []model.HashtagStat
	query := r.db.WithContext(ctx).
		Table("posts, unnest(posts.hashtags) AS tag").
		Select("tag, COUNT(*) AS posts")
	if keyword != "" {
		query = query.Where(`tag LIKE ? ESCAPE '\'`, database.ContainsPattern(keyword))
	}
	err := query.Group("tag").
		Order("posts DESC, tag ASC").
		Offset(offset).Limit(limit).
		Scan(&stats).Error
	return stats, err
}
