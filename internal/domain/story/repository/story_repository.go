package repository

import (
	"context"
	"time"

	"socialgraph/internal/domain/story/model"
	userModel "socialgraph/internal/domain/user/model"
	"socialgraph/pkg/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoryRepository interface {
	Create(ctx context.Context, story *model.Story) error
	GetByID(ctx context.Context, id string) (*model.Story, error)
	Delete(ctx context.Context, id string) error

	AddView(ctx context.Context, storyID, viewerID string) error
	ListViewers(ctx context.Context, storyID string) ([]userModel.ViewerEntry, error)

	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Story, error)
	DeleteExpired(ctx context.Context, ids []string, now time.Time) ([]string, error)
}

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *model.Story) error {
	return r.db.WithContext(ctx).Create(story).Error
}

func (r *storyRepository) GetByID(ctx context.Context, id string) (*model.Story, error) {
	var story model.Story
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&story).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// Delete 删除故事及观看记录
func (r *storyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&model.StoryView{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Story{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("story not found")
		}
		return nil
	})
}

// AddView 记录观看，重复观看不产生新记录
func (r *storyRepository) AddView(ctx context.Context, storyID, viewerID string) error {
	view := &model.StoryView{StoryID: storyID, ViewerID: viewerID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(view).Error
}

// ListViewers 最近观看的在前
func (r *storyRepository) ListViewers(ctx context.Context, storyID string) ([]userModel.ViewerEntry, error) {
	var viewers []userModel.ViewerEntry
	err := r.db.WithContext(ctx).
		Table("story_views AS sv").
		Select("u.id, u.username, u.name, u.avatar_url, u.avatar_storage_id, u.avatar_kind, u.is_private").
		Joins("JOIN users u ON u.id = sv.viewer_id").
		Where("sv.story_id = ?", storyID).
		Order("sv.created_at DESC").
		Scan(&viewers).Error
	return viewers, err
}

// ListExpired 最早过期的优先
func (r *storyRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Story, error) {
	var stories []model.Story
	err := r.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&stories).Error
	return stories, err
}

// DeleteExpired 锁定仍处于过期状态的故事后删除，返回实际删除的 ID
// 作者已先行删除的故事不在返回值中，其媒体由作者的删除流程释放
func (r *storyRepository) DeleteExpired(ctx context.Context, ids []string, now time.Time) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Story{}).Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ? AND expires_at <= ?", ids, now).
			Pluck("id", &removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		if err := tx.Where("story_id IN ?", removed).Delete(&model.StoryView{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", removed).Delete(&model.Story{}).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
