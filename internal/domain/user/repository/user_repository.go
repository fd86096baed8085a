package repository

import (
	"context"

	"socialgraph/internal/domain/user/model"
	"socialgraph/pkg/apperr"
	"socialgraph/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	TogglePrivacy(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// userRepository 实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建用户，用户名或邮箱重复返回 Conflict
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Conflict(apperr.ErrAlreadyExists, "username or email already taken")
		}
		return err
	}
	return nil
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile 只更新资料字段，计数器不经过这里
func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Model(user).
		Select("name", "bio", "avatar_url", "avatar_storage_id", "avatar_kind").
		Updates(user).Error
}

// TogglePrivacy 原子翻转隐私设置，返回新值
func (r *userRepository) TogglePrivacy(ctx context.Context, id string) (bool, error) {
	var user model.User
	res := r.db.WithContext(ctx).Model(&user).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "is_private"}}}).
		Where("id = ?", id).
		UpdateColumn("is_private", gorm.Expr("NOT is_private"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return user.IsPrivate, nil
}

// Delete 物理删除用户记录，不级联内容
func (r *userRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
