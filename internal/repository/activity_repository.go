package repository

import (
	"context"
	"library_portal_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

func (r *ActivityRepository) Create(ctx context.Context, event *model.ActivityEvent) error {
	return r.DB.WithContext(ctx).Omit("Resource").Create(event).Error
}

// FindRecentByUser 按创建时间倒序，附带资源标题
func (r *ActivityRepository) FindRecentByUser(ctx context.Context, userID uint, limit int) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := r.DB.WithContext(ctx).
		Preload("Resource", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *ActivityRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ActivityEvent{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// FindOlderThan 供保留策略分批导出旧事件
func (r *ActivityRepository) FindOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := r.DB.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *ActivityRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&model.ActivityEvent{})
	return res.RowsAffected, res.Error
}
