package repository

import (
	"context"
	"errors"
	"fmt"
	"library_portal_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadingProgressRepository struct {
	DB *gorm.DB
}

func NewReadingProgressRepository(db *gorm.DB) *ReadingProgressRepository {
	return &ReadingProgressRepository{DB: db}
}

var progressUpsertColumns = []string{"current_page", "total_pages", "percent_complete", "updated_at", "last_read_at"}

// Upsert 依赖 (user_id, resource_id) 唯一索引，单条语句完成插入或覆盖。
// 只有 last_read_at 不早于现有记录的写入才会覆盖，乱序提交的旧写入被忽略
func (r *ReadingProgressRepository) Upsert(ctx context.Context, progress *model.ReadingProgress) error {
	return r.DB.WithContext(ctx).
		Omit("Resource").
		Clauses(r.upsertClause()).
		Create(progress).Error
}

func (r *ReadingProgressRepository) upsertClause() clause.OnConflict {
	conflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "resource_id"}},
	}

	if r.DB.Dialector.Name() == "mysql" {
		// ON DUPLICATE KEY UPDATE 不支持 WHERE；按顺序赋值，last_read_at 必须放在最后
		set := make(clause.Set, 0, len(progressUpsertColumns))
		for _, col := range progressUpsertColumns {
			expr := gorm.Expr(fmt.Sprintf("IF(VALUES(last_read_at) >= last_read_at, VALUES(%s), %s)", col, col))
			set = append(set, clause.Assignment{Column: clause.Column{Name: col}, Value: expr})
		}
		conflict.DoUpdates = set
		return conflict
	}

	conflict.DoUpdates = clause.AssignmentColumns(progressUpsertColumns)
	conflict.Where = clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: "reading_progress.last_read_at <= excluded.last_read_at"},
	}}
	return conflict
}

// FindByUserAndResource 不存在时返回 (nil, nil)
func (r *ReadingProgressRepository) FindByUserAndResource(ctx context.Context, userID, resourceID uint) (*model.ReadingProgress, error) {
	var progress model.ReadingProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindRecentByUser 按最后阅读时间倒序
func (r *ReadingProgressRepository) FindRecentByUser(ctx context.Context, userID uint, limit int) ([]model.ReadingProgress, error) {
	var rows []model.ReadingProgress
	err := r.DB.WithContext(ctx).
		Preload("Resource", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Where("user_id = ?", userID).
		Order("last_read_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ResourceIDsByUser 返回用户所有有进度记录的资源，不受展示窗口限制
func (r *ReadingProgressRepository) ResourceIDsByUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.WithContext(ctx).Model(&model.ReadingProgress{}).
		Where("user_id = ?", userID).
		Pluck("resource_id", &ids).Error
	return ids, err
}

func (r *ReadingProgressRepository) CountCompleted(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ReadingProgress{}).
		Where("user_id = ? AND percent_complete >= ?", userID, model.CompletedPercent).
		Count(&count).Error
	return count, err
}

func (r *ReadingProgressRepository) CountByUserAndResource(ctx context.Context, userID, resourceID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.ReadingProgress{}).
		Where("user_id = ? AND resource_id = ?", userID, resourceID).
		Count(&count).Error
	return count, err
}
