package repository

import (
	"context"
	"errors"
	"library_portal_backend/internal/model"

	"gorm.io/gorm"
)

// ResourceRepository 只读访问馆藏目录
type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

// FindByID 不存在时返回 (nil, nil)
func (r *ResourceRepository) FindByID(ctx context.Context, id uint) (*model.Resource, error) {
	var resource model.Resource
	err := r.DB.WithContext(ctx).Preload("Course").First(&resource, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// newest 统一的排序与排除规则：新建优先，id 作次级排序保证稳定
func (r *ResourceRepository) newest(ctx context.Context, exclude []uint, limit int) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&model.Resource{})
	if len(exclude) > 0 {
		q = q.Where("resources.id NOT IN ?", exclude)
	}
	return q.Order("resources.created_at DESC").
		Order("resources.id DESC").
		Limit(limit)
}

// FindBySemester 所属课程学期等于给定学期的资源
func (r *ResourceRepository) FindBySemester(ctx context.Context, semester int, exclude []uint, limit int) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.newest(ctx, exclude, limit).
		Joins("JOIN courses ON courses.id = resources.course_id AND courses.deleted_at IS NULL").
		Where("courses.semester = ?", semester).
		Find(&resources).Error
	return resources, err
}

// FindByMinRating 评分不低于 minRating 的资源
func (r *ResourceRepository) FindByMinRating(ctx context.Context, minRating float64, exclude []uint, limit int) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.newest(ctx, exclude, limit).
		Where("resources.rating IS NOT NULL AND resources.rating >= ?", minRating).
		Find(&resources).Error
	return resources, err
}

// FindUnseenByUser 用户从未产生阅读进度的资源
func (r *ResourceRepository) FindUnseenByUser(ctx context.Context, userID uint, exclude []uint, limit int) ([]model.Resource, error) {
	var resources []model.Resource
	err := r.newest(ctx, exclude, limit).
		Where("NOT EXISTS (SELECT 1 FROM reading_progress rp WHERE rp.resource_id = resources.id AND rp.user_id = ?)", userID).
		Find(&resources).Error
	return resources, err
}
