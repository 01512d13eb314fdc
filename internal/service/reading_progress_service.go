package service

import (
	"context"
	"fmt"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/logger"
	"library_portal_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

type ProgressStore interface {
	Upsert(ctx context.Context, progress *model.ReadingProgress) error
	FindByUserAndResource(ctx context.Context, userID, resourceID uint) (*model.ReadingProgress, error)
}

// PageInvalidator 通知外部页面缓存某个路径已过期
type PageInvalidator interface {
	Invalidate(ctx context.Context, path string)
}

// DashboardPath 调用者仪表盘页面在页面缓存中的路径
func DashboardPath(userID uint) string {
	return fmt.Sprintf("/dashboard/%d", userID)
}

type ReadingProgressService struct {
	Store ProgressStore
	Pages PageInvalidator

	now func() time.Time
}

func NewReadingProgressService(store ProgressStore, pages PageInvalidator) *ReadingProgressService {
	return &ReadingProgressService{
		Store: store,
		Pages: pages,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Update 记录阅读位置。只返回输入校验错误，存储失败记日志后吞掉
func (s *ReadingProgressService) Update(ctx context.Context, caller *model.Caller, resourceID uint, currentPage int, totalPages *int) error {
	if caller == nil || caller.ID == 0 {
		return nil
	}
	if resourceID == 0 {
		return util.ErrInvalidResource
	}
	if currentPage < 0 {
		return fmt.Errorf("%w: %d", util.ErrInvalidPage, currentPage)
	}
	if totalPages != nil && *totalPages <= 0 {
		return fmt.Errorf("%w: %d", util.ErrInvalidTotalPages, *totalPages)
	}

	var total *int
	if totalPages != nil {
		total = util.IntPtr(*totalPages)
	}

	now := s.now()
	progress := &model.ReadingProgress{
		UserID:          caller.ID,
		ResourceID:      resourceID,
		CurrentPage:     currentPage,
		TotalPages:      total,
		PercentComplete: model.ComputePercent(currentPage, total),
		LastReadAt:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Store.Upsert(ctx, progress); err != nil {
		monitoring.ProgressWriteFailures.Inc()
		logger.Log.Error("reading progress write failed",
			zap.Uint("user_id", caller.ID),
			zap.Uint("resource_id", resourceID),
			zap.Int("current_page", currentPage),
			zap.Error(err),
		)
		return nil
	}

	s.Pages.Invalidate(ctx, DashboardPath(caller.ID))
	return nil
}

// Get 返回可恢复的阅读位置，没有记录时为 nil
func (s *ReadingProgressService) Get(ctx context.Context, caller *model.Caller, resourceID uint) (*model.ReadingProgress, error) {
	if caller == nil || caller.ID == 0 {
		return nil, nil
	}
	if resourceID == 0 {
		return nil, util.ErrInvalidResource
	}
	return s.Store.FindByUserAndResource(ctx, caller.ID, resourceID)
}
