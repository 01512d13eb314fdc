package service

import (
	"context"
	"fmt"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/logger"
	"library_portal_backend/pkg/monitoring"
	"library_portal_backend/pkg/tracing"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ActivityReader interface {
	FindRecentByUser(ctx context.Context, userID uint, limit int) ([]model.ActivityEvent, error)
}

type ProgressReader interface {
	FindRecentByUser(ctx context.Context, userID uint, limit int) ([]model.ReadingProgress, error)
	CountCompleted(ctx context.Context, userID uint) (int64, error)
}

type BookmarkCounter interface {
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type Recommender interface {
	Select(ctx context.Context, caller *model.Caller, limit int, exclude ...uint) ([]model.RecommendationCandidate, error)
}

// DashboardPolicy 控制仪表盘读取的超时与失败处理
type DashboardPolicy struct {
	ReadTimeout         time.Duration
	RecommendationLimit int
	// AllowPartial 为 true 时，单个读取失败只留空对应区块并写入 Warnings
	AllowPartial bool
}

const (
	sectionRecentActivity  = "recent_activity"
	sectionContinueReading = "continue_reading"
	sectionRecommendations = "recommendations"
	sectionBookmarks       = "bookmark_count"
	sectionCompleted       = "completed_count"
)

type DashboardService struct {
	Activities  ActivityReader
	Progress    ProgressReader
	Bookmarks   BookmarkCounter
	Recommender Recommender

	policy atomic.Pointer[DashboardPolicy]
	now    func() time.Time
}

func NewDashboardService(
	activities ActivityReader,
	progress ProgressReader,
	bookmarks BookmarkCounter,
	recommender Recommender,
	policy DashboardPolicy,
) *DashboardService {
	s := &DashboardService{
		Activities:  activities,
		Progress:    progress,
		Bookmarks:   bookmarks,
		Recommender: recommender,
		now:         func() time.Time { return time.Now().UTC() },
	}
	s.SetPolicy(policy)
	return s
}

func (s *DashboardService) SetPolicy(p DashboardPolicy) {
	if p.ReadTimeout <= 0 {
		p.ReadTimeout = 2 * time.Second
	}
	if p.RecommendationLimit <= 0 {
		p.RecommendationLimit = 3
	}
	s.policy.Store(&p)
}

func (s *DashboardService) Policy() DashboardPolicy {
	return *s.policy.Load()
}

// BuildDashboard 并发读取五个互不依赖的数据源后组装快照。
// caller 为 nil 时返回 (nil, nil)
func (s *DashboardService) BuildDashboard(ctx context.Context, caller *model.Caller) (*model.DashboardSnapshot, error) {
	if caller == nil || caller.ID == 0 {
		return nil, nil
	}

	policy := s.Policy()
	start := time.Now()

	ctx, span := tracing.Tracer.Start(ctx, "dashboard.build", trace.WithAttributes(
		attribute.Int64("user.id", int64(caller.ID)),
		attribute.Bool("dashboard.allow_partial", policy.AllowPartial),
	))
	defer span.End()

	var (
		activity        []model.ActivityEvent
		reading         []model.ReadingProgress
		recommendations []model.RecommendationCandidate
		bookmarks       int64
		completed       int64
	)

	sections := []string{
		sectionRecentActivity,
		sectionContinueReading,
		sectionRecommendations,
		sectionBookmarks,
		sectionCompleted,
	}
	reads := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) {
			activity, err = s.Activities.FindRecentByUser(ctx, caller.ID, util.RecentActivityWindow)
			return
		},
		func(ctx context.Context) (err error) {
			reading, err = s.Progress.FindRecentByUser(ctx, caller.ID, util.ContinueReadingWindow)
			return
		},
		func(ctx context.Context) (err error) {
			// 推荐器自身会排除全部在读资源，而不只是上面展示的三条
			recommendations, err = s.Recommender.Select(ctx, caller, policy.RecommendationLimit)
			return
		},
		func(ctx context.Context) (err error) {
			bookmarks, err = s.Bookmarks.CountByUser(ctx, caller.ID)
			return
		},
		func(ctx context.Context) (err error) {
			completed, err = s.Progress.CountCompleted(ctx, caller.ID)
			return
		},
	}

	// 每个读取只写自己的槽位，goroutine 之间没有共享可变状态
	errs := make([]error, len(reads))
	g, gctx := errgroup.WithContext(ctx)
	for i := range reads {
		i := i
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, policy.ReadTimeout)
			defer cancel()
			if err := reads[i](rctx); err != nil {
				errs[i] = fmt.Errorf("dashboard %s: %w", sections[i], err)
				if !policy.AllowPartial {
					return errs[i]
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.DashboardDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}

	snapshot := &model.DashboardSnapshot{
		RecentActivity:  make([]model.ActivityView, 0, len(activity)),
		ContinueReading: make([]model.ReadingProgressView, 0, len(reading)),
		Recommendations: recommendations,
		Counters: model.DashboardCounters{
			Bookmarks: bookmarks,
			Completed: completed,
		},
		GeneratedAt: s.now(),
	}
	if snapshot.Recommendations == nil {
		snapshot.Recommendations = []model.RecommendationCandidate{}
	}
	for i := range activity {
		snapshot.RecentActivity = append(snapshot.RecentActivity, activity[i].View())
	}
	for i := range reading {
		snapshot.ContinueReading = append(snapshot.ContinueReading, reading[i].View())
	}

	for i, err := range errs {
		if err == nil {
			continue
		}
		logger.Log.Warn("dashboard section unavailable",
			zap.Uint("user_id", caller.ID),
			zap.String("section", sections[i]),
			zap.Error(err),
		)
		snapshot.Warnings = append(snapshot.Warnings, sections[i])
	}

	outcome := "ok"
	if len(snapshot.Warnings) > 0 {
		outcome = "partial"
		span.SetAttributes(attribute.StringSlice("dashboard.warnings", snapshot.Warnings))
	}
	monitoring.DashboardDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return snapshot, nil
}
