package service

import (
	"context"
	"fmt"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/monitoring"
	"math"
	"sync/atomic"
)

// RecommendationStrategy 单一推荐信号。实现必须跳过 exclude 中的资源，
// 并按创建时间倒序返回至多 limit 条
type RecommendationStrategy interface {
	Reason() model.RecommendationReason
	Candidates(ctx context.Context, caller *model.Caller, exclude []uint, limit int) ([]model.Resource, error)
}

type SemesterCatalog interface {
	FindBySemester(ctx context.Context, semester int, exclude []uint, limit int) ([]model.Resource, error)
}

type RatingCatalog interface {
	FindByMinRating(ctx context.Context, minRating float64, exclude []uint, limit int) ([]model.Resource, error)
}

type UnseenCatalog interface {
	FindUnseenByUser(ctx context.Context, userID uint, exclude []uint, limit int) ([]model.Resource, error)
}

type CatalogReader interface {
	SemesterCatalog
	RatingCatalog
	UnseenCatalog
}

type ProgressIndex interface {
	ResourceIDsByUser(ctx context.Context, userID uint) ([]uint, error)
}

// CurriculumStrategy 当前学期课程下的资源
type CurriculumStrategy struct {
	Catalog SemesterCatalog
}

func (s *CurriculumStrategy) Reason() model.RecommendationReason {
	return model.ReasonCurriculumMatch
}

func (s *CurriculumStrategy) Candidates(ctx context.Context, caller *model.Caller, exclude []uint, limit int) ([]model.Resource, error) {
	if caller.CurrentSemester == nil {
		return nil, nil
	}
	return s.Catalog.FindBySemester(ctx, *caller.CurrentSemester, exclude, limit)
}

// QualityStrategy 高评分资源，阈值可热更新
type QualityStrategy struct {
	Catalog RatingCatalog

	threshold atomic.Uint64
}

func NewQualityStrategy(catalog RatingCatalog, threshold float64) *QualityStrategy {
	s := &QualityStrategy{Catalog: catalog}
	s.SetThreshold(threshold)
	return s
}

func (s *QualityStrategy) SetThreshold(v float64) {
	s.threshold.Store(math.Float64bits(v))
}

func (s *QualityStrategy) Threshold() float64 {
	return math.Float64frombits(s.threshold.Load())
}

func (s *QualityStrategy) Reason() model.RecommendationReason {
	return model.ReasonHighlyRated
}

func (s *QualityStrategy) Candidates(ctx context.Context, caller *model.Caller, exclude []uint, limit int) ([]model.Resource, error) {
	return s.Catalog.FindByMinRating(ctx, s.Threshold(), exclude, limit)
}

// UnseenStrategy 调用者从未打开过的最新资源
type UnseenStrategy struct {
	Catalog UnseenCatalog
}

func (s *UnseenStrategy) Reason() model.RecommendationReason {
	return model.ReasonUnseen
}

func (s *UnseenStrategy) Candidates(ctx context.Context, caller *model.Caller, exclude []uint, limit int) ([]model.Resource, error) {
	return s.Catalog.FindUnseenByUser(ctx, caller.ID, exclude, limit)
}

// RecommendationService 按固定优先级依次执行策略，直到凑满 limit 条
type RecommendationService struct {
	Strategies []RecommendationStrategy
	Progress   ProgressIndex
	MaxLimit   int
}

func NewRecommendationService(catalog CatalogReader, progress ProgressIndex, cfg config.PersonalizationConfig) *RecommendationService {
	return &RecommendationService{
		Strategies: []RecommendationStrategy{
			&CurriculumStrategy{Catalog: catalog},
			NewQualityStrategy(catalog, cfg.RatingThreshold),
			&UnseenStrategy{Catalog: catalog},
		},
		Progress: progress,
		MaxLimit: cfg.MaxLimit,
	}
}

func (s *RecommendationService) SetRatingThreshold(v float64) {
	for _, strategy := range s.Strategies {
		if q, ok := strategy.(*QualityStrategy); ok {
			q.SetThreshold(v)
		}
	}
}

// Select 返回至多 limit 条不重复的候选。调用者已有阅读进度的资源一律排除，
// exclude 可追加额外的排除项。存储错误直接返回
func (s *RecommendationService) Select(ctx context.Context, caller *model.Caller, limit int, exclude ...uint) ([]model.RecommendationCandidate, error) {
	if caller == nil || caller.ID == 0 {
		return nil, nil
	}
	if limit < 1 || limit > s.MaxLimit {
		return nil, fmt.Errorf("%w: %d (max %d)", util.ErrInvalidLimit, limit, s.MaxLimit)
	}

	inProgress, err := s.Progress.ResourceIDsByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("load reading progress: %w", err)
	}

	skip := make(map[uint]struct{}, len(inProgress)+len(exclude)+limit)
	excluded := make([]uint, 0, len(inProgress)+len(exclude)+limit)
	for _, ids := range [][]uint{inProgress, exclude} {
		for _, id := range ids {
			if _, ok := skip[id]; ok {
				continue
			}
			skip[id] = struct{}{}
			excluded = append(excluded, id)
		}
	}

	candidates := make([]model.RecommendationCandidate, 0, limit)
	for _, strategy := range s.Strategies {
		remaining := limit - len(candidates)
		if remaining == 0 {
			break
		}

		resources, err := strategy.Candidates(ctx, caller, excluded, remaining)
		if err != nil {
			return nil, fmt.Errorf("recommendation strategy %s: %w", strategy.Reason(), err)
		}

		for i := range resources {
			r := &resources[i]
			if _, ok := skip[r.ID]; ok {
				continue
			}
			skip[r.ID] = struct{}{}
			excluded = append(excluded, r.ID)
			candidates = append(candidates, model.RecommendationCandidate{
				Resource: r.Summary(),
				Reason:   strategy.Reason(),
			})
			if len(candidates) == limit {
				break
			}
		}
	}

	for _, c := range candidates {
		monitoring.RecommendationsServed.WithLabelValues(string(c.Reason)).Inc()
	}
	return candidates, nil
}
