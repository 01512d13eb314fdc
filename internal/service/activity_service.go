package service

import (
	"context"
	"encoding/json"
	"errors"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/logger"
	"library_portal_backend/pkg/monitoring"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const maxActionLength = 50

type ActivityStore interface {
	Create(ctx context.Context, event *model.ActivityEvent) error
}

// ActivityService 记录用户行为。记录是尽力而为的：任何失败都只记日志，不影响调用方
type ActivityService struct {
	Store        ActivityStore
	WriteTimeout time.Duration

	breaker *gobreaker.CircuitBreaker[struct{}]
	now     func() time.Time
}

func NewActivityService(store ActivityStore, writeTimeout time.Duration) *ActivityService {
	if writeTimeout <= 0 {
		writeTimeout = 3 * time.Second
	}
	return &ActivityService{
		Store:        store,
		WriteTimeout: writeTimeout,
		breaker:      newActivityBreaker(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func newActivityBreaker() *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "activity-recorder",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Warn("activity recorder circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Record 追加一条行为事件。caller 为 nil 时直接返回
func (s *ActivityService) Record(ctx context.Context, caller *model.Caller, action model.ActivityAction, resourceID *uint, detail any) {
	if caller == nil || caller.ID == 0 {
		return
	}
	if action == "" || len(action) > maxActionLength {
		s.drop("invalid_action", caller, action, util.ErrInvalidAction)
		return
	}

	var blob datatypes.JSON
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			s.drop("encode", caller, action, err)
			return
		}
		blob = raw
	}

	event := &model.ActivityEvent{
		UserID:     caller.ID,
		Action:     action,
		ResourceID: resourceID,
		Detail:     blob,
		CreatedAt:  s.now(),
	}

	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.Store.Create(ctx, event)
	})
	if err != nil {
		reason := "storage"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "circuit_open"
		}
		s.drop(reason, caller, action, err)
	}
}

// RecordAsync 在独立的 goroutine 中记录，不等待结果
func (s *ActivityService) RecordAsync(caller *model.Caller, action model.ActivityAction, resourceID *uint, detail any) {
	if caller == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("activity recorder panic", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.WriteTimeout)
		defer cancel()
		s.Record(ctx, caller, action, resourceID, detail)
	}()
}

func (s *ActivityService) drop(reason string, caller *model.Caller, action model.ActivityAction, err error) {
	monitoring.ActivityDropped.WithLabelValues(reason).Inc()
	logger.Log.Warn("activity event dropped",
		zap.String("reason", reason),
		zap.Uint("user_id", caller.ID),
		zap.String("action", string(action)),
		zap.Error(err),
	)
}
