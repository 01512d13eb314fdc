package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"library_portal_backend/internal/model"
	"library_portal_backend/internal/util"
	"library_portal_backend/pkg/archive"
	"library_portal_backend/pkg/logger"
	"library_portal_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
)

type ActivityArchiveStore interface {
	FindOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]model.ActivityEvent, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

// ActivityRetentionService 行为日志的归档与清理。它不属于记录器本身，
// 由应用的后台任务按周期调用；RetentionDays 为 0 时不做任何事
type ActivityRetentionService struct {
	Store         ActivityArchiveStore
	Archiver      archive.Archiver
	RetentionDays int
	BatchSize     int

	now func() time.Time
}

func NewActivityRetentionService(store ActivityArchiveStore, archiver archive.Archiver, retentionDays, batchSize int) *ActivityRetentionService {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &ActivityRetentionService{
		Store:         store,
		Archiver:      archiver,
		RetentionDays: retentionDays,
		BatchSize:     batchSize,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// RunOnce 先归档再删除；归档失败的批次保留在库中，下次重试
func (s *ActivityRetentionService) RunOnce(ctx context.Context) (int64, error) {
	if s.RetentionDays <= 0 {
		return 0, nil
	}

	runAt := s.now()
	cutoff := runAt.AddDate(0, 0, -s.RetentionDays)
	var total int64

	for batch := 0; ; batch++ {
		events, err := s.Store.FindOlderThan(ctx, cutoff, s.BatchSize)
		if err != nil {
			return total, fmt.Errorf("load expired activity: %w", err)
		}
		if len(events) == 0 {
			break
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		ids := make([]string, 0, len(events))
		for i := range events {
			if err := enc.Encode(&events[i]); err != nil {
				return total, fmt.Errorf("encode activity %s: %w", events[i].ID, err)
			}
			ids = append(ids, events[i].ID)
		}

		name := fmt.Sprintf("activity/%s/%s-%04d.ndjson",
			cutoff.Format(util.DateFormat), runAt.Format("20060102T150405Z"), batch)
		location, err := s.Archiver.Put(ctx, name, &buf, int64(buf.Len()), util.MimeNDJSON)
		if err != nil {
			return total, fmt.Errorf("archive activity batch %d: %w", batch, err)
		}

		deleted, err := s.Store.DeleteByIDs(ctx, ids)
		if err != nil {
			return total, fmt.Errorf("prune archived activity: %w", err)
		}
		total += deleted
		monitoring.ActivityArchived.Add(float64(deleted))

		logger.Log.Info("activity batch archived",
			zap.String("location", location),
			zap.Int("events", len(events)),
			zap.Int64("deleted", deleted),
		)

		if len(events) < s.BatchSize {
			break
		}
	}
	return total, nil
}
