package model

import "time"

// ReadingProgress 每个 (用户, 资源) 只有一行，由 upsert 原地更新
// swagger:model ReadingProgress
type ReadingProgress struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex:idx_reading_progress_user_resource,priority:1;index:idx_reading_progress_user_last_read,priority:1" json:"userId"`
	ResourceID      uint      `gorm:"not null;uniqueIndex:idx_reading_progress_user_resource,priority:2" json:"resourceId"`
	CurrentPage     int       `gorm:"not null" json:"currentPage"`
	TotalPages      *int      `json:"totalPages,omitempty"`
	PercentComplete float64   `gorm:"not null;index" json:"percentComplete"`
	LastReadAt      time.Time `gorm:"not null;index:idx_reading_progress_user_last_read,priority:2" json:"lastReadAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Resource *Resource `gorm:"foreignKey:ResourceID" json:"-"`
}

func (ReadingProgress) TableName() string {
	return "reading_progress"
}

// CompletedPercent 达到该进度即视为读完
const CompletedPercent = 100.0

// ComputePercent 未知或非正总页数时为 0，结果截断到 [0,100]
func ComputePercent(currentPage int, totalPages *int) float64 {
	if totalPages == nil || *totalPages <= 0 {
		return 0
	}
	percent := float64(currentPage) / float64(*totalPages) * 100
	if percent < 0 {
		return 0
	}
	if percent > CompletedPercent {
		return CompletedPercent
	}
	return percent
}
