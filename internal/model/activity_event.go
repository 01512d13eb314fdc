package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityAction string

const (
	ActionView     ActivityAction = "view"
	ActionUpload   ActivityAction = "upload"
	ActionBookmark ActivityAction = "bookmark"
	ActionDownload ActivityAction = "download"
	ActionProgress ActivityAction = "progress"
	ActionSearch   ActivityAction = "search"
)

// ActivityEvent 只追加的用户行为记录，写入后不再修改
// swagger:model ActivityEvent
type ActivityEvent struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     uint           `gorm:"not null;index:idx_activity_user_created,priority:1" json:"userId"`
	Action     ActivityAction `gorm:"size:50;not null" json:"action"`
	ResourceID *uint          `gorm:"index" json:"resourceId,omitempty"`
	Detail     datatypes.JSON `json:"detail,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_activity_user_created,priority:2;index" json:"createdAt"`

	Resource *Resource `gorm:"foreignKey:ResourceID" json:"-"`
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}

func (e *ActivityEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == "" {
		e.ID = GenerateUUID()
	}
	return
}
