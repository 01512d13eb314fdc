package model

// Bookmark 书签由外部书签服务写入，引擎只统计数量
type Bookmark struct {
	BaseModel
	UserID     uint `gorm:"not null;uniqueIndex:idx_bookmark_user_resource,priority:1" json:"userId"`
	ResourceID uint `gorm:"not null;uniqueIndex:idx_bookmark_user_resource,priority:2" json:"resourceId"`
}

func (Bookmark) TableName() string {
	return "bookmarks"
}
