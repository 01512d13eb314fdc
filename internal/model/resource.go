package model

import "time"

type ResourceCategory string

const (
	CategoryBook      ResourceCategory = "book"
	CategoryPaper     ResourceCategory = "paper"
	CategoryNote      ResourceCategory = "note"
	CategoryPastPaper ResourceCategory = "past-paper"
)

// Resource 馆藏资源，由目录服务维护，引擎只读
// swagger:model Resource
type Resource struct {
	BaseModel
	Title       string           `gorm:"size:255;not null" json:"title"`
	Description string           `gorm:"type:text" json:"description"`
	Category    ResourceCategory `gorm:"size:50;index" json:"category"`
	Department  string           `gorm:"size:100;index" json:"department"`
	CourseID    *uint            `gorm:"index" json:"courseId,omitempty"`
	Course      *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Rating      *float64         `json:"rating,omitempty"` // 0-5
	TotalPages  *int             `json:"totalPages,omitempty"`
	URL         string           `gorm:"size:255" json:"url"`
}

func (Resource) TableName() string {
	return "resources"
}

// ResourceSummary 渲染标题所需的最少资源信息
type ResourceSummary struct {
	ID         uint             `json:"id"`
	Title      string           `json:"title"`
	Category   ResourceCategory `json:"category"`
	Department string           `json:"department"`
	Rating     *float64         `json:"rating,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (r *Resource) Summary() ResourceSummary {
	return ResourceSummary{
		ID:         r.ID,
		Title:      r.Title,
		Category:   r.Category,
		Department: r.Department,
		Rating:     r.Rating,
		CreatedAt:  r.CreatedAt,
	}
}

// swagger:model Course
type Course struct {
	BaseModel
	Code       string `gorm:"size:50;uniqueIndex" json:"code"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Department string `gorm:"size:100;index" json:"department"`
	Semester   int    `gorm:"index;not null" json:"semester"`
}

func (Course) TableName() string {
	return "courses"
}
