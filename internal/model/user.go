package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// User 由身份服务维护，推荐引擎只读取学期与院系
// swagger:model User
type User struct {
	BaseModel
	Name            string    `gorm:"size:100;not null" json:"name"`
	Email           string    `gorm:"size:100;unique;not null" json:"email"`
	Role            UserRole  `gorm:"size:20;default:'student'" json:"role"`
	Department      string    `gorm:"size:100" json:"department"`
	CurrentSemester *int      `json:"currentSemester,omitempty"`
	Disabled        bool      `gorm:"default:false" json:"disabled"`
	LastSeen        time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// Caller 是引擎各操作显式接收的调用者画像，nil 表示未登录
type Caller struct {
	ID              uint
	CurrentSemester *int
	Department      string
}

func (u *User) Caller() *Caller {
	if u == nil {
		return nil
	}
	return &Caller{
		ID:              u.ID,
		CurrentSemester: u.CurrentSemester,
		Department:      u.Department,
	}
}
