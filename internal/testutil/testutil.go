package testutil

import (
	"context"
	"fmt"
	"library_portal_backend/internal/model"
	"library_portal_backend/pkg/database"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Epoch 种子数据的基准时间，测试中用 Epoch.Add 构造确定的先后顺序
var Epoch = time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

// DB 每个测试一个独立的内存 sqlite 库，已完成迁移
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("test db handle: %v", err)
	}
	// sqlite 单写者，串行化连接避免 database is locked
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(database.Models()...); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

func SeedUser(tb testing.TB, db *gorm.DB, email string, semester *int) *model.User {
	tb.Helper()
	user := &model.User{
		Name:            email,
		Email:           email,
		Role:            model.Student,
		Department:      "CS",
		CurrentSemester: semester,
	}
	if err := db.Create(user).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return user
}

func SeedCourse(tb testing.TB, db *gorm.DB, code string, semester int) *model.Course {
	tb.Helper()
	course := &model.Course{
		Code:       code,
		Name:       code,
		Department: "CS",
		Semester:   semester,
	}
	if err := db.Create(course).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return course
}

// ResourceOption 调整种子资源的可选字段
type ResourceOption func(*model.Resource)

func WithCourse(courseID uint) ResourceOption {
	return func(r *model.Resource) { r.CourseID = &courseID }
}

func WithRating(rating float64) ResourceOption {
	return func(r *model.Resource) { r.Rating = &rating }
}

func WithPages(pages int) ResourceOption {
	return func(r *model.Resource) { r.TotalPages = &pages }
}

// SeedResource createdAt 显式给出，保证排序断言稳定
func SeedResource(tb testing.TB, db *gorm.DB, title string, createdAt time.Time, opts ...ResourceOption) *model.Resource {
	tb.Helper()
	resource := &model.Resource{
		Title:      title,
		Category:   model.CategoryBook,
		Department: "CS",
	}
	resource.CreatedAt = createdAt.UTC()
	resource.UpdatedAt = createdAt.UTC()
	for _, opt := range opts {
		opt(resource)
	}
	if err := db.Create(resource).Error; err != nil {
		tb.Fatalf("seed resource: %v", err)
	}
	return resource
}

func SeedBookmark(tb testing.TB, db *gorm.DB, userID, resourceID uint) *model.Bookmark {
	tb.Helper()
	bookmark := &model.Bookmark{UserID: userID, ResourceID: resourceID}
	if err := db.Create(bookmark).Error; err != nil {
		tb.Fatalf("seed bookmark: %v", err)
	}
	return bookmark
}

func SeedProgress(tb testing.TB, db *gorm.DB, userID, resourceID uint, currentPage int, totalPages *int, lastReadAt time.Time) *model.ReadingProgress {
	tb.Helper()
	progress := &model.ReadingProgress{
		UserID:          userID,
		ResourceID:      resourceID,
		CurrentPage:     currentPage,
		TotalPages:      totalPages,
		PercentComplete: model.ComputePercent(currentPage, totalPages),
		LastReadAt:      lastReadAt.UTC(),
	}
	if err := db.Omit("Resource").Create(progress).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return progress
}

func SeedActivity(tb testing.TB, db *gorm.DB, userID uint, action model.ActivityAction, resourceID *uint, createdAt time.Time) *model.ActivityEvent {
	tb.Helper()
	event := &model.ActivityEvent{
		UserID:     userID,
		Action:     action,
		ResourceID: resourceID,
		CreatedAt:  createdAt.UTC(),
	}
	if err := db.Omit("Resource").Create(event).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return event
}

// Ctx 带超时的测试上下文
func Ctx(tb testing.TB) context.Context {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tb.Cleanup(cancel)
	return ctx
}
