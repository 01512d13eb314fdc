package database

import (
	"fmt"
	"library_portal_backend/internal/config"
	"library_portal_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(d, &gorm.Config{
		// 资源、书签等表归外部服务所有，不建外键
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 建表；引擎只写 activity_events 与 reading_progress，其余表用于本地运行
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(Models()...)
	if err != nil {
		return err
	}
	log.Println("Database migration completed")
	return nil
}

func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Course{},
		&model.Resource{},
		&model.Bookmark{},
		&model.ActivityEvent{},
		&model.ReadingProgress{},
	}
}
