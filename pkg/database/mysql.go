// Package database 提供 MySQL、Redis、Elasticsearch 客户端的初始化。
package database

import (
	"strings"
	"time"

	"careerpath_go/internal/model"
	"careerpath_go/pkg/log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

// DB 全局 GORM 数据库实例，在 InitMySQL 成功后可用。
var DB *gorm.DB

// gormLogLevel 把配置中的字符串转换为 gorm 日志级别，未知值按 warn 处理。
func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// InitMySQL 根据 DSN 连接 MySQL 并初始化全局 DB。
// SQL 日志通过 zapgorm2 写入应用的 zap logger；失败时调用 log.Fatal 退出进程。
func InitMySQL(dsn, logLevel string) *gorm.DB {
	gormLogger := zapgorm2.New(log.GetLogger())
	gormLogger.SetAsDefault()

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger.LogMode(gormLogLevel(logLevel)),
		// 唯一键冲突转换为 gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to MySQL", err)
	}
	log.Info("Connected to MySQL")

	// 获取底层 *sql.DB 以配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get SQL DB", err)
	}
	sqlDB.SetMaxIdleConns(10)           // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100)          // 最大打开连接数
	sqlDB.SetConnMaxLifetime(time.Hour) // 连接最大存活时间，超时连接会被回收

	log.Info("MySQL initialized successfully")
	return DB
}

// RunMigrate 同步表结构。filter_nodes 上的 (parent_key, name) 联合唯一索引也在这里创建。
func RunMigrate(db *gorm.DB) error {
	log.Info("Running migrations...")

	if err := db.AutoMigrate(
		&model.User{},
		&model.FilterNode{},
		&model.Post{},
		&model.PostFilterLink{},
	); err != nil {
		log.Errorf("Failed to run migrations: %v", err)
		return err
	}

	log.Info("Migrations completed successfully")
	return nil
}
