// Package log 是对 zap 的薄封装，全局只有一个 logger。
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugarLogger = zap.NewNop().Sugar()
	zapLogger   = zap.NewNop()
)

// Init 按级别和格式构建 logger。format 为 console 时使用彩色开发格式，否则输出 JSON。
// outputDir 非空时额外写入 outputDir/app.log。
func Init(level, format, outputDir string) {
	atomicLevel := zap.NewAtomicLevel()
	if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
		panic(fmt.Errorf("invalid log level: %w", err))
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cfg.Level = atomicLevel
	cfg.OutputPaths = []string{"stdout"}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			panic(fmt.Errorf("failed to create log directory: %w", err))
		}
		cfg.OutputPaths = append(cfg.OutputPaths, filepath.Join(outputDir, "app.log"))
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Errorf("failed to build logger: %w", err))
	}
	zapLogger = logger
	sugarLogger = logger.Sugar()
}

func Debugf(template string, args ...interface{}) {
	sugarLogger.Debugf(template, args...)
}

func Info(msg string) {
	sugarLogger.Info(msg)
}

func Infof(template string, args ...interface{}) {
	sugarLogger.Infof(template, args...)
}

// Infow 键值对形式，例如 Infow("filter node created", "id", id)
func Infow(msg string, keysAndValues ...interface{}) {
	sugarLogger.Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...interface{}) {
	sugarLogger.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	sugarLogger.Warnw(msg, keysAndValues...)
}

// Error 记录错误并附带 error 字段
func Error(msg string, err error) {
	sugarLogger.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugarLogger.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	sugarLogger.Errorw(msg, keysAndValues...)
}

// Fatal 记录后退出进程，只在启动阶段使用
func Fatal(msg string, err error) {
	sugarLogger.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugarLogger.Fatalf(template, args...)
}

// Sync 刷新缓冲区，程序退出前调用
func Sync() {
	_ = sugarLogger.Sync()
	_ = zapLogger.Sync()
}

// GetLogger 返回底层 *zap.Logger，供 zapgorm2 等需要原始 logger 的组件使用
func GetLogger() *zap.Logger {
	return zapLogger
}
