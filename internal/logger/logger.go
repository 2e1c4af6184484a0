package logger

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"campusdate/backend/internal/config"
)

// 文件轮转默认值
const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// Config 日志配置
type Config struct {
	Level       string
	Development bool
	LogFile     string
	MaxSize     int // MB
	MaxBackups  int
	MaxAge      int // days
	Compress    bool
	// Service 写入每条日志的 service 字段，留空不写
	Service string
	// Sampling 生产环境下同一消息每秒超过 100 条后按 1/100 采样
	Sampling bool
}

// NewLogger 创建日志记录器
//
// 开发模式使用彩色控制台输出并在 error 级别附带堆栈，生产模式输出 JSON。
func NewLogger(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(newEncoder(cfg.Development), zapcore.AddSync(os.Stdout), level)
	if cfg.LogFile != "" {
		fileSink, err := rotatingFile(cfg)
		if err != nil {
			return nil, err
		}
		// 文件始终为 JSON，便于采集
		fileCore := zapcore.NewCore(newEncoder(false), fileSink, level)
		core = zapcore.NewTee(core, fileCore)
	}

	if cfg.Sampling && !cfg.Development {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel), zap.Development())
	}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}

	return zap.New(core, opts...), nil
}

func newEncoder(development bool) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

func rotatingFile(cfg Config) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, err
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    positiveOr(cfg.MaxSize, defaultMaxSizeMB),
		MaxBackups: positiveOr(cfg.MaxBackups, defaultMaxBackups),
		MaxAge:     positiveOr(cfg.MaxAge, defaultMaxAgeDays),
		Compress:   cfg.Compress,
	}), nil
}

// FromConfig 按应用配置创建日志记录器
func FromConfig(cfg *config.LogConfig) (*zap.Logger, error) {
	return NewLogger(Config{
		Level:       cfg.Level,
		Development: cfg.Development,
		LogFile:     cfg.File,
		Compress:    true,
		Service:     "campusdate",
		Sampling:    true,
	})
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
