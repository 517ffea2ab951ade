package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// logLevel 全局日志级别，配置热更新时直接修改
var logLevel = new(slog.LevelVar)

// LoggerOptions 日志选项
type LoggerOptions struct {
	Level     string
	Path      string // 为空时只输出到 stdout
	Component string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogger 安装默认 slog 文本日志；返回的 Closer 负责关闭日志文件
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	SetLogLevel(opts.Level)

	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		w = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)
	return closer, nil
}

// SetLogLevel 修改全局日志级别
func SetLogLevel(level string) {
	logLevel.Set(ParseLevel(level))
}

// ParseLevel 解析日志级别，无法识别时为 info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
