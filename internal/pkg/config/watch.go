package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Watch 监听配置文件变更：日志级别立即生效，其余字段交给 onChange。
// ctx 结束后不再回调。
func Watch(ctx context.Context, configPath string, onChange func(*Config)) error {
	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		handleChange(v, e, onChange)
	})
	v.WatchConfig()
	slog.Info("配置热更新已启用", "path", v.ConfigFileUsed())
	return nil
}

// handleChange viper 已在回调前重新读入文件，这里只负责解析与分发
func handleChange(v *viper.Viper, e fsnotify.Event, onChange func(*Config)) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return false
	}
	cfg, err := decode(v)
	if err != nil {
		slog.Warn("配置热更新解析失败，保留原配置", "path", e.Name, "error", err)
		return false
	}
	SetLogLevel(cfg.App.LogLevel)
	slog.Info("配置已重新加载", "path", e.Name, "log_level", cfg.App.LogLevel)
	if onChange != nil {
		onChange(cfg)
	}
	return true
}
