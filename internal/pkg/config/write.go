package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, "config", "config.yaml"), nil
}

// Default 全部取默认值的配置
func Default() *Config {
	cfg, err := decode(newViper(""))
	if err != nil {
		return &Config{}
	}
	return cfg
}

func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"version":   cfg.App.Version,
			"log_level": cfg.App.LogLevel,
			"log_path":  cfg.App.LogPath,
		},
		"storage": map[string]any{
			"db_path": cfg.Storage.DBPath,
		},
		"server": map[string]any{
			"listen_addr":         cfg.Server.ListenAddr,
			"request_timeout_sec": cfg.Server.RequestTimeoutSec,
		},
		"clanbattle": map[string]any{
			"full_chances_per_day":     cfg.ClanBattle.FullChancesPerDay,
			"addition_chances_per_day": cfg.ClanBattle.AdditionChancesPerDay,
			"max_cycle_lead":           cfg.ClanBattle.MaxCycleLead,
			"day_start_hour":           cfg.ClanBattle.DayStartHour,
			"boss_table_path":          cfg.ClanBattle.BossTablePath,
			"recent_records_default":   cfg.ClanBattle.RecentRecordsDefault,
		},
		"telemetry": map[string]any{
			"metrics_enabled": cfg.Telemetry.MetricsEnabled,
			"tracing_enabled": cfg.Telemetry.TracingEnabled,
			"otlp_endpoint":   cfg.Telemetry.OTLPEndpoint,
		},
	}

	b, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
