package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Server     ServerConfig     `mapstructure:"server"`
	ClanBattle ClanBattleConfig `mapstructure:"clanbattle"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	ListenAddr        string `mapstructure:"listen_addr"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
}

// ClanBattleConfig 会战引擎参数；配额两项是新建公会的默认值
type ClanBattleConfig struct {
	FullChancesPerDay     int    `mapstructure:"full_chances_per_day"`
	AdditionChancesPerDay int    `mapstructure:"addition_chances_per_day"`
	MaxCycleLead          int    `mapstructure:"max_cycle_lead"`
	DayStartHour          int    `mapstructure:"day_start_hour"`
	BossTablePath         string `mapstructure:"boss_table_path"`
	RecentRecordsDefault  int    `mapstructure:"recent_records_default"`
}

// TelemetryConfig 指标与链路追踪
type TelemetryConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	return decode(v)
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量，如 CLANBATTLE_SERVER_LISTEN_ADDR
	v.SetEnvPrefix("CLANBATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	cfg.App.LogPath = resolvePath(cfg.App.LogPath)
	cfg.ClanBattle.BossTablePath = resolvePath(cfg.ClanBattle.BossTablePath)

	return &cfg, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "clanbattle")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	// Storage
	v.SetDefault("storage.db_path", "./data/clanbattle.db")

	// Server
	v.SetDefault("server.listen_addr", "127.0.0.1:9010")
	v.SetDefault("server.request_timeout_sec", 10)

	// ClanBattle
	v.SetDefault("clanbattle.full_chances_per_day", 3)
	v.SetDefault("clanbattle.addition_chances_per_day", 3)
	v.SetDefault("clanbattle.max_cycle_lead", 1)
	v.SetDefault("clanbattle.day_start_hour", 5)
	v.SetDefault("clanbattle.boss_table_path", "")
	v.SetDefault("clanbattle.recent_records_default", 3)

	// Telemetry
	v.SetDefault("telemetry.metrics_enabled", true)
	v.SetDefault("telemetry.tracing_enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "")
}

// resolvePath 解析相对路径为绝对路径（相对可执行文件目录）
func resolvePath(path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}
