package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yuqie6/YukiClanBattle/internal/command"
	"github.com/yuqie6/YukiClanBattle/internal/dto"
	"github.com/yuqie6/YukiClanBattle/internal/eventbus"
	"github.com/yuqie6/YukiClanBattle/internal/httpapi"
	"github.com/yuqie6/YukiClanBattle/internal/observability"
	"github.com/yuqie6/YukiClanBattle/internal/pkg/buildinfo"
	"github.com/yuqie6/YukiClanBattle/internal/pkg/config"
	"github.com/yuqie6/YukiClanBattle/internal/repository"
	"github.com/yuqie6/YukiClanBattle/internal/service"
)

// Core 持有各子命令共享的核心依赖
type Core struct {
	Cfg       *config.Config
	CfgPath   string
	DB        *repository.Database
	LogCloser io.Closer

	Store    *repository.Store
	Hub      *eventbus.Hub
	Metrics  *observability.Metrics
	Registry *service.Registry
	Executor *command.Executor

	shutdownTracing func(context.Context) error
}

// NewCore 加载配置并构建引擎（不启动 HTTP）
func NewCore(ctx context.Context, cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, _ := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})

	c := &Core{Cfg: cfg, CfgPath: cfgPath, LogCloser: logCloser}
	if err := c.init(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Core) init(ctx context.Context) error {
	cfg := c.Cfg

	shutdown, err := observability.SetupTracing(ctx, observability.TracingOptions{
		Enabled:     cfg.Telemetry.TracingEnabled,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		ServiceName: cfg.App.Name,
		Version:     buildinfo.Version,
	})
	if err != nil {
		return err
	}
	c.shutdownTracing = shutdown

	table, err := loadBossTable(cfg.ClanBattle.BossTablePath)
	if err != nil {
		return err
	}

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	c.DB = db
	c.Store = repository.NewStore(db.DB)
	c.Hub = eventbus.NewHub()

	// 关闭指标时 Metrics 为 nil，其方法均为空操作
	var observer service.OpObserver
	if cfg.Telemetry.MetricsEnabled {
		c.Metrics = observability.NewMetrics()
		observer = c.Metrics
	}

	c.Registry, err = service.NewRegistry(service.RegistryOptions{
		Store:    c.Store,
		Table:    table,
		Settings: SettingsFromConfig(cfg),
		Events:   c.Hub,
		Observer: observer,
	})
	if err != nil {
		return err
	}
	c.Executor = command.NewExecutor(c.Registry)
	return nil
}

func loadBossTable(path string) (*service.BossTable, error) {
	if path == "" {
		return service.DefaultBossTable()
	}
	slog.Info("加载自定义血量表", "path", path)
	return service.LoadBossTable(path)
}

// SettingsFromConfig 配置 -> 引擎参数
func SettingsFromConfig(cfg *config.Config) service.Settings {
	return service.Settings{
		FullChancesPerDay:     cfg.ClanBattle.FullChancesPerDay,
		AdditionChancesPerDay: cfg.ClanBattle.AdditionChancesPerDay,
		MaxCycleLead:          cfg.ClanBattle.MaxCycleLead,
		DayStartHour:          cfg.ClanBattle.DayStartHour,
		RecentRecords:         cfg.ClanBattle.RecentRecordsDefault,
	}
}

// ApplyConfig 热更新：只刷新引擎参数，存储与监听地址需重启生效
func (c *Core) ApplyConfig(cfg *config.Config) {
	if c == nil || cfg == nil {
		return
	}
	c.Registry.SetSettings(SettingsFromConfig(cfg))
	slog.Info("配置已热更新", "settings", SettingsFromConfig(cfg))
}

// StartHTTP 启动 HTTP 服务；ctx 取消时关闭
func (c *Core) StartHTTP(ctx context.Context, listenAddr string) (*httpapi.Server, error) {
	if listenAddr == "" {
		listenAddr = c.Cfg.Server.ListenAddr
	}
	return httpapi.Start(ctx, httpapi.Options{
		ListenAddr:     listenAddr,
		RequestTimeout: time.Duration(c.Cfg.Server.RequestTimeoutSec) * time.Second,
		Registry:       c.Registry,
		Hub:            c.Hub,
		Metrics:        c.Metrics,
		App: dto.AppStatusDTO{
			Name:       c.Cfg.App.Name,
			Version:    buildinfo.String(),
			ConfigPath: c.CfgPath,
		},
		Storage: dto.StorageStatusDTO{
			DBPath:         c.Cfg.Storage.DBPath,
			SchemaVersion:  c.DB.SchemaVersion,
			SafeMode:       c.DB.SafeMode,
			SafeModeReason: c.DB.MigrationError,
		},
	})
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, c.shutdownTracing(ctx))
		cancel()
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return errors.Join(errs...)
}
