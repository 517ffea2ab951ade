package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/yuqie6/YukiClanBattle/internal/bootstrap"
	"github.com/yuqie6/YukiClanBattle/internal/pkg/buildinfo"
	"github.com/yuqie6/YukiClanBattle/internal/pkg/config"
)

var (
	cfgFile string
	core    *bootstrap.Core
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clanbattle",
		Short:         "YukiClanBattle - 公会战出刀、挂树、预约管理",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["no_core"] == "true" {
				return nil
			}
			path, err := resolveConfigPath()
			if err != nil {
				return err
			}
			core, err = bootstrap.NewCore(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("初始化失败: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if core != nil {
				_ = core.Close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(clanCmd())
	rootCmd.AddCommand(memberCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

// resolveConfigPath 未指定 -c 时使用默认路径，文件不存在则写入默认配置
func resolveConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := config.WriteFile(path, config.Default()); err != nil {
			return "", err
		}
	}
	return path, nil
}

func slogPrintf(format string, args ...any) {
	slog.Info(fmt.Sprintf(format, args...))
}

// serveCmd 启动 HTTP API，并监听配置文件热更新
func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP API 与事件流",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := maxprocs.Set(maxprocs.Logger(slogPrintf)); err != nil {
				slog.Warn("设置 GOMAXPROCS 失败", "error", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			slog.Info("YukiClanBattle 启动中...", "name", core.Cfg.App.Name, "version", buildinfo.String())
			srv, err := core.StartHTTP(ctx, listen)
			if err != nil {
				return fmt.Errorf("启动 HTTP 失败: %w", err)
			}
			if err := config.Watch(ctx, core.CfgPath, core.ApplyConfig); err != nil {
				slog.Warn("配置热更新不可用", "error", err)
			}

			<-ctx.Done()
			slog.Info("正在关闭...")
			_ = srv.Shutdown(context.Background())
			slog.Info("YukiClanBattle 已退出")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "监听地址，默认取配置 server.listen_addr")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "显示版本",
		Annotations: map[string]string{"no_core": "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("clanbattle", buildinfo.String())
		},
	}
}

// configCmd 写出默认配置文件
func configCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "config-init [path]",
		Short:       "生成默认配置文件",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"no_core": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s 已存在，使用 --force 覆盖", path)
			}
			if err := config.WriteFile(path, config.Default()); err != nil {
				return err
			}
			fmt.Println("✅ 已写入", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的文件")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
