package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/intreport/addone/modes"
	"github.com/sshcollectorpro/intreport/api/handler"
	"github.com/sshcollectorpro/intreport/api/router"
	"github.com/sshcollectorpro/intreport/internal/config"
	"github.com/sshcollectorpro/intreport/internal/database"
	"github.com/sshcollectorpro/intreport/internal/service"
	"github.com/sshcollectorpro/intreport/internal/version"
	"github.com/sshcollectorpro/intreport/pkg/cache"
	"github.com/sshcollectorpro/intreport/pkg/logger"
)

const reloadDebounce = 300 * time.Millisecond

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "intreport-server",
		Short:        "HTTP API for show interface reports",
		Version:      version.Build,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "config file")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := initLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.WithField("version", version.Build).Info("Starting intreport server")

	if n, err := modes.LoadCustom(cfg.Modes); err != nil {
		return fmt.Errorf("custom modes: %w", err)
	} else if n > 0 {
		logger.WithField("count", n).Info("custom report modes loaded")
	}

	if err := cache.InitRedis(cfg.Cache.Redis); err != nil {
		logger.WithError(err).Warn("redis unavailable, brief cache falls back to memory")
	}
	defer cache.Close()

	var opts []service.Option
	var history *service.History
	if cfg.History.Enabled {
		if err := database.InitSQLite(cfg.History.SQLite); err != nil {
			return fmt.Errorf("init history: %w", err)
		}
		defer database.Close()
		history = service.NewHistory(database.GetDB())
		opts = append(opts, service.WithHistory(history))
	}

	pool := service.NewSSHPool(cfg)
	defer pool.Close()

	svc := service.NewReportService(cfg, pool, opts...)

	var logs *handler.LogsHandler
	if cfg.Log.Output == "file" || cfg.Log.Output == "both" {
		logs = handler.NewLogsHandler(cfg.Log.FilePath)
	}
	r := router.SetupRouter(handler.NewReportHandler(svc, history, cfg.Report.Platform), logs, cfg.Server.Mode)

	server := &http.Server{
		Addr:           cfg.GetServerAddr(),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": server.Addr, "mode": cfg.Server.Mode}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go watchConfig(ctx, configPath)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
		return err
	}
	logger.Info("Server shutdown complete")
	return nil
}

func initLogger(cfg *config.Config) error {
	return logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}

// watchConfig 配置文件变化时重新加载日志与自定义模式，其余配置需要重启生效
func watchConfig(ctx context.Context, path string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WithError(err).Warn("Config watch init failed")
		return
	}
	defer watcher.Close()

	// 监听目录，编辑器保存时常以 rename 替换文件
	abs, err := filepath.Abs(path)
	if err != nil {
		logger.WithError(err).Warn("Config watch path invalid")
		return
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		logger.WithError(err).Warn("Config watch add failed")
		return
	}

	reload := func() {
		newCfg, err := config.Load(path)
		if err != nil {
			logger.WithError(err).Warn("Config reload failed")
			return
		}
		if err := initLogger(newCfg); err != nil {
			logger.WithError(err).Warn("Logger reload failed")
		}
		n, err := modes.LoadCustom(newCfg.Modes)
		if err != nil {
			logger.WithError(err).Warn("Custom modes reload failed, keeping previous modes")
			return
		}
		logger.WithField("custom_modes", n).Info("Config reloaded")
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("Config watch error")
		}
	}
}
