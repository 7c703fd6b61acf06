package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	alertsimpl "github.com/foxseedlab/meetsync/external/alerts"
	botapiimpl "github.com/foxseedlab/meetsync/external/botapi"
	configloader "github.com/foxseedlab/meetsync/external/config"
	"github.com/foxseedlab/meetsync/external/googlesync"
	pipelineimpl "github.com/foxseedlab/meetsync/external/pipeline"
	storeimpl "github.com/foxseedlab/meetsync/external/store"
	"github.com/foxseedlab/meetsync/external/trigger"
	vaultimpl "github.com/foxseedlab/meetsync/external/vault"
	"github.com/foxseedlab/meetsync/internal/config"
	"github.com/foxseedlab/meetsync/internal/lifecycle"
	"github.com/foxseedlab/meetsync/internal/scheduler"
	"github.com/foxseedlab/meetsync/internal/watch"
	"github.com/robfig/cron/v3"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching sync engine")
	runEngine(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	storeimpl.RegisterDI(injector)
	vaultimpl.RegisterDI(injector)
	botapiimpl.RegisterDI(injector)
	googlesync.RegisterDI(injector)
	pipelineimpl.RegisterDI(injector)
	alertsimpl.RegisterDI(injector)
	lifecycle.RegisterDI(injector)
	watch.RegisterDI(injector)
	scheduler.RegisterDI(injector)

	return injector
}

func runEngine(cfg *config.Config, injector do.Injector) {
	orch, err := do.Invoke[*scheduler.Orchestrator](injector)
	if err != nil {
		slog.Error("failed to resolve orchestrator", "error", err)
		os.Exit(1)
	}

	runner := cron.New()
	_, err = runner.AddFunc("@every "+cfg.TickInterval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.TickTimeout)
		defer cancel()
		orch.Tick(ctx)
	})
	if err != nil {
		slog.Error("failed to schedule tick", "error", err, "tick_interval", cfg.TickInterval)
		os.Exit(1)
	}
	runner.Start()
	slog.Info("startup: tick scheduled", "tick_interval", cfg.TickInterval)

	if cfg.TriggerListenAddr != "" {
		srv := trigger.NewServer(cfg.TriggerListenAddr, orch, cfg.TickTimeout)
		go func() {
			slog.Info("startup: trigger server listening", "addr", cfg.TriggerListenAddr)
			if err := srv.Run(); err != nil {
				slog.Error("trigger server failed", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	<-runner.Stop().Done()
}
