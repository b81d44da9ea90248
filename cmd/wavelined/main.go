// Package main is the entry point for the wavelined status bar daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/waveline/internal/app"
	"github.com/jmylchreest/waveline/internal/compositor"
	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/display"
	"github.com/jmylchreest/waveline/internal/ipc"
	"github.com/jmylchreest/waveline/internal/modules"
	"github.com/jmylchreest/waveline/internal/sysinfo"
	"github.com/jmylchreest/waveline/internal/theme"
)

const appID = "io.github.jmylchreest.wavelined"

// Build-time variables
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/waveline/waveline.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("wavelined version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting wavelined", "version", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	gtkApp := adw.NewApplication(appID, 0)

	var (
		controller    *app.App
		telemetry     *sysinfo.Service
		configWatcher *config.Watcher
		themeLoader   *theme.Loader
		themeWatcher  *theme.Watcher
		ipcServer     *ipc.Server
		running       atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		glib.IdleAdd(func() {
			if running.Load() {
				if ipcServer != nil {
					_ = ipcServer.Stop()
				}
				if themeWatcher != nil {
					_ = themeWatcher.Stop()
				}
				if configWatcher != nil {
					_ = configWatcher.Stop()
				}
				if telemetry != nil {
					telemetry.Stop()
				}
				gtkApp.Quit()
			}
		})
	}()

	gtkApp.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// Theme first, so the first surfaces already render styled.
		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(""); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)

		themeWatcher, err = theme.NewWatcher("", logger)
		if err != nil {
			logger.Warn("failed to create theme watcher", "error", err)
		} else {
			themeWatcher.SetChangeCallback(func() {
				glib.IdleAdd(func() {
					if err := themeLoader.Reload(); err != nil {
						logger.Warn("failed to reload theme", "error", err)
					}
				})
			})
			if err := themeWatcher.Start(); err != nil {
				logger.Warn("failed to start theme watcher", "error", err)
			}
		}

		// Session bus shared by the media player and tray modules.
		sessionBus, err := dbus.SessionBus()
		if err != nil {
			logger.Warn("no session bus, media player and tray disabled", "error", err)
		}

		telemetry = sysinfo.NewService(cfg.SystemInfo, logger)
		if err := telemetry.Start(ctx); err != nil {
			logger.Warn("failed to start telemetry service", "error", err)
		}

		mods := []modules.Module{
			modules.NewClock(cfg.Clock),
			modules.NewSystemInfo(cfg.SystemInfo, telemetry),
			modules.NewUpdates(cfg.Updates),
			modules.NewMediaPlayer(cfg.MediaPlayer, sessionBus, logger),
			modules.NewTray(sessionBus, logger),
			modules.NewSettings(cfg.Settings),
		}

		executor := display.NewExecutor(&gtkApp.Application, logger)
		controller = app.New(cfg, mods, executor, logger)
		display.NewRenderer(controller, executor, logger)

		monitors := display.NewMonitorWatcher(logger)
		monitors.SetAttachCallback(func(name string, output *compositor.Output) {
			controller.Post(app.OutputAttached{Name: name, Output: output})
		})
		monitors.SetDetachCallback(func(output *compositor.Output) {
			controller.Post(app.OutputDetached{Output: output})
		})
		if err := monitors.Start(); err != nil {
			logger.Warn("failed to start monitor watcher", "error", err)
		}

		configWatcher, err = config.NewWatcher(*configPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newCfg *config.Config) {
				controller.Post(app.ConfigReloaded{Config: newCfg})
			})
			if err := configWatcher.Start(); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		ipcServer = ipc.NewServer(logger)
		ipcServer.SetStateHandler(func(ctx context.Context) (ipc.State, error) {
			entries, err := controller.State(ctx)
			if err != nil {
				return ipc.State{}, err
			}
			return ipc.State{Version: version, Entries: entries}, nil
		})
		ipcServer.SetReloadHandler(func() error {
			newCfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			controller.Post(app.ConfigReloaded{Config: newCfg})
			return nil
		})
		ipcServer.SetCloseMenusHandler(func() {
			controller.Post(app.CloseAllMenus{})
		})
		if err := ipcServer.Start(); err != nil {
			logger.Error("failed to start control interface", "error", err)
		}

		go controller.Run(ctx)

		// Keep the application alive with no toplevel of its own; the
		// layer-shell windows come and go with the registry.
		gtkApp.Hold()

		logger.Info("wavelined ready")
	})

	if code := gtkApp.Run(nil); code > 0 {
		os.Exit(code)
	}
}
