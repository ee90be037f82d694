package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/rudis-go/internal/infra/buildinfo"
	"github.com/yndnr/rudis-go/internal/infra/confloader"
	"github.com/yndnr/rudis-go/internal/infra/shutdown"
	"github.com/yndnr/rudis-go/internal/server/config"
	"github.com/yndnr/rudis-go/internal/server/redisserver"
	"github.com/yndnr/rudis-go/internal/telemetry/logger"
	"github.com/yndnr/rudis-go/internal/telemetry/metric"
	"github.com/yndnr/rudis-go/internal/telemetry/tracer"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "rudis-server",
		Usage:   "RESP key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				EnvVars: []string{"RUDIS_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment files loaded before the configuration",
				Value: cli.NewStringSlice(".env", ".env.local"),
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Validate the configuration and exit",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	loadEnvFiles(c.StringSlice("env-file"))

	configFile := c.String("config")
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Bool("check") {
		fmt.Fprintln(c.App.Writer, "configuration OK")
		return nil
	}

	log, closeLog, err := initLogger(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	info := buildinfo.Get()
	log.Info("starting rudis-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	reg := metric.NewRegistry()
	reg.MustRegister(metric.NewCollector(info, time.Now()))
	metrics := metric.NewServerMetrics(metric.WithRegistry(reg))

	tp := tracer.New(cfg.TracerConfig())

	srv := redisserver.New(cfg.RedisServerConfig(),
		redisserver.WithLogger(log),
		redisserver.WithMetrics(metrics),
		redisserver.WithTracer(tp),
	)

	// Setup graceful shutdown
	shutdownHandler := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse order of registration
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down tracer")
		return tp.Shutdown(ctx)
	})

	if err := srv.Start(c.Context); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down RESP server")
		return srv.Shutdown(ctx)
	})

	if cfg.Server.Metrics.Enabled {
		metricsServer, err := startMetrics(cfg.Server.Metrics.Addr, reg, log)
		if err != nil {
			srv.Shutdown(context.Background())
			return err
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	reload := func() { reloadLogLevel(configFile, log) }

	reloadHandler := shutdown.NewReloadHandler()
	reloadHandler.OnReload(reload)
	defer reloadHandler.Stop()

	if configFile != "" {
		watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
		} else if err := watcher.Watch(configFile); err != nil {
			log.Warn("config watcher unavailable", "error", err)
			watcher.Stop()
		} else {
			watcher.OnChange(func(string) { reload() })
			watcher.StartAsync()
			defer watcher.Stop()
		}
	}

	// A reactor that stops on its own (fatal poll error) ends the process.
	go func() {
		select {
		case <-srv.Done():
			if err := srv.Err(); err != nil {
				log.Error("RESP server stopped", "error", err)
				shutdownHandler.Trigger()
			}
		case <-shutdownHandler.Done():
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	waitErr := shutdownHandler.Wait(c.Context)
	if sig := shutdownHandler.Signal(); sig != nil {
		log.Info("received signal", "signal", sig.String())
	}
	if waitErr != nil {
		log.Error("shutdown error", "error", waitErr)
		return waitErr
	}
	if err := srv.Err(); err != nil {
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadEnvFiles loads .env style files. Missing files are skipped and
// variables already set in the environment win.
func loadEnvFiles(files []string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	// Start with defaults
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and sets it as the default.
// The returned function flushes an async writer.
func initLogger(cfg *config.ServerConfig, out io.Writer) (logger.Logger, func(), error) {
	lc := cfg.LoggerConfig()
	lc.Output = out

	closeFn := func() {}
	if cfg.Log.Async {
		aw := logger.NewAsyncWriter(out, cfg.Log.BufferSize)
		lc.Output = aw
		closeFn = func() { aw.Close() }
	}

	log, err := logger.New(lc)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	logger.SetDefault(log)
	return log, closeFn, nil
}

// startMetrics serves the registry on addr until shut down.
func startMetrics(addr string, reg *prometheus.Registry, log logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metric.Handler(reg))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()
	return srv, nil
}

// reloadLogLevel re-reads the configuration and applies its log level.
// Other settings need a restart.
func reloadLogLevel(configFile string, log logger.Logger) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		log.Warn("config reload failed", "error", err)
		return
	}
	old := logger.GetLevel()
	logger.SetLevel(cfg.Log.Level)
	if now := logger.GetLevel(); now != old {
		log.Info("log level changed", "from", old, "to", now)
	}
}
