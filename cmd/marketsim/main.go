package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/efreitasn/marketsim/internal/config"
	"github.com/efreitasn/marketsim/internal/handler"
	"github.com/efreitasn/marketsim/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (defaults baked in when omitted)")
	steps := flag.Int("steps", 0, "Override the configured number of ticks")
	seed := flag.Uint64("seed", 0, "Override the configured RNG seed")
	csvPath := flag.String("out", "", "Override the CSV output path")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *steps > 0 {
		cfg.Steps = *steps
	}
	if *seed > 0 {
		cfg.Seed = *seed
	}
	if *csvPath != "" {
		cfg.Output.CSVPath = *csvPath
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are unactionable

	simulation, err := sim.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build simulation", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional read-only observer API.
	var srv *http.Server
	if cfg.Observer.Enabled {
		hub := handler.NewHub(logger)
		simulation.SetOnTick(hub.Broadcast)
		srv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Observer.Port),
			Handler: handler.NewRouter(simulation, hub, logger),
		}
		go func() {
			logger.Info("observer API starting", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("observer API error", zap.Error(err))
			}
		}()
	}

	runErr := simulation.Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		logger.Error("run aborted", zap.Error(runErr))
	}

	if cfg.Output.CSVPath != "" && simulation.Collector().Len() > 0 {
		if err := simulation.Collector().WriteCSVFile(cfg.Output.CSVPath); err != nil {
			logger.Error("failed to write series", zap.Error(err))
		} else {
			logger.Info("series written",
				zap.String("path", cfg.Output.CSVPath),
				zap.Int("records", simulation.Collector().Len()),
			)
		}
	}

	// With the observer enabled, keep serving the finished run until a
	// shutdown signal arrives.
	if srv != nil {
		if runErr == nil && ctx.Err() == nil {
			logger.Info("run complete, observer API still serving (ctrl-c to exit)")
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("observer API shutdown error", zap.Error(err))
		}
	}

	if runErr != nil && ctx.Err() == nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file when a path is given and falls back to
// the baked-in defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadAndValidate(path)
}

// newLogger builds a production JSON logger at the configured level.
func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
