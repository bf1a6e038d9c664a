// Package main is the interactive splat viewer.
//
// Usage:
//
//	splatview [flags] <file.ply>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/splatlod/internal/app"
	"github.com/Faultbox/splatlod/internal/config"
	"github.com/Faultbox/splatlod/internal/frame"
	"github.com/Faultbox/splatlod/internal/logger"
	"github.com/Faultbox/splatlod/pkg/formats"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: splatview [flags] <file.ply>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	logger.Info("=== splatview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	cloud, err := formats.ParseSplatPLYFile(path)
	if err != nil {
		logger.Error("failed to load cloud", zap.String("path", path), zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := frame.ServeMetrics(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	a, err := app.New(cfg, "splatview - "+filepath.Base(path), cloud)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}
