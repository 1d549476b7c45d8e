package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"gpudisplay/internal/app"
	"gpudisplay/internal/config"
	"gpudisplay/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	writeConfig := flag.String("write-config", "", "write the effective config to this path and exit")
	flag.Parse()

	if *configPath != "" {
		if err := config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *writeConfig != "" {
		if err := config.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	cfg := config.Get()

	log, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.SetLogger(log)
	defer log.Sync()

	fmt.Println("gpudisplay - WebGPU")
	fmt.Println("Controls:")
	fmt.Println("  V      : Toggle vsync")
	fmt.Println("  L      : Simulate device loss")
	fmt.Println("  Escape : Exit")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(*cfg, logging.Logger())
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}
	defer application.Cleanup()

	if err := application.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}
