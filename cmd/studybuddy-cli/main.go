package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"studybuddy/internal/app"
	"studybuddy/internal/cli"
	"studybuddy/internal/config"
	"studybuddy/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("STUDYBUDDY_CONFIG"), "path to YAML config file")
	platform := flag.String("platform", "", "device platform: ios, android or web (overrides config)")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for tutor replies")
	flag.Parse()

	if err := run(*configPath, *platform, *wait); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, platform string, wait time.Duration) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if platform != "" {
		cfg.App.Platform = platform
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Logs go to stderr so they do not interleave with the prompt.
	log := logger.NewWithOutput(cfg.App.Name, "error", os.Stderr)
	services, err := app.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer services.Close()

	return cli.Run(ctx, os.Stdin, os.Stdout, cli.Config{
		Service:     services.Service,
		Sessions:    services.Sessions,
		Chat:        services.Chat,
		Voice:       services.Voice,
		Uploads:     services.Uploads,
		Settings:    services.Settings,
		WaitTimeout: wait,
	})
}
