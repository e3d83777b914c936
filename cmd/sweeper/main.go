package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/semla/internal/app"
	"github.com/shrimpsizemoose/semla/internal/sweep"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	interval := time.Duration(service.Config.Sweep.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	sweeper := sweep.New(service.Pairings, interval)
	if err := sweeper.Start(); err != nil {
		logger.Error.Fatalf("Failed to start sweeper: %v", err)
	}
	defer sweeper.Stop()

	logger.Info.Printf("Sweeper running every %s", interval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Sweeper shutting down")
}
