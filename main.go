package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"salesflow/config"
	"salesflow/dashboard"
	"salesflow/fetcher"
	"salesflow/logger"
	"salesflow/metrics"
	"salesflow/snapshot"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	once := flag.Bool("once", false, "Run a single refresh cycle and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Salesflow.Name,
		"version":     cfg.Salesflow.Version,
		"environment": config.AppEnvironment(),
	}).Info("starting salesflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Logging.CloudWatch.Enabled {
		logger.InitCloudWatch(cfg.Logging.CloudWatch.Region, cfg.Logging.CloudWatch.Namespace)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}
	if cfg.Metrics.Prometheus.Enabled {
		metrics.Init(cfg.Metrics.Prometheus.Address)
	}

	source, err := fetcher.NewFetcher(cfg)
	if err != nil {
		log.WithError(err).Error("failed to create fetcher")
		os.Exit(1)
	}

	store := snapshot.NewStore()
	refresher := snapshot.NewRefresher(cfg, source, store)

	if *once {
		if err := refresher.RefreshOnce(ctx); err != nil {
			log.WithError(err).Error("refresh failed")
			os.Exit(1)
		}
		status := store.Status()
		log.WithFields(logger.Fields{
			"run_id":  status.RunID,
			"clients": status.ClientCount,
			"agents":  status.AgentCount,
		}).Info("refresh completed")
		return
	}

	dash, err := dashboard.NewServer(cfg.Dashboard, store, log)
	if err != nil {
		log.WithError(err).Error("failed to create dashboard server")
		os.Exit(1)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	if dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dash.Run(ctx); err != nil {
				log.WithError(err).Warn("dashboard server failed")
			}
		}()
		log.WithFields(logger.Fields{"address": dash.Address()}).Info("dashboard enabled")
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("salesflow stopped")
}
