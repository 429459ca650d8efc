package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"drip-station/config"
	"drip-station/internal/container"
	"drip-station/internal/logger"
	"drip-station/internal/metrics"
)

const (
	maxReadFailures = 30
	readRetryDelay  = 100 * time.Millisecond
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Dir: cfg.LogDir, Env: cfg.AppEnv})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create logger")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	srv := serveMetrics(cfg.MetricsAddr, m, log)

	c, err := container.New(cfg, log, m)
	if err != nil {
		log.WithError(err).Fatal("failed to build station")
	}

	if c.Bot != nil {
		go func() {
			if err := c.Bot.Run(ctx); err != nil {
				log.WithError(err).Error("bot stopped")
			}
		}()
	} else {
		log.Warn("TELEGRAM_TOKEN is empty, operator commands are disabled")
	}

	log.Info("station is running...")
	runLoop(ctx, c, log)

	// запись закрывается и дообрабатывается даже после сигнала
	c.Station.Shutdown(context.Background())
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("failed to release camera")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("metrics server shutdown")
		}
	}
}

func runLoop(ctx context.Context, c *container.Container, log logrus.FieldLogger) {
	failures := 0
	for ctx.Err() == nil {
		frame, err := c.Camera.Read()
		if err != nil {
			failures++
			if failures >= maxReadFailures {
				log.WithError(err).Error("camera stopped delivering frames")
				return
			}
			time.Sleep(readRetryDelay)
			continue
		}
		failures = 0

		c.Station.Step(ctx, frame)
		_ = frame.Close()
	}
}

func serveMetrics(addr string, m *metrics.Metrics, log logrus.FieldLogger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	log.WithField("addr", addr).Info("metrics endpoint started")
	return srv
}
