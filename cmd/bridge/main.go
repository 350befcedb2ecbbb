package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/vaa-bridge/bridge/alerts"
	"github.com/omni/vaa-bridge/cmd/internal/app"
	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/logging"
	"github.com/omni/vaa-bridge/presenter"
)

func main() {
	logger := logging.New()

	configPath := "config.yml"
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		configPath = path
	}
	cfg, err := config.ReadConfigFromFile(configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	a, err := app.Open(logger, cfg)
	if err != nil {
		logger.WithError(err).Fatal("can't open bridge")
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = a.Bridge.InitializeFromConfig(ctx); err != nil {
		logger.WithError(err).Fatal("can't initialize bridge")
	}

	if cfg.Metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			//nolint:gosec
			err := http.ListenAndServe(cfg.Metrics.Host, mux)
			if err != nil {
				logger.WithError(err).Fatal("can't start listener for prometheus metrics")
			}
		}()
	}

	if len(cfg.Alerts) > 0 {
		am, err2 := alerts.NewAlertManager(logger.WithField("service", "alerts"), a.Alerts, prometheus.DefaultRegisterer, cfg.Bridge.ChainID, cfg.Alerts)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't create alert manager")
		}
		am.Start(ctx)
	}

	presenterDone := make(chan struct{})
	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), a.Bridge)
		go func() {
			defer close(presenterDone)
			err := pr.Serve(ctx, cfg.Presenter.Host)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	} else {
		close(presenterDone)
	}

	<-ctx.Done()
	logger.Warn("caught termination signal, gracefully terminating")
	<-presenterDone
}
