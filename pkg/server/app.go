package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stockscout/internal/usecase"
	"stockscout/pkg/cache"
	pkgch "stockscout/pkg/clickhouse"
	"stockscout/pkg/config"
	xhttp "stockscout/pkg/http"
	pkgkafka "stockscout/pkg/kafka"
	applogger "stockscout/pkg/logger"
)

// App encapsulates the application lifecycle: HTTP API, live trade
// collection, and the Kafka-to-ClickHouse score drain.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.TradeCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	cache       cache.Service
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	TradeProc   *usecase.TradeProcessor

	streaming bool
	consuming bool
}

// New creates an App with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TradeCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	c cache.Service,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		collector:   collector,
		consumer:    consumer,
		kh:          kh,
		chClient:    chClient,
		cache:       c,
		httpHandler: handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(a.cfg.Metrics.Path),
		xhttp.WithLogger(a.logger),
	)

	if a.cfg.Analyzer.StreamQuotes && a.collector != nil && len(a.cfg.Finnhub.Symbols) > 0 {
		a.streaming = true
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.logger.Error("trade collector error", applogger.Error(err))
			}
		}()
		a.logger.Info("trade collector started", applogger.Strings("symbols", a.cfg.Finnhub.Symbols))
	}

	// With the kafka backend, score events travel through the broker and a
	// consumer drains them into ClickHouse. With the clickhouse backend the
	// analyzer writes directly and no consumer is needed.
	if a.cfg.Backend.Type == "kafka" && a.consumer != nil && a.kh != nil {
		a.consuming = true
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.logger.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.logger.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("backend", a.cfg.Backend.Type))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.streaming {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.logger.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.consuming {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Collector shutdown closes the processor; cover the non-streaming case.
	if a.TradeProc != nil && !a.streaming {
		a.TradeProc.Close()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	a.logger.Close()
	return nil
}
