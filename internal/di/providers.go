package di

import (
	"context"
	"fmt"
	"net"
	"time"

	"stockscout/internal/domain/repository"
	"stockscout/internal/handler/api"
	mid "stockscout/internal/middleware"
	internalrepo "stockscout/internal/repository"
	icache "stockscout/internal/service/cache"
	"stockscout/internal/service/finnhub"
	"stockscout/internal/services/scoring"
	"stockscout/internal/usecase"
	"stockscout/pkg/cache"
	pkgch "stockscout/pkg/clickhouse"
	"stockscout/pkg/config"
	pkgkafka "stockscout/pkg/kafka"
	applogger "stockscout/pkg/logger"
	"stockscout/pkg/metrics"
	"stockscout/pkg/server"
	"stockscout/pkg/util"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the result cache: layered memory+Redis when Redis
// is configured, in-process memory otherwise.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Analyzer.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Analyzer.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(util.ParseIntDefault(portStr, 6379)),
		cache.WithRedisPassword(cfg.Analyzer.Redis.Password),
		cache.WithRedisDB(cfg.Analyzer.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("addr", cfg.Analyzer.Redis.Addr))
	return cache.NewLayeredCache(rc), nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// database exists. Table schemas are owned by the stores.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithInsertChunk(cfg.ClickHouse.InsertChunk),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer for the scores topic.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideScoreStore creates the ClickHouse score store and ensures its table.
func ProvideScoreStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (repository.ScoreStore, error) {
	store := internalrepo.NewCHScoreStore(ch, cfg.ClickHouse.Database+".scores", l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("score store init: %w", err)
	}
	return store, nil
}

// ProvideTradeStore creates the ClickHouse raw trade store and ensures its table.
func ProvideTradeStore(ch *pkgch.Client, cfg *config.Config) (repository.TradeStore, error) {
	store := internalrepo.NewCHTradeStore(ch, cfg.ClickHouse.Database+".trades_raw")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("trade store init: %w", err)
	}
	return store, nil
}

// ProvideScorePublisher creates the Kafka score event publisher.
func ProvideScorePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ScoresTopic)
}

// ProvideTradePublisher creates the Kafka raw trade publisher.
func ProvideTradePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.TradePublisher {
	return internalrepo.NewKafkaTradePublisher(producer, cfg.Kafka.TradesTopic)
}

// ProvideMarketData creates the rate-limited, cached Finnhub REST client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	var payloadCache icache.BytesCache
	if cfg.Analyzer.Redis.Enabled {
		payloadCache = icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Analyzer.Redis.Addr,
			Password: cfg.Analyzer.Redis.Password,
			DB:       cfg.Analyzer.Redis.DB,
		})
	} else {
		payloadCache = icache.NewTTLCache()
	}

	return finnhub.NewRestClient(l, cfg.Finnhub.APIKey, cfg.Finnhub.BaseURL, cfg.Finnhub.Timeout,
		finnhub.WithBytesCache(payloadCache, 15*time.Minute),
		finnhub.WithRate(cfg.Finnhub.RateCapacity, cfg.Finnhub.RatePerSec),
	)
}

// ProvideMarketStream creates the Finnhub WebSocket stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return finnhub.NewStream(l, cfg.Finnhub.APIKey, cfg.Finnhub.WebSocketURL,
		cfg.Finnhub.ReconnectDelay, cfg.Finnhub.PingInterval)
}

// ProvideUniverseStore creates the CSV snapshot store.
func ProvideUniverseStore(cfg *config.Config) repository.UniverseStore {
	return internalrepo.NewCSVUniverseStore(cfg.Universe.Dir)
}

// ProvideScoreProcessor routes score events to the configured backend.
func ProvideScoreProcessor(
	pub repository.Publisher,
	store repository.ScoreStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.ScoreProcessor {
	return usecase.NewScoreProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideAnalyzer assembles the single-ticker analyzer.
func ProvideAnalyzer(
	data repository.MarketData,
	c cache.Service,
	proc *usecase.ScoreProcessor,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(
		data,
		scoring.NewGrowthValueScorer(),
		scoring.NewHealthScorer(),
		scoring.NewMarketScorer(),
		scoring.NewCompositeScorer(),
		c,
		proc,
		m,
		l,
		usecase.AnalyzerConfig{
			MinMarketCap: cfg.Universe.MinMarketCap,
			MaxMarketCap: cfg.Universe.MaxMarketCap,
			HistoryDays:  cfg.Analyzer.HistoryDays,
			ResultTTL:    cfg.Analyzer.ResultTTL,
		},
	)
}

// ProvideScanner assembles the batch scanner.
func ProvideScanner(
	analyzer *usecase.Analyzer,
	universe repository.UniverseStore,
	c cache.Service,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Scanner {
	return usecase.NewScanner(analyzer, universe, c, l, cfg.Analyzer.ScanWorkers, cfg.Analyzer.ScanQueue)
}

// ProvideUniverseBuilder assembles the universe builder.
func ProvideUniverseBuilder(
	data repository.MarketData,
	store repository.UniverseStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.UniverseBuilder {
	return usecase.NewUniverseBuilder(data, store, m, l, usecase.UniverseConfig{
		MinMarketCap: cfg.Universe.MinMarketCap,
		MaxMarketCap: cfg.Universe.MaxMarketCap,
		MinVolume:    cfg.Universe.MinVolume,
		Industries:   cfg.Universe.Industries,
		KnownTickers: cfg.Universe.KnownTickers,
	})
}

// ProvideHistory creates the score history query usecase.
func ProvideHistory(store repository.ScoreStore) *usecase.History {
	return usecase.NewHistory(store)
}

// ProvideKafkaScoresHandler registers the handler draining the scores topic
// into ClickHouse.
func ProvideKafkaScoresHandler(store repository.ScoreStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaScoresHandler {
	return usecase.NewKafkaScoresHandler(cfg.Kafka.ScoresTopic, store, m)
}

// ProvideTradeProcessor creates the raw trade batcher.
func ProvideTradeProcessor(
	pub repository.TradePublisher,
	store repository.TradeStore,
	c cache.Service,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TradeProcessor {
	return usecase.NewTradeProcessor(pub, store, c, m,
		cfg.Backend.Type, cfg.Backend.BatchSize, cfg.Backend.BatchTimeout)
}

// ProvideTradeCollector creates the WebSocket trade collector with the
// validation/throttle pipeline in front of the processor.
func ProvideTradeCollector(
	stream repository.MarketStream,
	processor *usecase.TradeProcessor,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TradeCollector {
	pipe := mid.NewRealtimePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTradeCollector(stream, processor, m, pipe, cfg.Finnhub.Symbols)
}

// ProvideHTTPHandler assembles the Echo handler with dependency probes.
func ProvideHTTPHandler(
	l *applogger.Logger,
	analyzer *usecase.Analyzer,
	scanner *usecase.Scanner,
	universe *usecase.UniverseBuilder,
	history *usecase.History,
	collector *usecase.TradeCollector,
	ch *pkgch.Client,
	c cache.Service,
	cfg *config.Config,
) *api.ScreenerEchoHandler {
	h := api.NewScreenerEchoHandler(l, analyzer, scanner, universe, history)
	h.AddHealthCheck("clickhouse", ch.Health)
	h.AddHealthCheck("cache", func(ctx context.Context) error {
		return c.Set(ctx, "health:probe", "ok", time.Minute)
	})
	if cfg.Analyzer.StreamQuotes {
		h.AddHealthCheck("stream", func(context.Context) error {
			if !collector.IsConnected() {
				return fmt.Errorf("websocket disconnected")
			}
			return nil
		})
	}
	return h
}

// kafkaLogSink adapts the Kafka producer to the log collector's publisher.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TradeCollector,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	kh *usecase.KafkaScoresHandler,
	chClient *pkgch.Client,
	c cache.Service,
	processor *usecase.TradeProcessor,
	handler *api.ScreenerEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if cfg.Backend.Type == "kafka" {
		// ship aggregated error logs alongside score events
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "stockscout.logs",
			Publisher:      kafkaLogSink{producer: producer},
		})
	}

	app := server.New(cfg, l, collector, consumer, kh, chClient, c, handler)
	app.TradeProc = processor
	return app
}
