//go:build wireinject
// +build wireinject

package di

import (
	"stockscout/pkg/config"
	"stockscout/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideScoreStore,
		ProvideTradeStore,
		ProvideScorePublisher,
		ProvideTradePublisher,
		ProvideMarketData,
		ProvideMarketStream,
		ProvideUniverseStore,

		// Use cases
		ProvideScoreProcessor,
		ProvideAnalyzer,
		ProvideScanner,
		ProvideUniverseBuilder,
		ProvideHistory,
		ProvideKafkaScoresHandler,
		ProvideTradeProcessor,
		ProvideTradeCollector,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
