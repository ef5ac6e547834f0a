package main

import (
	"flag"
	"log"
	"os"

	"stockscout/internal/di"
	"stockscout/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// .env is optional; environment variables win over the YAML file
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s", cfg.Environment, cfg.Backend.Type)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected and schema ready - db: %s", cfg.ClickHouse.Database)
	log.Printf("kafka: brokers=%v scores_topic=%s trades_topic=%s",
		cfg.Kafka.Brokers, cfg.Kafka.ScoresTopic, cfg.Kafka.TradesTopic)

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
