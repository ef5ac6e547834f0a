package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
environment: test
backend:
  type: clickhouse
finnhub:
  api_key: test-key
universe:
  dir: /tmp/universe
  min_market_cap: 1000000000
  max_market_cap: 70000000000
kafka:
  brokers: [localhost:9092]
  scores_topic: scores
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" || cfg.Backend.Type != "clickhouse" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Finnhub.APIKey != "test-key" {
		t.Errorf("api key = %q", cfg.Finnhub.APIKey)
	}
}

func TestLoadRejectsBadBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: rabbitmq
finnhub:
  api_key: k
universe:
  dir: /tmp/u
  min_market_cap: 1
  max_market_cap: 2
`))
	if err == nil {
		t.Fatal("expected backend validation error")
	}
}

func TestLoadRejectsInvalidCapRange(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
finnhub:
  api_key: k
universe:
  dir: /tmp/u
  min_market_cap: 70000000000
  max_market_cap: 1000000000
`))
	if err == nil {
		t.Fatal("expected cap range validation error")
	}
}

func TestShippedConfigCarriesSeedUniverse(t *testing.T) {
	cfg, err := parse(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("parse shipped config: %v", err)
	}

	if n := len(cfg.Universe.KnownTickers); n < 120 {
		t.Errorf("seed tickers = %d, want the full seed list", n)
	}
	if n := len(cfg.Universe.Industries); n != 10 {
		t.Errorf("industry keywords = %d, want 10", n)
	}
	seen := map[string]bool{}
	for _, tk := range cfg.Universe.KnownTickers {
		if seen[tk] {
			t.Errorf("duplicate seed ticker %s", tk)
		}
		seen[tk] = true
	}
	for _, tk := range []string{"DDOG", "NVDA", "COIN", "IONQ", "ADBE"} {
		if !seen[tk] {
			t.Errorf("seed list missing %s", tk)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	// api_key comes from the environment, not the file
	noKey := `
environment: test
backend:
  type: clickhouse
universe:
  dir: /tmp/universe
  min_market_cap: 1000000000
  max_market_cap: 70000000000
`
	t.Setenv("FINNHUB_API_KEY", "env-key")
	t.Setenv("BACKEND", "kafka")
	t.Setenv("KAFKA_BROKERS", "b1:9092,b2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, noKey))
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if cfg.Finnhub.APIKey != "env-key" {
		t.Errorf("api key = %q, want env-key", cfg.Finnhub.APIKey)
	}
	if cfg.Backend.Type != "kafka" {
		t.Errorf("backend = %q, want kafka", cfg.Backend.Type)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "b1:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}
