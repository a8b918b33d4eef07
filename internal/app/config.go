package app

import (
	"os"
	"strings"
)

// Config описывает настройки запуска сервиса магазина.
type Config struct {
	HTTPAddr     string
	MetricsAddr  string
	PostgresDSN  string
	KafkaBrokers []string
}

// DefaultConfig возвращает базовые адреса: API на 8080, метрики на 9090.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// LoadConfig читает конфигурацию из окружения. Пустой SHOP_POSTGRES_DSN
// означает in-memory хранилище, пустой SHOP_KAFKA_BROKERS — работу без Kafka.
func LoadConfig() Config {
	return Config{
		HTTPAddr:     getenv("SHOP_HTTP_ADDR", ":8080"),
		MetricsAddr:  getenv("SHOP_METRICS_ADDR", ":9090"),
		PostgresDSN:  os.Getenv("SHOP_POSTGRES_DSN"),
		KafkaBrokers: splitCSV(os.Getenv("SHOP_KAFKA_BROKERS")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
