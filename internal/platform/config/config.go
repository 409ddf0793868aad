package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	PlatformAccount string
	PlatformFeeBps  int64

	EnableClaimRegistryConsumer bool
	EnableListingExpirer        bool
	EnableOutboxRelay           bool
}

// MaxPlatformFeeBps caps the marketplace fee at 10% of gross proceeds.
const MaxPlatformFeeBps = 1000

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "bluecarbon"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	platformAccount := strings.TrimSpace(os.Getenv("PLATFORM_ACCOUNT"))
	if platformAccount == "" {
		platformAccount = "platform-treasury"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		PlatformAccount: platformAccount,
		PlatformFeeBps:  envBps("PLATFORM_FEE_BPS", 250),

		EnableClaimRegistryConsumer: envBool("ENABLE_CLAIM_REGISTRY_CONSUMER", true),
		EnableListingExpirer:        envBool("ENABLE_LISTING_EXPIRER", true),
		EnableOutboxRelay:           envBool("ENABLE_OUTBOX_RELAY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envBps(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	if value > MaxPlatformFeeBps {
		return MaxPlatformFeeBps
	}
	return value
}
