package config

import (
	"os"
	"strconv"
	"time"

	"storefront/internal/services/gateway/wompi"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (customer-facing status events)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Gateway configuration
	GatewayProvider string
	WompiConfig     wompi.Config

	// Checkout fees, smallest currency unit
	BaseFeeCents     int64
	DeliveryFeeCents int64

	// Payment flow configuration
	FlowInitialDelay time.Duration
	FlowPollInterval time.Duration
	FlowMaxChecks    int

	// Timeout configuration
	CartTTL        time.Duration
	PaymentCacheTTL time.Duration

	// Webhook shared secret, bcrypt hash
	WebhookSecretHash string

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Gateway
		GatewayProvider: getEnv("GATEWAY_PROVIDER", "wompi"),
		WompiConfig: wompi.Config{
			BaseURL:    getEnv("WOMPI_BASE_URL", "https://sandbox.wompi.co"),
			PublicKey:  getEnv("WOMPI_PUBLIC_KEY", ""),
			PrivateKey: getEnv("WOMPI_PRIVATE_KEY", ""),
			EventsKey:  getEnv("WOMPI_EVENTS_KEY", ""),
			Currency:   getEnv("WOMPI_CURRENCY", "COP"),

			PNSubKey:    getEnv("WOMPI_PN_SUBKEY", ""),
			PNSubSecret: getEnv("WOMPI_PN_SUBSECRET", ""),
			PNUUID:      getEnv("WOMPI_PN_UUID", ""),
			PNChannel:   getEnv("WOMPI_PN_CHANNEL", "gateway-settlements"),
		},

		// Fees
		BaseFeeCents:     getEnvAsInt64("BASE_FEE_CENTS", 500),
		DeliveryFeeCents: getEnvAsInt64("DELIVERY_FEE_CENTS", 900),

		// Payment flow
		FlowInitialDelay: getEnvAsDuration("FLOW_INITIAL_DELAY", "3s"),
		FlowPollInterval: getEnvAsDuration("FLOW_POLL_INTERVAL", "2s"),
		FlowMaxChecks:    getEnvAsInt("FLOW_MAX_CHECKS", 10),

		// Timeouts
		CartTTL:         getEnvAsDuration("CART_TTL", "24h"),
		PaymentCacheTTL: getEnvAsDuration("PAYMENT_CACHE_TTL", "10m"),

		// Webhook
		WebhookSecretHash: getEnv("WEBHOOK_SECRET_HASH", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
