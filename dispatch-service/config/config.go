package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/arturz777/dlyq/pkg/config"
)

// Режимы доставки realtime событий
const (
	RelayLocal    = "local"
	RelayRabbitMQ = "rabbitmq"
)

// Config содержит конфигурацию сервиса диспетчеризации
type Config struct {
	HTTP      config.HTTPConfig
	Postgres  config.PostgresConfig
	RabbitMQ  config.RabbitMQConfig
	Log       config.LogConfig
	JWT       config.JWTConfig
	Dispatch  DispatchConfig
	Realtime  RealtimeConfig
	Retention RetentionConfig
	Internal  InternalConfig
}

// DispatchConfig координаты склада и сервис маршрутов
type DispatchConfig struct {
	WarehouseLat   float64
	WarehouseLng   float64
	RoutingURL     string
	RoutingTimeout time.Duration
}

// RealtimeConfig настройки рассылки событий между экземплярами
type RealtimeConfig struct {
	Relay          string
	Exchange       string
	PublishRetries int
}

// RetentionConfig настройки очистки старых заказов
type RetentionConfig struct {
	Interval  time.Duration
	MaxAge    time.Duration
	UploadDir string
	BatchSize int
}

type InternalConfig struct {
	APIKey string
}

// RelayEnabled сообщает, нужен ли брокер для realtime событий
func (c *Config) RelayEnabled() bool {
	return c.Realtime.Relay == RelayRabbitMQ
}

func NewConfig() (*Config, error) {
	commonConfig := config.LoadCommonConfig("dispatch", "8085")
	jwtConfig := config.LoadJWTConfig("dlyq-auth")

	cfg := &Config{
		HTTP:     commonConfig.HTTP,
		Postgres: commonConfig.Postgres,
		RabbitMQ: commonConfig.RabbitMQ,
		Log:      commonConfig.Log,
		JWT:      *jwtConfig,
		Dispatch: DispatchConfig{
			WarehouseLat:   config.GetEnvAsFloat("WAREHOUSE_LAT", 59.4370),
			WarehouseLng:   config.GetEnvAsFloat("WAREHOUSE_LNG", 24.7536),
			RoutingURL:     config.GetEnv("ROUTING_URL", "https://router.project-osrm.org"),
			RoutingTimeout: config.GetEnvAsDuration("ROUTING_TIMEOUT", 5*time.Second),
		},
		Realtime: RealtimeConfig{
			Relay:          strings.ToLower(config.GetEnv("REALTIME_RELAY", RelayLocal)),
			Exchange:       config.GetEnv("REALTIME_EXCHANGE", "dispatch_events"),
			PublishRetries: config.GetEnvAsInt("REALTIME_PUBLISH_RETRIES", 1),
		},
		Retention: RetentionConfig{
			Interval:  config.GetEnvAsDuration("RETENTION_INTERVAL", 720*time.Hour),
			MaxAge:    config.GetEnvAsDuration("RETENTION_MAX_AGE", 720*time.Hour),
			UploadDir: config.GetEnv("UPLOAD_DIR", "uploads"),
			BatchSize: config.GetEnvAsInt("RETENTION_BATCH_SIZE", 500),
		},
		Internal: InternalConfig{
			APIKey: config.GetEnv("INTERNAL_API_KEY", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Realtime.Relay {
	case RelayLocal, RelayRabbitMQ:
	default:
		return fmt.Errorf("REALTIME_RELAY: неизвестный режим %q", c.Realtime.Relay)
	}

	if c.Dispatch.WarehouseLat < -90 || c.Dispatch.WarehouseLat > 90 ||
		c.Dispatch.WarehouseLng < -180 || c.Dispatch.WarehouseLng > 180 {
		return fmt.Errorf("координаты склада вне допустимого диапазона: %f, %f", c.Dispatch.WarehouseLat, c.Dispatch.WarehouseLng)
	}

	if c.Retention.Interval <= 0 || c.Retention.MaxAge <= 0 {
		return fmt.Errorf("RETENTION_INTERVAL и RETENTION_MAX_AGE должны быть положительными")
	}
	return nil
}
