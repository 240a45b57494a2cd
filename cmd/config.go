package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type Config struct {
	HTTPPort string
	LogLevel slog.Level

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// Kafka mirroring is off when KafkaHost is empty.
	KafkaHost                []string
	KafkaDeliveryEventsTopic string

	// Location rate limiting is off when RedisAddr is empty.
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	LocationRateLimit  int64
	LocationRateWindow time.Duration

	HubQueueSize   int
	HubSendTimeout time.Duration

	ActiveDeliveriesSchedule string
	SilentTrackerThreshold   time.Duration
}

// LoadConfig reads configuration in order: .env (if present), environment,
// then command line flags.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn(".env not loaded", "error", err)
	}

	var (
		c        Config
		logLevel string
		kafka    string
		err      error
	)

	c.HTTPPort = envString("HTTP_PORT", "8080")
	logLevel = envString("LOG_LEVEL", "info")
	c.DBHost = envString("DB_HOST", "localhost")
	c.DBPort = envString("DB_PORT", "5432")
	c.DBUser = envString("DB_USER", "postgres")
	c.DBPassword = envString("DB_PASSWORD", "postgres")
	c.DBName = envString("DB_NAME", "fulfillment")
	c.DBSslMode = envString("DB_SSLMODE", "disable")
	kafka = envString("KAFKA_HOST", "")
	c.KafkaDeliveryEventsTopic = envString("KAFKA_DELIVERY_EVENTS_TOPIC", "delivery.events")
	c.RedisAddr = envString("REDIS_ADDR", "")
	c.RedisPassword = envString("REDIS_PASSWORD", "")
	c.ActiveDeliveriesSchedule = envString("ACTIVE_DELIVERIES_SCHEDULE", "*/30 * * * * *")

	if c.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if c.LocationRateLimit, err = envInt64("LOCATION_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if c.LocationRateWindow, err = envDuration("LOCATION_RATE_WINDOW", time.Second); err != nil {
		return Config{}, err
	}
	if c.HubQueueSize, err = envInt("HUB_QUEUE_SIZE", 64); err != nil {
		return Config{}, err
	}
	if c.HubSendTimeout, err = envDuration("HUB_SEND_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if c.SilentTrackerThreshold, err = envDuration("SILENT_TRACKER_THRESHOLD", 5*time.Minute); err != nil {
		return Config{}, err
	}

	flags := pflag.NewFlagSet("fulfillment", pflag.ContinueOnError)
	flags.StringVarP(&c.HTTPPort, "port", "p", c.HTTPPort, "port to listen on")
	flags.StringVar(&logLevel, "log-level", logLevel, "debug, info, warn or error")
	flags.StringVar(&c.DBHost, "db-host", c.DBHost, "postgres host")
	flags.StringVar(&kafka, "kafka-host", kafka, "comma separated Kafka brokers, empty to disable")
	flags.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis address, empty to disable rate limiting")
	flags.Int64Var(&c.LocationRateLimit, "location-rate-limit", c.LocationRateLimit, "location posts per window and tracker")
	flags.DurationVar(&c.LocationRateWindow, "location-rate-window", c.LocationRateWindow, "rate limit window")
	flags.IntVar(&c.HubQueueSize, "hub-queue-size", c.HubQueueSize, "events buffered per realtime connection")
	flags.StringVar(&c.ActiveDeliveriesSchedule, "active-deliveries-schedule", c.ActiveDeliveriesSchedule,
		"cron schedule, with seconds, of the active deliveries job")
	flags.DurationVar(&c.SilentTrackerThreshold, "silent-tracker-threshold", c.SilentTrackerThreshold,
		"age of the last location after which a tracker counts as silent")
	if err = flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err = c.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return Config{}, errors.Wrap(err, "LOG_LEVEL")
	}
	c.KafkaHost = splitList(kafka)

	if err = c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.HTTPPort)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port: %s", c.HTTPPort)
	}
	if c.LocationRateLimit <= 0 {
		return fmt.Errorf("invalid location rate limit: %d", c.LocationRateLimit)
	}
	if c.LocationRateWindow <= 0 {
		return fmt.Errorf("invalid location rate window: %s", c.LocationRateWindow)
	}
	if c.HubQueueSize <= 0 {
		return fmt.Errorf("invalid hub queue size: %d", c.HubQueueSize)
	}
	if len(c.KafkaHost) > 0 && c.KafkaDeliveryEventsTopic == "" {
		return errors.New("KAFKA_DELIVERY_EVENTS_TOPIC is required when KAFKA_HOST is set")
	}
	return nil
}

// DSN is the libpq connection string of the configured database.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := envString(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := envString(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := envString(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
