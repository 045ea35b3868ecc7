package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds process settings read from the environment (and an optional .env file).
type Config struct {
	Port string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	Store    string
	MongoURI string
	MongoDB  string

	SeedPath string

	DistanceProvider string
	ORSAPIKey        string
	ORSBaseURL       string
	AverageSpeedKmh  float64

	Notifier string
	SMTPAddr string
	SMTPFrom string

	KafkaBrokers            []string
	KafkaEventsTopic        string
	KafkaNotificationsTopic string
	KafkaGroupID            string
}

var defaults = map[string]any{
	"PORT":                      "8080",
	"DB_DRIVER":                 "sqlite",
	"DB_PATH":                   "data/app.db",
	"DATABASE_URL":              "",
	"STORE":                     "sql",
	"MONGO_URI":                 "mongodb://localhost:27017",
	"MONGO_DB":                  "delivery_tracking",
	"SEED_PATH":                 "data/seeds/schedule.json",
	"DISTANCE_PROVIDER":         "haversine",
	"ORS_API_KEY":               "",
	"ORS_BASE_URL":              "",
	"AVERAGE_SPEED_KMH":         50.0,
	"NOTIFIER":                  "log",
	"SMTP_ADDR":                 "localhost:25",
	"SMTP_FROM":                 "noreply@example.com",
	"KAFKA_BROKERS":             "",
	"KAFKA_EVENTS_TOPIC":        "delivery.events",
	"KAFKA_NOTIFICATIONS_TOPIC": "delivery.notifications",
	"KAFKA_GROUP_ID":            "delivery_tracker",
}

// Load reads .env (if present) and the environment, then validates the combination.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:                    v.GetString("PORT"),
		DBDriver:                strings.ToLower(v.GetString("DB_DRIVER")),
		DBPath:                  v.GetString("DB_PATH"),
		DatabaseURL:             v.GetString("DATABASE_URL"),
		Store:                   strings.ToLower(v.GetString("STORE")),
		MongoURI:                v.GetString("MONGO_URI"),
		MongoDB:                 v.GetString("MONGO_DB"),
		SeedPath:                v.GetString("SEED_PATH"),
		DistanceProvider:        strings.ToLower(v.GetString("DISTANCE_PROVIDER")),
		ORSAPIKey:               v.GetString("ORS_API_KEY"),
		ORSBaseURL:              v.GetString("ORS_BASE_URL"),
		AverageSpeedKmh:         v.GetFloat64("AVERAGE_SPEED_KMH"),
		Notifier:                strings.ToLower(v.GetString("NOTIFIER")),
		SMTPAddr:                v.GetString("SMTP_ADDR"),
		SMTPFrom:                v.GetString("SMTP_FROM"),
		KafkaBrokers:            splitList(v.GetString("KAFKA_BROKERS")),
		KafkaEventsTopic:        v.GetString("KAFKA_EVENTS_TOPIC"),
		KafkaNotificationsTopic: v.GetString("KAFKA_NOTIFICATIONS_TOPIC"),
		KafkaGroupID:            v.GetString("KAFKA_GROUP_ID"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DSN returns the data source for the configured SQL driver.
func (c *Config) DSN() string {
	if c.DBDriver == "pgx" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "pgx":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("config: DATABASE_URL is required when DB_DRIVER=pgx")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q (want sqlite or pgx)", c.DBDriver)
	}

	switch c.Store {
	case "sql", "mongo":
	default:
		return fmt.Errorf("config: unknown STORE %q (want sql or mongo)", c.Store)
	}

	switch c.DistanceProvider {
	case "haversine":
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			return fmt.Errorf("config: ORS_API_KEY is required when DISTANCE_PROVIDER=ors")
		}
	default:
		return fmt.Errorf("config: unknown DISTANCE_PROVIDER %q (want haversine or ors)", c.DistanceProvider)
	}

	switch c.Notifier {
	case "log", "smtp":
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("config: KAFKA_BROKERS is required when NOTIFIER=kafka")
		}
	default:
		return fmt.Errorf("config: unknown NOTIFIER %q (want log, smtp or kafka)", c.Notifier)
	}

	if c.AverageSpeedKmh <= 0 {
		return fmt.Errorf("config: AVERAGE_SPEED_KMH must be positive, got %v", c.AverageSpeedKmh)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
