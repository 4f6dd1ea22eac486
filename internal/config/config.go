package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBDSN          string        `envconfig:"DB_DSN" required:"true"`
	Environment    string        `envconfig:"ENV" default:"development"`
	MQURL          string        `envconfig:"MQ_URL"`
	MQExchange     string        `envconfig:"MQ_EXCHANGE" default:"sessions.events"`
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	MigrationsPath string        `envconfig:"MIGRATIONS_PATH" default:"migrations"`
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}

	return &cfg, nil
}
