package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	ServerURL     string `env:"SERVER_URL"     envDefault:"http://localhost:8085" validate:"url"`
	WebsocketPath string `env:"WEBSOCKET_PATH" envDefault:"/websocket"`

	Username string `env:"USERNAME" envDefault:"Guest"`

	PollInterval      time.Duration `env:"POLL_INTERVAL"      envDefault:"3s"`
	ReconnectDelay    time.Duration `env:"RECONNECT_DELAY"    envDefault:"5s"`
	ReconnectAttempts uint64        `env:"RECONNECT_ATTEMPTS" envDefault:"0"` // 0 = unbounded
	CountdownPeriod   time.Duration `env:"COUNTDOWN_PERIOD"   envDefault:"1s"`

	DevServerPort uint16 `env:"DEV_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
