// Package config loads the gateway's environment configuration, following
// the same caarlos0/env struct-tag convention used throughout this service.
package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

// Config is the gateway's process-wide configuration, assembled from
// environment variables.
type Config struct {
	HuabaoAddr    string `env:"HUABAO_ADDR" envDefault:"0.0.0.0:5000"`
	TR900Addr     string `env:"TR900_ADDR" envDefault:"0.0.0.0:5001"`
	ManPowerAddr  string `env:"MANPOWER_ADDR" envDefault:"0.0.0.0:5002"`
	OwnTracksAddr string `env:"OWNTRACKS_ADDR" envDefault:"0.0.0.0:5003"`

	HuabaoAlternative   bool   `env:"HUABAO_ALTERNATIVE" envDefault:"false"`
	HuabaoIgnoreFixTime bool   `env:"HUABAO_IGNORE_FIX_TIME" envDefault:"false"`
	HuabaoTimezone      string `env:"HUABAO_TIMEZONE" envDefault:"GMT+08:00"`

	IdleTimeout time.Duration `env:"IDLE_TIMEOUT" envDefault:"5m"`

	HuabaoFrameRate  float64 `env:"HUABAO_FRAME_RATE" envDefault:"20"`
	HuabaoFrameBurst int     `env:"HUABAO_FRAME_BURST" envDefault:"40"`

	NatsURL          string `env:"NATS" envDefault:"127.0.0.1:4222"`
	PositionsSubject string `env:"NATS_SUBJECT" envDefault:"gateway.positions"`

	ClickHouseURL string `env:"GATEWAY_CLICKHOUSE"`

	AutoRegisterDevices bool `env:"AUTO_REGISTER_DEVICES" envDefault:"true"`
}

// Load parses the environment into a Config, applying envDefault tags for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
