package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Draw struct {
		// Reference zone for draw scheduling. Entries cut off at 17:00 and
		// the draw happens at 19:30 on the next non-weekend day in this zone.
		Timezone      string        `env:"DRAW_TIMEZONE" envDefault:"America/New_York"`
		SweepInterval time.Duration `env:"CUTOFF_SWEEP_INTERVAL" envDefault:"15m"`
	}

	Auth struct {
		OperatorIDs []int64 `env:"OPERATOR_IDS" envSeparator:","`
		AdminIDs    []int64 `env:"ADMIN_IDS" envSeparator:","`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine, variables may be set directly in the
		// environment in production.
		_ = err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
