// Package config loads service configuration from the environment.
package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Server struct {
	Port            string `env:"PORT" envDefault:"8080"`
	ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"15"`
	WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
	IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
	ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	MaxBodyBytes    int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateBurst       int    `env:"RATE_BURST" envDefault:"20"`
	RatePerSecond   int    `env:"RATE_PER_SECOND" envDefault:"10"`
}

type Database struct {
	DSN          string `env:"DSN"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"25"`
	MaxIdleTime  int    `env:"MAX_IDLE_TIME" envDefault:"300"` // seconds
}

type JWT struct {
	Secret     string `env:"SECRET,required"`
	Expiration int    `env:"EXPIRATION" envDefault:"18000"` // seconds; the legacy system issued 5h tokens
	Issuer     string `env:"ISSUER" envDefault:"cgms"`
}

type Verification struct {
	CodeTTL int `env:"CODE_TTL" envDefault:"600"` // seconds
}

type Department struct {
	PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
}

type SMTP struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"465"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	From        string `env:"FROM"`
	DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"` // seconds
}

type Config struct {
	Environment  string       `env:"ENVIRONMENT" envDefault:"development"`
	Server       Server       `envPrefix:"SERVER_"`
	Database     Database     `envPrefix:"DATABASE_"`
	JWT          JWT          `envPrefix:"JWT_"`
	Verification Verification `envPrefix:"VERIFICATION_"`
	Department   Department   `envPrefix:"DEPARTMENT_"`
	SMTP         SMTP         `envPrefix:"SMTP_"`
}

// Load parses configuration from environment variables prefixed with CGMS_.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "CGMS_"}); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) {
			// Return only the first error to keep startup logs readable.
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}
