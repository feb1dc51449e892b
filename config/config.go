// Package config loads client settings from the environment.
//
// Values are read from QSTASH_* environment variables with
// github.com/caarlos0/env. Files in .env format can seed the environment
// through WithDotEnv; variables set in the process environment take
// precedence over values read from files.
//
//	cfg, err := config.Load(config.WithDotEnv(".env"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	client := qstash.NewFromConfig(cfg)
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/lestrrat-go/option"
)

// Config holds the settings shared by the publishing client and the
// webhook receiver.
type Config struct {
	Token             string `env:"QSTASH_TOKEN"`
	BaseURL           string `env:"QSTASH_URL" envDefault:"https://qstash.upstash.io"`
	CurrentSigningKey string `env:"QSTASH_CURRENT_SIGNING_KEY"`
	NextSigningKey    string `env:"QSTASH_NEXT_SIGNING_KEY"`
	Retries           int    `env:"QSTASH_RETRIES" envDefault:"5"`
}

type Option = option.Interface

type identDotEnv struct{}

func (identDotEnv) String() string { return "WithDotEnv" }

type identEnvironment struct{}

func (identEnvironment) String() string { return "WithEnvironment" }

// WithDotEnv reads the given .env files before the environment is parsed.
// Later files do not override earlier ones.
func WithDotEnv(files ...string) Option {
	return option.New(identDotEnv{}, files)
}

// WithEnvironment replaces the process environment with env.
func WithEnvironment(env map[string]string) Option {
	return option.New(identEnvironment{}, env)
}

// Load builds a Config from the environment.
func Load(options ...Option) (*Config, error) {
	var files []string
	var environ map[string]string
	for _, opt := range options {
		switch opt.Ident() {
		case identDotEnv{}:
			files = append(files, opt.Value().([]string)...)
		case identEnvironment{}:
			environ = opt.Value().(map[string]string)
		}
	}

	if environ == nil {
		environ = env.ToMap(os.Environ())
	}

	merged := make(map[string]string, len(environ))
	for _, file := range files {
		values, err := godotenv.Read(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		for k, v := range values {
			if _, ok := merged[k]; !ok {
				merged[k] = v
			}
		}
	}
	for k, v := range environ {
		merged[k] = v
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: merged}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("QSTASH_RETRIES must not be negative, got %d", cfg.Retries)
	}
	return &cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(options ...Option) *Config {
	cfg, err := Load(options...)
	if err != nil {
		panic(err)
	}
	return cfg
}
